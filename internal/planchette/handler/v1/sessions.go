package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/pkg/core"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/errorx"
)

// SessionHandler handles session query endpoints.
type SessionHandler struct {
	svc service.PlanService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc service.PlanService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errno.ErrSessionNotFound) {
			core.WriteResponse(c, errorx.WrapC(err, ErrSessionNotFound, "get session"), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrSessionList, "get session"), nil)
		return
	}
	core.WriteResponse(c, nil, toSessionResponse(sess))
}

// ListByUser handles GET /v1/sessions?user_id=xxx.
func (h *SessionHandler) ListByUser(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = "default"
	}

	sessions, err := h.svc.ListSessionsByUser(c.Request.Context(), userID)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrSessionList, "list sessions"), nil)
		return
	}

	items := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, toSessionResponse(sess))
	}
	core.WriteResponse(c, nil, gin.H{"sessions": items})
}

// Delete handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, errno.ErrSessionNotFound) {
			core.WriteResponse(c, errorx.WrapC(err, ErrSessionNotFound, "delete session"), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrSessionDelete, "delete session"), nil)
		return
	}
	core.WriteResponse(c, nil, gin.H{"deleted": true})
}
