package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/pkg/core"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/pkg/errorx"
)

// HistoryHandler handles tool call history endpoints.
type HistoryHandler struct {
	svc service.PlanService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc service.PlanService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// ListByUser handles GET /v1/history?user_id=xxx. Records come back
// oldest first, capped by the store's per-user retention limit.
func (h *HistoryHandler) ListByUser(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = "default"
	}

	records, err := h.svc.ListHistory(c.Request.Context(), userID)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrHistoryList, "list history"), nil)
		return
	}

	items := make([]HistoryRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toHistoryResponse(rec))
	}
	core.WriteResponse(c, nil, gin.H{"records": items})
}
