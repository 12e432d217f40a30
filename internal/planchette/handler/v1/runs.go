package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/pkg/core"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/errorx"
)

// RunHandler handles run query and resume endpoints.
type RunHandler struct {
	svc service.PlanService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(svc service.PlanService) *RunHandler {
	return &RunHandler{svc: svc}
}

// Get handles GET /v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errno.ErrRunNotFound) {
			core.WriteResponse(c, errorx.WrapC(err, ErrRunNotFound, "get run"), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrRunList, "get run"), nil)
		return
	}
	core.WriteResponse(c, nil, toRunResponse(run))
}

// Resume handles POST /v1/runs/:id/resume. Completed steps are replayed
// without re-dispatching, then execution continues. The response is the
// same SSE event stream as plan execution.
func (h *RunHandler) Resume(c *gin.Context) {
	sr, err := h.svc.ResumeRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, errno.ErrRunNotFound):
			core.WriteResponse(c, errorx.WrapC(err, ErrRunNotFound, "resume run"), nil)
		case errors.Is(err, errno.ErrRunAlreadyDone):
			core.WriteResponse(c, errorx.WrapC(err, ErrRunResume, "resume run"), nil)
		default:
			core.WriteResponse(c, errorx.WrapC(err, ErrPlanExecute, "resume run"), nil)
		}
		return
	}

	streamEvents(c, sr)
}

// ListBySession handles GET /v1/sessions/:id/runs.
func (h *RunHandler) ListBySession(c *gin.Context) {
	runs, err := h.svc.ListRunsBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrRunList, "list runs"), nil)
		return
	}

	items := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, toRunResponse(run))
	}
	core.WriteResponse(c, nil, gin.H{"runs": items})
}
