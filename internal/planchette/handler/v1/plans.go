package v1

import (
	"io"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/pkg/core"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/pkg/errorx"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"

	"github.com/cloudwego/eino/schema"
)

// PlanHandler handles plan execution REST API endpoints.
type PlanHandler struct {
	svc service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(svc service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// Execute handles POST /v1/plans. The response is an SSE stream of plan
// events: run snapshots, narration segments and at most one terminal
// error.
func (h *PlanHandler) Execute(c *gin.Context) {
	var req ExecutePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind execute plan request"), nil)
		return
	}
	if req.Request == "" {
		core.WriteResponse(c, errorx.WithCode(ErrRequestEmpty, "request text is required"), nil)
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	sr, err := h.svc.ExecutePlan(c.Request.Context(), &service.ExecuteRequest{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Request:   req.Request,
	})
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrPlanGenerate, "execute plan"), nil)
		return
	}

	streamEvents(c, sr)
}

// streamEvents relays the plan event pipe to the client as SSE until the
// engine closes the writer end.
func streamEvents(c *gin.Context, sr *schema.StreamReader[*entity.PlanEvent]) {
	defer sr.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	w := c.Writer

	for {
		// Check client disconnect.
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}

		event, err := sr.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			logger.Warn("[Plans] stream recv error: %v", err)
			break
		}

		data, err := json.MarshalString(event)
		if err != nil {
			logger.Warn("[Plans] marshal event error: %v", err)
			continue
		}
		if err := sse.Encode(w, sse.Event{
			Event: string(event.Type),
			Data:  data,
		}); err != nil {
			logger.Warn("[Plans] write event error: %v", err)
			return
		}
		w.Flush()
	}

	// Closing sentinel so clients can stop reading cleanly.
	_ = sse.Encode(w, sse.Event{Event: "done", Data: "[DONE]"})
	w.Flush()
}
