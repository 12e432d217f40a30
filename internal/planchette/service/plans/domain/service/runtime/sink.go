package runtime

import (
	"github.com/cloudwego/eino/schema"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// StreamSink delivers discrete progress events to a connected client.
// Push-only and fire-and-forget: implementations must never block the
// execution flow on a slow or departed consumer longer than their own
// buffering allows, and must tolerate events after the client is gone.
type StreamSink interface {
	Send(event *entity.PlanEvent)
}

// PipeSink adapts an Eino stream writer into a StreamSink. The reader end
// is consumed by the transport layer until io.EOF.
type PipeSink struct {
	sw *schema.StreamWriter[*entity.PlanEvent]
}

// NewPipeSink wraps a stream writer.
func NewPipeSink(sw *schema.StreamWriter[*entity.PlanEvent]) *PipeSink {
	return &PipeSink{sw: sw}
}

// Send pushes one event into the pipe. A closed reader makes Send a no-op.
func (s *PipeSink) Send(event *entity.PlanEvent) {
	s.sw.Send(event, nil)
}
