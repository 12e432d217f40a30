package runtime

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/pkg/logger"
)

// Narrator emits human-readable progress text for step transitions through
// the stream sink. Narration never alters run state; a sink failure is the
// sink's problem.
type Narrator struct {
	sink StreamSink
	log  logger.Logger
}

// NewNarrator creates a Narrator writing to the given sink.
func NewNarrator(sink StreamSink, log logger.Logger) *Narrator {
	if log == nil {
		log = logger.Default()
	}
	return &Narrator{sink: sink, log: log}
}

// Announce narrates that a step is about to execute. usedPriorData reports
// whether the placeholder resolver substituted data from an earlier step.
func (n *Narrator) Announce(step *entity.Step, sessionID string, usedPriorData bool) {
	var text string
	if usedPriorData {
		text = fmt.Sprintf("Running %s using data from a previous step...", step.Call.Name)
	} else {
		text = fmt.Sprintf("Running %s as planned...", step.Call.Name)
	}
	n.Say(sessionID, text)
}

// Complete narrates a settled step, framing success or failure from its
// recorded result.
func (n *Narrator) Complete(step *entity.Step, sessionID string) {
	if step.Result != nil && step.Result.Status == entity.ToolResultFailed {
		msg := step.Result.Error
		if msg == "" {
			msg = "unknown error"
		}
		n.Say(sessionID, fmt.Sprintf("The %s step failed: %s", step.Call.Name, msg))
		return
	}
	n.Say(sessionID, fmt.Sprintf("Finished %s.", step.Call.Name))
}

// Say streams one narration message as a START/STREAMING/END triplet. The
// message identifier is freshly generated and therefore never collides
// with a step identifier or another narration channel of the same run.
func (n *Narrator) Say(sessionID, text string) {
	messageID := "msg-" + uuid.New().String()

	n.sink.Send(&entity.PlanEvent{
		Type:          entity.EventSegment,
		SessionID:     sessionID,
		MessageID:     messageID,
		SegmentStatus: entity.SegmentStart,
	})
	n.sink.Send(&entity.PlanEvent{
		Type:          entity.EventSegment,
		SessionID:     sessionID,
		MessageID:     messageID,
		SegmentStatus: entity.SegmentStreaming,
		Segment:       text,
	})
	n.sink.Send(&entity.PlanEvent{
		Type:          entity.EventSegment,
		SessionID:     sessionID,
		MessageID:     messageID,
		SegmentStatus: entity.SegmentEnd,
	})
}
