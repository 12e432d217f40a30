package entity

// EventType identifies the type of a streaming plan event.
type EventType string

const (
	// EventRunUpdated carries a fresh snapshot of the run after a state
	// transition.
	EventRunUpdated EventType = "run_updated"

	// EventSegment is a chunk of conversational narration text.
	EventSegment EventType = "conversational_text_segment"

	// EventError reports an execution error. Final errors terminate the
	// stream.
	EventError EventType = "error"
)

// SegmentStatus frames a narration segment within its message.
type SegmentStatus string

const (
	SegmentStart     SegmentStatus = "START"
	SegmentStreaming SegmentStatus = "STREAMING"
	SegmentEnd       SegmentStatus = "END"
)

// PlanEvent is a streaming event emitted during plan execution.
//
// Events flow through schema.Pipe[*PlanEvent] from the execution goroutine
// to the client-facing stream. Run always holds a snapshot, never the live
// run the engine mutates.
type PlanEvent struct {
	// Type identifies which kind of event this is.
	Type EventType `json:"type"`

	// SessionID tags every event with its session.
	SessionID string `json:"session_id"`

	// Run is the run snapshot for EventRunUpdated events.
	Run *Run `json:"run,omitempty"`

	// MessageID groups the segments of one narration message. It is
	// always distinct from any step identifier so narration channels
	// for the same run never collide.
	MessageID string `json:"message_id,omitempty"`

	// SegmentStatus frames EventSegment events.
	SegmentStatus SegmentStatus `json:"segment_status,omitempty"`

	// Segment is the narration text for STREAMING segments.
	Segment string `json:"segment,omitempty"`

	// Error is the message for EventError events.
	Error string `json:"error,omitempty"`

	// Final marks the terminal error event of a halted run.
	Final bool `json:"is_final,omitempty"`
}
