// Package render prints plan event streams for terminal consumption.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

const wrapWidth = 80

var (
	narrationColor = color.New(color.FgGreen)
	statusColor    = color.New(color.FgCyan)
	errorColor     = color.New(color.FgRed, color.Bold)
)

// StreamRenderer assembles narration segments into messages and prints
// them as they complete. Segments of a message arrive as a
// START/STREAMING/END triplet keyed by message ID.
type StreamRenderer struct {
	out      io.Writer
	messages map[string]*strings.Builder
	lastRun  *entity.Run
}

// NewStreamRenderer creates a renderer writing to out.
func NewStreamRenderer(out io.Writer) *StreamRenderer {
	return &StreamRenderer{
		out:      out,
		messages: make(map[string]*strings.Builder),
	}
}

// Render consumes one event.
func (r *StreamRenderer) Render(ev *entity.PlanEvent) {
	switch ev.Type {
	case entity.EventSegment:
		r.renderSegment(ev)
	case entity.EventRunUpdated:
		r.renderRun(ev)
	case entity.EventError:
		errorColor.Fprintf(r.out, "error: %s\n", ev.Error)
	}
}

func (r *StreamRenderer) renderSegment(ev *entity.PlanEvent) {
	switch ev.SegmentStatus {
	case entity.SegmentStart:
		r.messages[ev.MessageID] = &strings.Builder{}
	case entity.SegmentStreaming:
		if b, ok := r.messages[ev.MessageID]; ok {
			b.WriteString(ev.Segment)
		}
	case entity.SegmentEnd:
		b, ok := r.messages[ev.MessageID]
		if !ok {
			return
		}
		delete(r.messages, ev.MessageID)
		text := wordwrap.WrapString(b.String(), wrapWidth)
		narrationColor.Fprintln(r.out, text)
	}
}

func (r *StreamRenderer) renderRun(ev *entity.PlanEvent) {
	if ev.Run == nil {
		return
	}
	r.lastRun = ev.Run
	statusColor.Fprintf(r.out, "[run %s] %s\n", ev.Run.ID, ev.Run.Status)
}

// LastRun returns the most recent run snapshot seen on the stream, or nil.
func (r *StreamRenderer) LastRun() *entity.Run { return r.lastRun }

// Summary prints the final per-step outcome table after the stream ends.
func (r *StreamRenderer) Summary() {
	if r.lastRun == nil {
		return
	}
	fmt.Fprintln(r.out)
	for _, step := range r.lastRun.Steps {
		fmt.Fprintf(r.out, "  %-12s %-24s %s\n", step.ID, step.Call.Name, step.Status)
	}
}
