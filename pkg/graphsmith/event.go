package graphsmith

import "context"

// EventType discriminates progress events.
type EventType string

// Event types.
const (
	// EventProgress is emitted once per stage on entry.
	EventProgress EventType = "progress"

	// EventChunk carries partial graph text during structure synthesis.
	// The final chunk of a synthesis has Done set.
	EventChunk EventType = "chunk"
)

// Event is one progress notification delivered to the caller's channel.
type Event struct {
	Type EventType `json:"type"`

	// Set on progress events.
	StepName   string `json:"stepName,omitempty"`
	StepNumber int    `json:"stepNumber,omitempty"`
	TotalSteps int    `json:"totalSteps,omitempty"`

	// Set on chunk events. Content is partial text; on the final chunk
	// Done is true and Content holds the complete accumulated text.
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// emit delivers an event to ch, giving up if the run is cancelled.
// A nil channel drops the event.
func emit(ctx context.Context, ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
