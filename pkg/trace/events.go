package trace

import "fmt"

type EventType int

const (
	Call EventType = iota
	DrawCall
	StateChange
	FrameEnd
	ContextBind
	// ... add more as needed
)

// Args is the argument bundle recorded with one event.
type Args map[string]any

// Event is a single recorded API call: a name plus its argument bundle.
type Event struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Type   EventType `json:"type"`
	Args   Args      `json:"args,omitempty"`
	Thread int64     `json:"thread,omitempty"`
}

// String returns the string representation of the EventType
func (et EventType) String() string {
	switch et {
	case Call:
		return "Call"
	case DrawCall:
		return "DrawCall"
	case StateChange:
		return "StateChange"
	case FrameEnd:
		return "FrameEnd"
	case ContextBind:
		return "ContextBind"
	default:
		return "Unknown"
	}
}

// String returns a short human-readable form of the event.
func (e Event) String() string {
	return fmt.Sprintf("[%d] %s %s", e.ID, e.Type, e.Name)
}
