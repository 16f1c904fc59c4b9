package replay

import "github.com/willclark/traceplay/pkg/trace"

// Cursor references the event the player is about to execute or has just
// executed. It is what visualizer dispatch receives.
type Cursor struct {
	event *trace.Event
	index int
}

// EventName returns the name of the referenced event.
func (c *Cursor) EventName() string {
	return c.event.Name
}

// EventArgs returns the argument bundle of the referenced event.
func (c *Cursor) EventArgs() trace.Args {
	return c.event.Args
}

// Index returns the position of the referenced event in the trace.
func (c *Cursor) Index() int {
	return c.index
}

// Event returns the referenced event.
func (c *Cursor) Event() trace.Event {
	return *c.event
}
