package visual

import (
	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
)

// State keys written by the default mutators.
const (
	FrameCountKey = "traceplay.frames"
	ViewportKey   = "traceplay.viewport"
)

// Table is a set of mutators used to seed new Visualizer instances. A table
// passed to New is never mutated by the visualizer; every instance works on
// its own clone.
type Table map[string]Mutator

// Clone returns an independent copy of the table. Registration on the copy
// never affects the original or other clones.
func (t Table) Clone() map[string]Mutator {
	clone := make(map[string]Mutator, len(t))
	for name, m := range t {
		clone[name] = m
	}
	return clone
}

// DefaultTable returns a fresh base table shared by the stock
// augmentations: a frame counter on buffer swaps and viewport tracking.
// Callers that want a blank slate pass an empty Table instead.
func DefaultTable() Table {
	return Table{
		"eglSwapBuffers": {
			Post: func(v *Visualizer, ctx *gfx.Context, args trace.Args) {
				n, _ := ctx.Get(FrameCountKey).(int)
				ctx.Set(FrameCountKey, n+1)
			},
		},
		"glViewport": {
			Post: func(v *Visualizer, ctx *gfx.Context, args trace.Args) {
				ctx.Set(ViewportKey, args)
			},
		},
	}
}
