package augment

import (
	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
	"github.com/willclark/traceplay/pkg/visual"
)

// HighlightKey is the context state key the highlight color is forced into
// while a draw call executes.
const HighlightKey = "traceplay.highlight"

// drawCalls are the call names DrawHighlight wraps.
var drawCalls = []string{"glDrawArrays", "glDrawElements"}

// DrawHighlight forces a highlight color into the bound context around each
// draw call: the pre mutator saves whatever was there and installs the
// color, the post mutator restores the saved value. The executed draw sees
// the highlight; everything after it sees the original state.
type DrawHighlight struct {
	Color string

	saved    any
	hadSaved bool
}

// NewDrawHighlight highlights draws with the given color (e.g. "#ff00ff").
func NewDrawHighlight(color string) *DrawHighlight {
	return &DrawHighlight{Color: color}
}

// Configure registers the pre/post pair on each draw call.
func (h *DrawHighlight) Configure(r visual.Registrar) error {
	m := visual.Mutator{
		Pre: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) {
			h.saved = ctx.Get(HighlightKey)
			h.hadSaved = h.saved != nil
			ctx.Set(HighlightKey, h.Color)
		},
		Post: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) {
			if h.hadSaved {
				ctx.Set(HighlightKey, h.saved)
			} else {
				ctx.Delete(HighlightKey)
			}
		},
	}
	for _, name := range drawCalls {
		if err := r.RegisterMutator(name, m); err != nil {
			return err
		}
	}
	return nil
}
