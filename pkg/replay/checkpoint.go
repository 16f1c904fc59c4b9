package replay

import (
	"fmt"
	"time"

	"github.com/willclark/traceplay/pkg/gfx"
)

// Checkpoint captures the rendering state after a given event so the player
// can restore it and replay forward, instead of re-executing the whole
// trace on every backward step.
type Checkpoint struct {
	EventIdx  int
	Bound     int64 // ID of the bound context, 0 if none
	Contexts  map[int64]*gfx.Context
	Timestamp time.Time
}

// newCheckpoint clones the player's contexts as of eventIdx.
func newCheckpoint(eventIdx int, bound *gfx.Context, contexts map[int64]*gfx.Context) *Checkpoint {
	cp := &Checkpoint{
		EventIdx:  eventIdx,
		Contexts:  make(map[int64]*gfx.Context, len(contexts)),
		Timestamp: time.Now(),
	}
	if bound != nil {
		cp.Bound = bound.ID
	}
	for id, c := range contexts {
		clone := gfx.NewContext(c.ID, c.API)
		clone.State = c.CloneState()
		cp.Contexts[id] = clone
	}
	return cp
}

// String returns a human-readable representation of the checkpoint
func (c *Checkpoint) String() string {
	return fmt.Sprintf("Checkpoint{EventIdx: %d, Contexts: %d, Time: %s}",
		c.EventIdx, len(c.Contexts), c.Timestamp.Format(time.RFC3339))
}
