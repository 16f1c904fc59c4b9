// Package replay drives playback of a recorded trace. The Player executes
// events one at a time against the bound rendering context and dispatches
// attached visualizers before and after each one.
package replay

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
	"github.com/willclark/traceplay/pkg/visual"
)

// DrawCountKey is the context state key holding the number of draw calls
// executed against that context.
const DrawCountKey = "traceplay.draw_calls"

// ErrEndOfTrace is returned by Step when every event has been executed.
var ErrEndOfTrace = errors.New("end of trace")

const (
	// DefaultCheckpointInterval is how many events pass between checkpoints.
	DefaultCheckpointInterval = 64
	// DefaultCheckpointCacheSize bounds how many checkpoints are retained.
	DefaultCheckpointCacheSize = 32
)

// Player replays a loaded trace one event at a time. It owns trace
// iteration and the rendering contexts; visualizers attached to it observe
// and mutate events through their pre/post mutators.
//
// The Player is single-threaded: one control flow advances one event at a
// time, and mutators run to completion inside Step.
type Player struct {
	log *logrus.Logger

	tr         *trace.Trace
	currentIdx int

	ctx      *gfx.Context
	contexts map[int64]*gfx.Context

	visualizers []*visual.Visualizer

	checkpoints        *lru.Cache
	checkpointInterval int
}

// Option configures a Player.
type Option func(*Player)

// WithCheckpointInterval sets how many events pass between checkpoints.
// An interval of 0 disables checkpointing.
func WithCheckpointInterval(n int) Option {
	return func(p *Player) { p.checkpointInterval = n }
}

// WithLogger sets the player's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(p *Player) { p.log = log }
}

// NewPlayer creates a player with no trace loaded.
func NewPlayer(opts ...Option) *Player {
	cache, _ := lru.New(DefaultCheckpointCacheSize)
	p := &Player{
		log:                logrus.StandardLogger(),
		currentIdx:         -1,
		contexts:           make(map[int64]*gfx.Context),
		checkpoints:        cache,
		checkpointInterval: DefaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadTrace loads the given trace and resets playback to the beginning.
func (p *Player) LoadTrace(tr *trace.Trace) error {
	if tr == nil {
		return errors.New("nil trace")
	}
	p.tr = tr
	p.reset()
	p.checkpoints.Purge()
	return nil
}

// Attach adds a visualizer to the dispatch list. Attached visualizers stay
// inert until their active flag is switched on.
func (p *Player) Attach(v *visual.Visualizer) {
	p.visualizers = append(p.visualizers, v)
}

// Visualizers returns the attached visualizers.
func (p *Player) Visualizers() []*visual.Visualizer {
	return p.visualizers
}

// Events returns the events of the loaded trace.
func (p *Player) Events() []trace.Event {
	if p.tr == nil {
		return nil
	}
	return p.tr.Events
}

// CurrentIndex returns the index of the last executed event, -1 before the
// first step.
func (p *Player) CurrentIndex() int {
	return p.currentIdx
}

// CurrentFrame returns the frame index of the last executed event.
func (p *Player) CurrentFrame() int {
	if p.tr == nil || p.currentIdx < 0 {
		return 0
	}
	f, _ := p.tr.FrameAt(p.currentIdx)
	return f.Index
}

// CurrentSubStep returns the offset of the last executed event within its
// frame, -1 before the first step.
func (p *Player) CurrentSubStep() int {
	if p.tr == nil || p.currentIdx < 0 {
		return -1
	}
	_, sub := p.tr.FrameAt(p.currentIdx)
	return sub
}

// Context returns the bound rendering context, nil if none is bound.
func (p *Player) Context() *gfx.Context {
	return p.ctx
}

// Step executes exactly one event: pre mutators, then the event itself,
// then post mutators, then a sub-step notification. Returns ErrEndOfTrace
// when there is nothing left to execute.
func (p *Player) Step() error {
	if p.tr == nil {
		return errors.New("no trace loaded")
	}
	idx := p.currentIdx + 1
	if idx >= len(p.tr.Events) {
		return ErrEndOfTrace
	}

	e := &p.tr.Events[idx]
	cur := &Cursor{event: e, index: idx}

	for _, v := range p.visualizers {
		v.HandlePreEvent(cur, p.ctx)
	}

	p.execute(e)
	p.currentIdx = idx

	for _, v := range p.visualizers {
		v.HandlePostEvent(cur, p.ctx)
	}

	p.log.WithFields(logrus.Fields{
		"index": idx,
		"event": e.Name,
		"type":  e.Type.String(),
	}).Debug("executed event")

	if p.checkpointInterval > 0 && (idx+1)%p.checkpointInterval == 0 {
		p.checkpoints.Add(idx, newCheckpoint(idx, p.ctx, p.contexts))
	}

	sub := p.CurrentSubStep()
	for _, v := range p.visualizers {
		v.ApplyToSubStep(sub)
	}
	return nil
}

// ReplayForward replays all remaining events.
func (p *Player) ReplayForward() error {
	return p.ReplayUntil(nil)
}

// ReplayUntil replays events until check returns true for the next event,
// which is left unexecuted. A nil check replays to the end of the trace.
func (p *Player) ReplayUntil(check func(trace.Event) bool) error {
	if p.tr == nil {
		return errors.New("no trace loaded")
	}
	for p.currentIdx+1 < len(p.tr.Events) {
		next := p.tr.Events[p.currentIdx+1]
		if check != nil && check(next) {
			p.log.WithField("index", p.currentIdx+1).Info("breakpoint hit")
			return nil
		}
		if err := p.Step(); err != nil {
			return err
		}
	}
	p.log.Info("replay complete")
	return nil
}

// StepBackward moves one event backward by restoring the nearest checkpoint
// and silently re-executing forward. Mutators are not re-dispatched for
// events that were already replayed; state rebuilding is not replay.
func (p *Player) StepBackward() error {
	if p.currentIdx < 0 {
		return fmt.Errorf("already at the beginning")
	}
	return p.SeekToIndex(p.currentIdx - 1)
}

// SeekToIndex moves playback so the event at idx is the last executed one.
// Seeking forward replays the intervening events with full mutator
// dispatch; seeking backward rebuilds state without dispatch. An idx of -1
// rewinds to the beginning.
func (p *Player) SeekToIndex(idx int) error {
	if p.tr == nil {
		return errors.New("no trace loaded")
	}
	if idx < -1 || idx >= len(p.tr.Events) {
		return fmt.Errorf("index %d out of range", idx)
	}

	if idx > p.currentIdx {
		for p.currentIdx < idx {
			if err := p.Step(); err != nil {
				return err
			}
		}
		return nil
	}
	if idx == p.currentIdx {
		return nil
	}

	p.restoreTo(idx)

	sub := p.CurrentSubStep()
	for _, v := range p.visualizers {
		v.ApplyToSubStep(sub)
	}
	return nil
}

// restoreTo rebuilds rendering state up to and including the event at idx,
// starting from the nearest retained checkpoint at or before it.
func (p *Player) restoreTo(idx int) {
	start := 0
	if cp := p.nearestCheckpoint(idx); cp != nil {
		p.restoreCheckpoint(cp)
		start = cp.EventIdx + 1
	} else {
		p.reset()
	}
	for i := start; i <= idx; i++ {
		p.execute(&p.tr.Events[i])
	}
	p.currentIdx = idx
}

// nearestCheckpoint returns the retained checkpoint with the highest event
// index not past idx, or nil.
func (p *Player) nearestCheckpoint(idx int) *Checkpoint {
	var best *Checkpoint
	for _, key := range p.checkpoints.Keys() {
		eventIdx, ok := key.(int)
		if !ok || eventIdx > idx {
			continue
		}
		if best != nil && eventIdx <= best.EventIdx {
			continue
		}
		if value, ok := p.checkpoints.Get(key); ok {
			best = value.(*Checkpoint)
		}
	}
	return best
}

// restoreCheckpoint replaces the player's contexts with clones of the
// checkpoint's, so later mutation never touches the cached copy.
func (p *Player) restoreCheckpoint(cp *Checkpoint) {
	p.contexts = make(map[int64]*gfx.Context, len(cp.Contexts))
	p.ctx = nil
	for id, c := range cp.Contexts {
		clone := gfx.NewContext(c.ID, c.API)
		clone.State = c.CloneState()
		p.contexts[id] = clone
		if id == cp.Bound {
			p.ctx = clone
		}
	}
}

// reset returns playback to the state before any event executed.
func (p *Player) reset() {
	p.currentIdx = -1
	p.ctx = nil
	p.contexts = make(map[int64]*gfx.Context)
}

// execute applies one event to the rendering state. "Executing" means
// interpreting the event against the context state holder; there is no
// real GPU behind it.
func (p *Player) execute(e *trace.Event) {
	switch e.Type {
	case trace.ContextBind:
		id := argInt64(e.Args, "context")
		if id == 0 {
			p.ctx = nil
			return
		}
		c, ok := p.contexts[id]
		if !ok {
			c = gfx.NewContext(id, argString(e.Args, "api"))
			p.contexts[id] = c
		}
		p.ctx = c
	case trace.StateChange:
		p.ctx.Set(argString(e.Args, "key"), e.Args["value"])
	case trace.DrawCall:
		n, _ := p.ctx.Get(DrawCountKey).(int)
		p.ctx.Set(DrawCountKey, n+1)
	case trace.FrameEnd, trace.Call:
		// no state effect
	}
}

// argInt64 reads an integer argument, tolerating the float64 form JSON
// decoding produces.
func argInt64(args trace.Args, key string) int64 {
	switch v := args[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func argString(args trace.Args, key string) string {
	s, _ := args[key].(string)
	return s
}
