// Package visual implements the mutator registry that lets augmentations
// observe and mutate trace events as the player replays them. Each
// Visualizer owns a name-keyed table of pre/post callbacks, seeded from a
// default table at construction; the player dispatches into it around every
// event it executes.
package visual

import (
	"errors"
	"fmt"

	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
)

// ErrDuplicateMutator is returned when a mutator is registered under a name
// already present in the instance's registry. Duplicate registration is a
// setup-time programming error and is never silently accepted.
var ErrDuplicateMutator = errors.New("mutator already registered")

// CurrentSubStep asks ApplyToSubStep to target the player's current
// sub-step rather than a specific index.
const CurrentSubStep = -1

// MutatorFunc is one half of a mutator: it runs with the owning visualizer,
// the bound rendering context (possibly nil), and the argument bundle of the
// event being replayed. Whatever it does is a side effect; panics propagate
// to the player unmodified.
type MutatorFunc func(v *Visualizer, ctx *gfx.Context, args trace.Args)

// Mutator pairs the optional callbacks dispatched around one event name.
// Pre runs before the event executes, Post after. Either may be nil.
type Mutator struct {
	Pre  MutatorFunc
	Post MutatorFunc
}

// Registrar is the registration capability handed to augmentations while
// they configure themselves.
type Registrar interface {
	RegisterMutator(name string, m Mutator) error
}

// Augmentation is implemented by each concrete visualization. Configure is
// called exactly once, during construction of the owning Visualizer, after
// the registry has been seeded from the default table.
type Augmentation interface {
	Configure(r Registrar) error
}

// SubStepApplier is optionally implemented by augmentations that re-apply
// visualization state when the player moves to a sub-step inside the
// current frame.
type SubStepApplier interface {
	ApplyToSubStep(v *Visualizer, idx int)
}

// Driver is the visualizer's read-only view of the playback driver it
// augments. The visualizer never controls the driver's lifecycle.
type Driver interface {
	CurrentIndex() int
	CurrentFrame() int
}

// Cursor references the event currently being replayed.
type Cursor interface {
	EventName() string
	EventArgs() trace.Args
}

// Visualizer dispatches registered mutators around replayed events. It is
// inert until activated; while inactive every dispatch call returns
// immediately without touching the registry.
type Visualizer struct {
	driver   Driver
	mutators map[string]Mutator
	augs     []Augmentation
	active   bool
}

// New builds a Visualizer for the given driver. The registry starts as a
// copy of defaults, so instances built from the same table stay independent.
// Each augmentation's Configure runs once, in order; a registration error
// aborts construction.
func New(driver Driver, defaults Table, augs ...Augmentation) (*Visualizer, error) {
	v := &Visualizer{
		driver:   driver,
		mutators: defaults.Clone(),
		augs:     augs,
	}
	for _, a := range augs {
		if err := a.Configure(v); err != nil {
			return nil, fmt.Errorf("configuring %T: %w", a, err)
		}
	}
	return v, nil
}

// RegisterMutator inserts a mutator under name. It fails with
// ErrDuplicateMutator if the name is already taken in this instance,
// regardless of whether the values match; there are no merge semantics.
func (v *Visualizer) RegisterMutator(name string, m Mutator) error {
	if name == "" {
		return errors.New("empty mutator name")
	}
	if _, ok := v.mutators[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMutator, name)
	}
	v.mutators[name] = m
	return nil
}

// Mutator returns the mutator registered under name, if any.
func (v *Visualizer) Mutator(name string) (Mutator, bool) {
	m, ok := v.mutators[name]
	return m, ok
}

// Driver returns the playback driver this visualizer augments.
func (v *Visualizer) Driver() Driver {
	return v.driver
}

// Active reports whether dispatch is enabled.
func (v *Visualizer) Active() bool {
	return v.active
}

// SetActive toggles dispatch. Toggling has no side effects of its own; it
// only gates future HandlePreEvent/HandlePostEvent calls.
func (v *Visualizer) SetActive(active bool) {
	v.active = active
}

// HandlePreEvent is called by the player immediately before it executes the
// event under cur. While inactive it does nothing at all.
func (v *Visualizer) HandlePreEvent(cur Cursor, ctx *gfx.Context) {
	if !v.active {
		return
	}
	if m, ok := v.mutators[cur.EventName()]; ok && m.Pre != nil {
		m.Pre(v, ctx, cur.EventArgs())
	}
}

// HandlePostEvent is called by the player immediately after it executes the
// event under cur.
func (v *Visualizer) HandlePostEvent(cur Cursor, ctx *gfx.Context) {
	if !v.active {
		return
	}
	if m, ok := v.mutators[cur.EventName()]; ok && m.Post != nil {
		m.Post(v, ctx, cur.EventArgs())
	}
}

// ApplyToSubStep forwards a sub-step transition to every augmentation that
// cares about it. Pass CurrentSubStep to target the current sub-step. The
// visualizer itself has no sub-step behavior.
func (v *Visualizer) ApplyToSubStep(idx int) {
	for _, a := range v.augs {
		if applier, ok := a.(SubStepApplier); ok {
			applier.ApplyToSubStep(v, idx)
		}
	}
}
