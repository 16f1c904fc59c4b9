package augment

import "github.com/willclark/traceplay/pkg/visual"

// FrameOverlay re-applies its overlay when the player lands on a sub-step
// inside the current frame. The actual presentation lives outside the
// player; this records which sub-step to render up to.
type FrameOverlay struct {
	applied  int
	lastStep int
}

// NewFrameOverlay creates an overlay with no sub-step applied yet.
func NewFrameOverlay() *FrameOverlay {
	return &FrameOverlay{lastStep: visual.CurrentSubStep}
}

// Configure registers nothing; the overlay only reacts to sub-step moves.
func (o *FrameOverlay) Configure(r visual.Registrar) error {
	return nil
}

// ApplyToSubStep records the sub-step the overlay was applied at. An idx of
// visual.CurrentSubStep targets the driver's current sub-step.
func (o *FrameOverlay) ApplyToSubStep(v *visual.Visualizer, idx int) {
	o.applied++
	o.lastStep = idx
}

// Applied returns how many times the overlay was re-applied.
func (o *FrameOverlay) Applied() int {
	return o.applied
}

// LastSubStep returns the sub-step index of the most recent application.
func (o *FrameOverlay) LastSubStep() int {
	return o.lastStep
}
