package replay

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
	"github.com/willclark/traceplay/pkg/visual"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testTrace is two frames: bind, one state change and a draw, swap, then a
// second draw and swap.
func testTrace() *trace.Trace {
	return &trace.Trace{Events: []trace.Event{
		{ID: 1, Name: "eglMakeCurrent", Type: trace.ContextBind, Args: trace.Args{"context": 1, "api": "gles2"}},
		{ID: 2, Name: "glClearColor", Type: trace.StateChange, Args: trace.Args{"key": "clear_color", "value": "#000000"}},
		{ID: 3, Name: "glDrawArrays", Type: trace.DrawCall, Args: trace.Args{"count": 3}},
		{ID: 4, Name: "eglSwapBuffers", Type: trace.FrameEnd},
		{ID: 5, Name: "glDrawArrays", Type: trace.DrawCall, Args: trace.Args{"count": 6}},
		{ID: 6, Name: "eglSwapBuffers", Type: trace.FrameEnd},
	}}
}

func newTestPlayer(t *testing.T, opts ...Option) *Player {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	p := NewPlayer(opts...)
	if err := p.LoadTrace(testTrace()); err != nil {
		t.Fatalf("Unexpected error loading trace: %v", err)
	}
	return p
}

func drawCount(p *Player) int {
	n, _ := p.Context().Get(DrawCountKey).(int)
	return n
}

func TestStepExecutesEvents(t *testing.T) {
	p := newTestPlayer(t)

	if p.CurrentIndex() != -1 {
		t.Errorf("Expected index -1 before the first step, got %d", p.CurrentIndex())
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Unexpected error stepping: %v", err)
	}
	if p.Context() == nil {
		t.Fatal("Expected a bound context after the bind event")
	}
	if p.Context().API != "gles2" {
		t.Errorf("Expected gles2 context, got %s", p.Context().API)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Unexpected error stepping: %v", err)
	}
	if got := p.Context().Get("clear_color"); got != "#000000" {
		t.Errorf("Expected state change applied, got %v", got)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Unexpected error stepping: %v", err)
	}
	if got := drawCount(p); got != 1 {
		t.Errorf("Expected 1 executed draw, got %d", got)
	}
}

func TestStepPastEndOfTrace(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.ReplayForward(); err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}
	if err := p.Step(); !errors.Is(err, ErrEndOfTrace) {
		t.Errorf("Expected ErrEndOfTrace, got %v", err)
	}
}

func TestFrameAndSubStepTracking(t *testing.T) {
	p := newTestPlayer(t)

	steps := []struct {
		frame   int
		subStep int
	}{
		{0, 0}, // bind
		{0, 1}, // state change
		{0, 2}, // draw
		{0, 3}, // swap
		{1, 0}, // draw
		{1, 1}, // swap
	}
	for i, want := range steps {
		if err := p.Step(); err != nil {
			t.Fatalf("Unexpected error on step %d: %v", i, err)
		}
		if p.CurrentFrame() != want.frame {
			t.Errorf("Step %d: expected frame %d, got %d", i, want.frame, p.CurrentFrame())
		}
		if p.CurrentSubStep() != want.subStep {
			t.Errorf("Step %d: expected sub-step %d, got %d", i, want.subStep, p.CurrentSubStep())
		}
	}
}

func TestPreExecutePostOrdering(t *testing.T) {
	p := newTestPlayer(t)

	var order []string
	var preDraws, postDraws []int
	aug := augFunc(func(r visual.Registrar) error {
		return r.RegisterMutator("glDrawArrays", visual.Mutator{
			Pre: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) {
				order = append(order, "pre")
				n, _ := ctx.Get(DrawCountKey).(int)
				preDraws = append(preDraws, n)
			},
			Post: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) {
				order = append(order, "post")
				n, _ := ctx.Get(DrawCountKey).(int)
				postDraws = append(postDraws, n)
			},
		})
	})

	v, err := visual.New(p, visual.Table{}, aug)
	if err != nil {
		t.Fatalf("Unexpected error constructing visualizer: %v", err)
	}
	v.SetActive(true)
	p.Attach(v)

	if err := p.ReplayForward(); err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}

	if len(order) != 4 {
		t.Fatalf("Expected 4 invocations for 2 draws, got %d", len(order))
	}
	for i := 0; i < len(order); i += 2 {
		if order[i] != "pre" || order[i+1] != "post" {
			t.Fatalf("Expected pre/post alternation, got %v", order)
		}
	}

	// The pre callback runs before the draw executes, post after.
	if preDraws[0] != 0 || postDraws[0] != 1 {
		t.Errorf("Expected first draw to go 0 -> 1, got %d -> %d", preDraws[0], postDraws[0])
	}
	if preDraws[1] != 1 || postDraws[1] != 2 {
		t.Errorf("Expected second draw to go 1 -> 2, got %d -> %d", preDraws[1], postDraws[1])
	}
}

func TestInactiveVisualizerSeesNothing(t *testing.T) {
	p := newTestPlayer(t)

	invoked := 0
	aug := augFunc(func(r visual.Registrar) error {
		return r.RegisterMutator("glDrawArrays", visual.Mutator{
			Post: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) { invoked++ },
		})
	})
	v, err := visual.New(p, visual.Table{}, aug)
	if err != nil {
		t.Fatalf("Unexpected error constructing visualizer: %v", err)
	}
	p.Attach(v)

	if err := p.ReplayForward(); err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}
	if invoked != 0 {
		t.Errorf("Expected no invocations on an inactive visualizer, got %d", invoked)
	}
}

func TestReplayUntil(t *testing.T) {
	p := newTestPlayer(t)

	err := p.ReplayUntil(func(e trace.Event) bool {
		return e.Name == "glDrawArrays"
	})
	if err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}

	// The breakpoint event itself stays unexecuted.
	if p.CurrentIndex() != 1 {
		t.Errorf("Expected to stop at index 1, got %d", p.CurrentIndex())
	}
	if got := drawCount(p); got != 0 {
		t.Errorf("Expected 0 executed draws at the breakpoint, got %d", got)
	}
}

func TestStepBackward(t *testing.T) {
	p := newTestPlayer(t, WithCheckpointInterval(2))

	if err := p.ReplayForward(); err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}
	if p.CurrentIndex() != 5 {
		t.Fatalf("Expected index 5 after replay, got %d", p.CurrentIndex())
	}

	if err := p.StepBackward(); err != nil {
		t.Fatalf("Unexpected error stepping backward: %v", err)
	}
	if p.CurrentIndex() != 4 {
		t.Errorf("Expected index 4, got %d", p.CurrentIndex())
	}
	if got := drawCount(p); got != 2 {
		t.Errorf("Expected 2 draws at index 4, got %d", got)
	}

	if err := p.StepBackward(); err != nil {
		t.Fatalf("Unexpected error stepping backward: %v", err)
	}
	if err := p.StepBackward(); err != nil {
		t.Fatalf("Unexpected error stepping backward: %v", err)
	}
	if p.CurrentIndex() != 2 {
		t.Errorf("Expected index 2, got %d", p.CurrentIndex())
	}
	if got := drawCount(p); got != 1 {
		t.Errorf("Expected 1 draw at index 2, got %d", got)
	}
}

func TestStepBackwardAtBeginning(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.StepBackward(); err == nil {
		t.Error("Expected an error stepping backward before the first event")
	}
}

func TestBackstepDoesNotRedispatch(t *testing.T) {
	p := newTestPlayer(t, WithCheckpointInterval(2))

	invoked := 0
	aug := augFunc(func(r visual.Registrar) error {
		return r.RegisterMutator("glDrawArrays", visual.Mutator{
			Post: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) { invoked++ },
		})
	})
	v, err := visual.New(p, visual.Table{}, aug)
	if err != nil {
		t.Fatalf("Unexpected error constructing visualizer: %v", err)
	}
	v.SetActive(true)
	p.Attach(v)

	if err := p.ReplayForward(); err != nil {
		t.Fatalf("Unexpected error replaying: %v", err)
	}
	if invoked != 2 {
		t.Fatalf("Expected 2 invocations after forward replay, got %d", invoked)
	}

	// State rebuilding during a backward seek is not replay.
	if err := p.SeekToIndex(0); err != nil {
		t.Fatalf("Unexpected error seeking: %v", err)
	}
	if invoked != 2 {
		t.Errorf("Expected no re-dispatch on backward seek, got %d invocations", invoked)
	}
	if got := drawCount(p); got != 0 {
		t.Errorf("Expected 0 draws at index 0, got %d", got)
	}
}

func TestSeekForwardDispatches(t *testing.T) {
	p := newTestPlayer(t)

	invoked := 0
	aug := augFunc(func(r visual.Registrar) error {
		return r.RegisterMutator("glDrawArrays", visual.Mutator{
			Pre: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) { invoked++ },
		})
	})
	v, err := visual.New(p, visual.Table{}, aug)
	if err != nil {
		t.Fatalf("Unexpected error constructing visualizer: %v", err)
	}
	v.SetActive(true)
	p.Attach(v)

	if err := p.SeekToIndex(2); err != nil {
		t.Fatalf("Unexpected error seeking: %v", err)
	}
	if invoked != 1 {
		t.Errorf("Expected 1 invocation seeking over the first draw, got %d", invoked)
	}
}

func TestContextUnbind(t *testing.T) {
	tr := &trace.Trace{Events: []trace.Event{
		{ID: 1, Name: "eglMakeCurrent", Type: trace.ContextBind, Args: trace.Args{"context": 1, "api": "gles2"}},
		{ID: 2, Name: "eglMakeCurrent", Type: trace.ContextBind, Args: trace.Args{"context": 0}},
	}}
	p := NewPlayer(WithLogger(quietLogger()))
	if err := p.LoadTrace(tr); err != nil {
		t.Fatalf("Unexpected error loading trace: %v", err)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Unexpected error stepping: %v", err)
	}
	if p.Context() == nil {
		t.Fatal("Expected a bound context")
	}
	if err := p.Step(); err != nil {
		t.Fatalf("Unexpected error stepping: %v", err)
	}
	if p.Context() != nil {
		t.Error("Expected no bound context after unbind")
	}
}

// augFunc adapts a function to visual.Augmentation.
type augFunc func(r visual.Registrar) error

func (f augFunc) Configure(r visual.Registrar) error { return f(r) }
