package trace

// Trace holds the ordered events of one recorded session.
type Trace struct {
	Events []Event
}

// Frame is a contiguous run of events ending with (and including) a
// FrameEnd delimiter. The last frame of a trace may lack the delimiter.
type Frame struct {
	Index int
	Start int // index of the first event in Trace.Events
	End   int // index one past the last event
}

// Len returns the number of events in the trace.
func (t *Trace) Len() int {
	return len(t.Events)
}

// Frames splits the trace on FrameEnd delimiters.
func (t *Trace) Frames() []Frame {
	var frames []Frame
	start := 0
	for i, e := range t.Events {
		if e.Type == FrameEnd {
			frames = append(frames, Frame{Index: len(frames), Start: start, End: i + 1})
			start = i + 1
		}
	}
	if start < len(t.Events) {
		frames = append(frames, Frame{Index: len(frames), Start: start, End: len(t.Events)})
	}
	return frames
}

// FrameAt returns the frame containing the event at idx and the event's
// offset within that frame. The offset is the sub-step position used by
// visualizers that re-render partial frames.
func (t *Trace) FrameAt(idx int) (Frame, int) {
	for _, f := range t.Frames() {
		if idx >= f.Start && idx < f.End {
			return f, idx - f.Start
		}
	}
	return Frame{}, 0
}

// CallNames returns the distinct event names in the trace, with counts.
func (t *Trace) CallNames() map[string]int {
	counts := make(map[string]int)
	for _, e := range t.Events {
		counts[e.Name]++
	}
	return counts
}
