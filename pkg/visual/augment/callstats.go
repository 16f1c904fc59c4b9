// Package augment provides the stock augmentations shipped with the player.
// Each one registers its mutators through visual.Augmentation and can be
// enabled independently from configuration.
package augment

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/willclark/traceplay/pkg/gfx"
	"github.com/willclark/traceplay/pkg/trace"
	"github.com/willclark/traceplay/pkg/visual"
)

// CallStats counts how often each watched call replays. Counting happens in
// post mutators so only calls that actually executed are counted.
type CallStats struct {
	log    *logrus.Logger
	names  []string
	counts map[string]int
}

// NewCallStats watches the given call names.
func NewCallStats(log *logrus.Logger, names ...string) *CallStats {
	return &CallStats{
		log:    log,
		names:  names,
		counts: make(map[string]int),
	}
}

// Configure registers one post mutator per watched name.
func (s *CallStats) Configure(r visual.Registrar) error {
	for _, name := range s.names {
		name := name
		err := r.RegisterMutator(name, visual.Mutator{
			Post: func(v *visual.Visualizer, ctx *gfx.Context, args trace.Args) {
				s.counts[name]++
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Count returns how many times name has replayed so far.
func (s *CallStats) Count(name string) int {
	return s.counts[name]
}

// LogSummary writes one line per watched call, in name order.
func (s *CallStats) LogSummary() {
	names := make([]string, 0, len(s.counts))
	for name := range s.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.log.WithFields(logrus.Fields{
			"call":  name,
			"count": s.counts[name],
		}).Info("call stats")
	}
}
