package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrMetricsRegistration = errors.New("metrics registration failed")

const (
	ComponentTrivial = "trivial"
	ComponentScored  = "scored"
)

// Collector bundles the Prometheus metrics of one run. A nil *Collector is
// valid and records nothing, so callers never need to check.
type Collector struct {
	registry *prometheus.Registry

	Reconstructions   prometheus.Counter
	SkippedCandidates prometheus.Counter
	Labelings         prometheus.Counter
	Components        *prometheus.CounterVec
	MatchedPairs      prometheus.Counter
	Unmatched         prometheus.Counter
	ReconstructTime   prometheus.Histogram
}

// Registers the run metrics against a fresh registry
func NewCollector() (*Collector, error) {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Reconstructions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phyloadj_reconstructions_total",
			Help: "Ancestral reconstructions performed while scoring candidate adjacencies.",
		}),
		SkippedCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phyloadj_skipped_candidates_total",
			Help: "Candidate adjacencies skipped because no labeled leaf survived pruning.",
		}),
		Labelings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phyloadj_labelings_total",
			Help: "Fully resolved ancestral labelings enumerated.",
		}),
		Components: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phyloadj_components_total",
			Help: "Breakpoint graph components processed, labeled by kind (trivial or scored).",
		}, []string{"kind"}),
		MatchedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phyloadj_matched_pairs_total",
			Help: "Adjacencies chosen by the matching.",
		}),
		Unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phyloadj_unmatched_extremities_total",
			Help: "Extremities left without an adjacency.",
		}),
		ReconstructTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phyloadj_reconstruction_duration_seconds",
			Help:    "Latency of a single ancestral reconstruction.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}
	for _, m := range []prometheus.Collector{
		c.Reconstructions, c.SkippedCandidates, c.Labelings, c.Components,
		c.MatchedPairs, c.Unmatched, c.ReconstructTime,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMetricsRegistration, err)
		}
	}
	return c, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// Records one reconstruction; skipped is true when it pruned to nothing
func (c *Collector) ObserveReconstruction(seconds float64, labelings uint64, skipped bool) {
	if c == nil {
		return
	}
	c.Reconstructions.Inc()
	c.ReconstructTime.Observe(seconds)
	c.Labelings.Add(float64(labelings))
	if skipped {
		c.SkippedCandidates.Inc()
	}
}

func (c *Collector) ObserveComponent(kind string, nodes, pairs int) {
	if c == nil {
		return
	}
	c.Components.WithLabelValues(kind).Inc()
	c.MatchedPairs.Add(float64(pairs))
	c.Unmatched.Add(float64(nodes - 2*pairs))
}

// Writes the metrics in the Prometheus text format to filename (the
// node_exporter textfile collector layout)
func (c *Collector) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, c.Gatherer()); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", filename, err)
	}
	return nil
}
