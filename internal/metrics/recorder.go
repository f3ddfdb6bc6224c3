// Package metrics exposes skeleton pass and job counters to Prometheus and
// keeps a rolling latency window for the stats endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements skeleton.Observer.
type Recorder struct {
	registry *prometheus.Registry

	passes       prometheus.Counter
	nodes        *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	cacheHits    prometheus.Counter
	passDuration prometheus.Histogram
	jobs         *prometheus.CounterVec

	latency *LatencyStats
}

var _ skeleton.Observer = (*Recorder)(nil)

// NewRecorder registers the collectors on a private registry. window is the
// span kept by Latency.
func NewRecorder(window time.Duration) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skelgen_passes_total",
			Help: "Total number of skeleton passes",
		}),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skelgen_nodes_total",
				Help: "Nodes visited by skeleton passes, by classification",
			},
			[]string{"kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skelgen_fallbacks_total",
				Help: "Subtrees passed through after a failed transform, by stage",
			},
			[]string{"stage"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skelgen_cache_hits_total",
			Help: "Shared subtrees answered from the pass cache",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skelgen_pass_duration_seconds",
			Help:    "Duration of skeleton passes",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skelgen_jobs_total",
				Help: "Finished jobs, by final status",
			},
			[]string{"status"},
		),
		latency: NewLatencyStats(window),
	}
	r.registry.MustRegister(r.passes, r.nodes, r.fallbacks, r.cacheHits, r.passDuration, r.jobs)
	return r
}

func (r *Recorder) ObservePass(stats skeleton.Stats, elapsed time.Duration) {
	r.passes.Inc()
	for kind, n := range map[string]int{
		"text":        stats.Text,
		"image":       stats.Images,
		"placeholder": stats.Placeholders,
		"container":   stats.Containers,
		"fragment":    stats.Fragments,
		"list":        stats.Lists,
		"opaque":      stats.Opaque,
		"passthrough": stats.Passthrough,
	} {
		if n > 0 {
			r.nodes.WithLabelValues(kind).Add(float64(n))
		}
	}
	if stats.ChildFallbacks > 0 {
		r.fallbacks.WithLabelValues(skeleton.StageChildren.String()).Add(float64(stats.ChildFallbacks))
	}
	if stats.RebuildFallbacks > 0 {
		r.fallbacks.WithLabelValues(skeleton.StageRebuild.String()).Add(float64(stats.RebuildFallbacks))
	}
	if stats.CacheHits > 0 {
		r.cacheHits.Add(float64(stats.CacheHits))
	}
	r.passDuration.Observe(elapsed.Seconds())
	r.latency.Record(elapsed)
}

// JobFinished counts a job reaching a final status.
func (r *Recorder) JobFinished(status string) {
	r.jobs.WithLabelValues(status).Inc()
}

// Latency returns the rolling pass latency window.
func (r *Recorder) Latency() *LatencyStats { return r.latency }

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
