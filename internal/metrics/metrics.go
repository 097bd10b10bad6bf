// Package metrics counts downloads and object realizations during a run and
// writes them in the Prometheus textfile format.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes.
const (
	FetchCached     = "cached"
	FetchDownloaded = "downloaded"
	FetchNotFound   = "not_found"
	FetchFailed     = "failed"
)

// Recorder holds the counters of one run. All methods are safe on a nil *Recorder.
type Recorder struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	realized *prometheus.CounterVec
	exists   *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wowdb_fetch_total",
			Help: "Table CSV lookups by outcome.",
		}, []string{"outcome"}),
		realized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wowdb_objects_realized_total",
			Help: "Tables loaded and views materialized into the store.",
		}, []string{"kind"}),
		exists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wowdb_object_exists_total",
			Help: "Realization requests for objects that were already realized.",
		}, []string{"policy", "conflict"}),
	}
	r.registry.MustRegister(r.fetches, r.realized, r.exists)
	return r
}

// Fetch records the outcome of resolving a table's CSV file.
func (r *Recorder) Fetch(outcome string) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(outcome).Inc()
}

// Realized records a newly loaded table or materialized view.
func (r *Recorder) Realized(kind string) {
	if r == nil {
		return
	}
	r.realized.WithLabelValues(kind).Inc()
}

// ObjectExists records a repeated realization request handled by policy.
func (r *Recorder) ObjectExists(policy string, conflict bool) {
	if r == nil {
		return
	}
	r.exists.WithLabelValues(policy, strconv.FormatBool(conflict)).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all counters to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
