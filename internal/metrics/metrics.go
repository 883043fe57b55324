// Package metrics bridges a pool's counters to Prometheus gauges, one
// series per counter labeled by pool ID, so a process hosting several
// pools (via internal/registry) can expose them all on one /metrics path.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the set of counters a pool reports to an Observer after every
// mutating operation.
type Snapshot struct {
	PoolID    string
	TotalSize int
	AllocSize int
	NumAllocs int
	NumGaps   int
}

// Observer receives a Snapshot after every allocate/release call. A pool
// with no registered Observer pays nothing beyond a nil check.
type Observer interface {
	Observe(Snapshot)
}

// Registry is a prometheus.Registerer-backed Observer.
type Registry struct {
	mu sync.Mutex

	allocSize  *prometheus.GaugeVec
	numAllocs  *prometheus.GaugeVec
	numGaps    *prometheus.GaugeVec
	totalSize  *prometheus.GaugeVec
	fragmented *prometheus.GaugeVec
}

// NewRegistry creates and registers the pool gauge vectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the process's default
// /metrics endpoint.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		allocSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regionpool",
			Name:      "alloc_size_bytes",
			Help:      "Bytes currently allocated in the pool.",
		}, []string{"pool_id"}),
		numAllocs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regionpool",
			Name:      "num_allocs",
			Help:      "Live allocation count in the pool.",
		}, []string{"pool_id"}),
		numGaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regionpool",
			Name:      "num_gaps",
			Help:      "Free gap count in the pool.",
		}, []string{"pool_id"}),
		totalSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regionpool",
			Name:      "total_size_bytes",
			Help:      "Fixed region size of the pool.",
		}, []string{"pool_id"}),
		fragmented: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regionpool",
			Name:      "fragmentation_ratio",
			Help:      "num_gaps relative to num_allocs+num_gaps.",
		}, []string{"pool_id"}),
	}

	reg.MustRegister(r.allocSize, r.numAllocs, r.numGaps, r.totalSize, r.fragmented)

	return r
}

// Observe implements Observer.
func (r *Registry) Observe(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.allocSize.WithLabelValues(s.PoolID).Set(float64(s.AllocSize))
	r.numAllocs.WithLabelValues(s.PoolID).Set(float64(s.NumAllocs))
	r.numGaps.WithLabelValues(s.PoolID).Set(float64(s.NumGaps))
	r.totalSize.WithLabelValues(s.PoolID).Set(float64(s.TotalSize))

	denom := s.NumAllocs + s.NumGaps

	ratio := 0.0
	if denom > 0 {
		ratio = float64(s.NumGaps) / float64(denom)
	}

	r.fragmented.WithLabelValues(s.PoolID).Set(ratio)
}

// Forget removes a closed pool's series so it stops being scraped.
func (r *Registry) Forget(poolID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.allocSize.DeleteLabelValues(poolID)
	r.numAllocs.DeleteLabelValues(poolID)
	r.numGaps.DeleteLabelValues(poolID)
	r.totalSize.DeleteLabelValues(poolID)
	r.fragmented.DeleteLabelValues(poolID)
}
