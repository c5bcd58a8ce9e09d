// Package cachemetrics exports cache events as Prometheus metrics.
package cachemetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

// Observer implements cache.Observer with Prometheus counters.
type Observer struct {
	reg           prometheus.Registerer
	namespace     string
	hits          *prometheus.CounterVec
	misses        prometheus.Counter
	expired       *prometheus.CounterVec
	durableErrors *prometheus.CounterVec
	preloads      *prometheus.CounterVec
	swept         prometheus.Counter
}

// New registers the cache metrics on reg under namespace.
// It panics if the metrics are already registered on reg.
func New(reg prometheus.Registerer, namespace string) *Observer {
	f := promauto.With(reg)

	return &Observer{
		reg:       reg,
		namespace: namespace,
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache reads served, by tier.",
		}, []string{"tier"}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads with no live entry in any tier.",
		}),
		expired: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expired_total",
			Help:      "Stale entries purged on access, by tier.",
		}, []string{"tier"}),
		durableErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "durable_errors_total",
			Help:      "Failed durable tier operations, by operation.",
		}, []string{"op"}),
		preloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "preloads_total",
			Help:      "Finished background preloads, by result.",
		}, []string{"result"}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "swept_entries_total",
			Help:      "Expired entries removed by cleanup.",
		}),
	}
}

func (o *Observer) Hit(tier cache.Tier) { o.hits.WithLabelValues(string(tier)).Inc() }

func (o *Observer) Miss() { o.misses.Inc() }

func (o *Observer) Expired(tier cache.Tier) { o.expired.WithLabelValues(string(tier)).Inc() }

func (o *Observer) DurableError(op string) { o.durableErrors.WithLabelValues(op).Inc() }

func (o *Observer) Preloaded(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.preloads.WithLabelValues(result).Inc()
}

func (o *Observer) Swept(removed int) {
	if removed > 0 {
		o.swept.Add(float64(removed))
	}
}

// TrackStats exports the fast tier size and approximate footprint of a
// manager as gauges, read on every scrape.
func (o *Observer) TrackStats(stats func() cache.Stats) {
	f := promauto.With(o.reg)

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: o.namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Entries held by the fast tier, including unswept expired ones.",
	}, func() float64 { return float64(stats().Size) })

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: o.namespace,
		Subsystem: "cache",
		Name:      "approx_bytes",
		Help:      "Approximate fast tier footprint in bytes.",
	}, func() float64 { return float64(stats().ApproxBytes) })
}

var _ cache.Observer = (*Observer)(nil)
