package intern

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time snapshot of a table's counters. Live counts the
// handles currently held, dead but not yet pruned handles included.
type Stats struct {
	Registered uint64
	Deduped    uint64
	Collisions uint64
	Removed    uint64
	Live       int
}

// statsSource decouples metric collection from the table's type parameter.
type statsSource interface {
	Stats() Stats
}

func registerMetrics(reg prometheus.Registerer, kind string, src statsSource) {
	labels := prometheus.Labels{"kind": kind}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "intern",
			Name:        "registrations_total",
			Help:        "Candidates adopted as new canonical instances.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Stats().Registered) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "intern",
			Name:        "dedup_hits_total",
			Help:        "Candidates discarded in favor of an existing canonical.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Stats().Deduped) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "intern",
			Name:        "key_collisions_total",
			Help:        "Registrations that joined a bucket already holding live content-unequal entries.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Stats().Collisions) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "intern",
			Name:        "removals_total",
			Help:        "Entries removed after their referent's last owner released it.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Stats().Removed) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "intern",
			Name:        "live_entries",
			Help:        "Handles currently in the table, unpruned dead handles included.",
			ConstLabels: labels,
		}, func() float64 { return float64(src.Stats().Live) }),
	)
}
