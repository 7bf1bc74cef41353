package perf

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Neighbours = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankd",
		Subsystem: "neighbours",
		Name:      "count",
		Help:      "Number of neighbours in the table",
	})

	PotentialParents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankd",
		Subsystem: "neighbours",
		Name:      "potential_parents",
		Help:      "Number of neighbours eligible as parent",
	})

	Rank = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankd",
		Name:      "rank",
		Help:      "Current rank of this node, 999 when no parent is available",
	})

	probesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankd",
		Subsystem: "probe",
		Name:      "transmitted_total",
		Help:      "Total number of probes handed to the transmitter",
	}, []string{"kind"}) // kind: sent/resent

	acksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankd",
		Subsystem: "probe",
		Name:      "acks_total",
		Help:      "Total number of probe acks received",
	}, []string{"result"}) // result: accepted/unknown/evicted

	evictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankd",
		Subsystem: "neighbours",
		Name:      "evictions_total",
		Help:      "Total number of neighbours dropped from the table",
	}, []string{"reason"}) // reason: evicted/removed
)

func init() {
	prometheus.MustRegister(
		Neighbours,
		PotentialParents,
		Rank,
		probesTotal,
		acksTotal,
		evictionsTotal,
	)
}
