package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	LockHold             = metric.NewHistogram("1m1s")
	ProbesPerSecond      = metric.NewCounter("10s1s")
	ResendsPerSecond     = metric.NewCounter("10s1s")
	AcksPerSecond        = metric.NewCounter("10s1s")
	IgnoredAcksPerSecond = metric.NewCounter("10s1s")
	EvictionsPerSecond   = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("rankd:Probes/s", ProbesPerSecond)
	expvar.Publish("rankd:Resends/s", ResendsPerSecond)
	expvar.Publish("rankd:Acks/s", AcksPerSecond)
	expvar.Publish("rankd:IgnoredAcks/s", IgnoredAcksPerSecond)
	expvar.Publish("rankd:Evictions/s", EvictionsPerSecond)
	expvar.Publish("rankd:LockHold (µs)", LockHold)
}

// Register mounts the expvar and metric debug pages on mux
func Register(mux *http.ServeMux) {
	mux.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	mux.Handle("/debug/vars", expvar.Handler())
}

func CountProbe(kind string) {
	if kind == "resent" {
		ResendsPerSecond.Add(1)
	} else {
		ProbesPerSecond.Add(1)
	}
	probesTotal.WithLabelValues(kind).Inc()
}

func CountAck(result string) {
	if result == "accepted" {
		AcksPerSecond.Add(1)
	} else {
		IgnoredAcksPerSecond.Add(1)
	}
	acksTotal.WithLabelValues(result).Inc()
}

func CountEviction(reason string) {
	EvictionsPerSecond.Add(1)
	evictionsTotal.WithLabelValues(reason).Inc()
}
