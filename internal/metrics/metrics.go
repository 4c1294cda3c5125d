// Package metrics exposes Prometheus counters for check-in activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the services need from the metrics layer.
type Recorder interface {
	RecordCheckIn(method, status string)
	RecordFallbackUser()
	RecordCheckOut()
	RecordStoreError(op string)
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	checkins     *prometheus.CounterVec
	fallbackUser prometheus.Counter
	checkouts    prometheus.Counter
	storeErrors  *prometheus.CounterVec
}

// NewCollector registers the counters on reg and returns the collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkpoint_checkins_total",
			Help: "Check-ins recorded, by method and status.",
		}, []string{"method", "status"}),
		fallbackUser: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkpoint_fallback_user_total",
			Help: "Check-ins that synthesized a placeholder user after a failed lookup.",
		}),
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkpoint_checkouts_total",
			Help: "Check-outs recorded.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkpoint_store_errors_total",
			Help: "Record store failures, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(c.checkins, c.fallbackUser, c.checkouts, c.storeErrors)
	return c
}

// RecordCheckIn counts one accepted check-in.
func (c *Collector) RecordCheckIn(method, status string) {
	c.checkins.WithLabelValues(method, status).Inc()
}

// RecordFallbackUser counts a placeholder-user synthesis. A rising counter
// here means check-ins are arriving for identifiers the user store does not
// know, which needs a product decision rather than silent acceptance.
func (c *Collector) RecordFallbackUser() {
	c.fallbackUser.Inc()
}

// RecordCheckOut counts one completed check-out.
func (c *Collector) RecordCheckOut() {
	c.checkouts.Inc()
}

// RecordStoreError counts one failed store round-trip.
func (c *Collector) RecordStoreError(op string) {
	c.storeErrors.WithLabelValues(op).Inc()
}

// Nop is a Recorder that discards everything; used in tests.
type Nop struct{}

func (Nop) RecordCheckIn(method, status string) {}
func (Nop) RecordFallbackUser()                 {}
func (Nop) RecordCheckOut()                     {}
func (Nop) RecordStoreError(op string)          {}
