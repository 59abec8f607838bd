// Package metrics holds the prometheus collectors for registry traffic and
// migration outcomes, and the small ops HTTP server that exposes them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "botwarden"

// Collectors groups every metric the application records. A nil *Collectors is a no-op.
type Collectors struct {
	Registry *prometheus.Registry

	registryRequests  *prometheus.HistogramVec
	migrationOutcomes *prometheus.CounterVec
	avatarCarries     *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry together with the Go runtime collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		Registry: reg,
		registryRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Duration of bot registry requests by operation and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		migrationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_outcomes_total",
			Help:      "Terminal outcomes of orchestrator runs by kind and failed stage.",
		}, []string{"kind", "stage"}),
		avatarCarries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "avatar_carries_total",
			Help:      "Avatar transfers attempted during group moves by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.registryRequests,
		c.migrationOutcomes,
		c.avatarCarries,
	)
	return c
}

// ObserveRequest records one registry round trip. status 0 means no response was received.
func (c *Collectors) ObserveRequest(op string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.registryRequests.WithLabelValues(op, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveOutcome records an orchestrator run's terminal outcome.
func (c *Collectors) ObserveOutcome(kind, stage string) {
	if c == nil {
		return
	}
	c.migrationOutcomes.WithLabelValues(kind, stage).Inc()
}

// ObserveAvatarCarry records whether an avatar made it onto a recreated bot.
func (c *Collectors) ObserveAvatarCarry(carried bool) {
	if c == nil {
		return
	}
	result := "dropped"
	if carried {
		result = "carried"
	}
	c.avatarCarries.WithLabelValues(result).Inc()
}
