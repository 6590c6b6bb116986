// Package metrics holds the Prometheus collectors of the ledger.
// There is no scrape endpoint; the registry is written to a textfile on exit.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// Metrics groups the ledger collectors.
type Metrics struct {
	Registrations    *prometheus.CounterVec
	Authentications  *prometheus.CounterVec
	OrderPlacements  *prometheus.CounterVec
	PlacementSeconds prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienda",
			Name:      "registrations_total",
			Help:      "User registrations by outcome.",
		}, []string{"outcome"}),
		Authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienda",
			Name:      "authentications_total",
			Help:      "Authentication attempts by outcome.",
		}, []string{"outcome"}),
		OrderPlacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienda",
			Name:      "order_placements_total",
			Help:      "Order placement attempts by terminal state.",
		}, []string{"state"}),
		PlacementSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tienda",
			Name:      "order_placement_duration_seconds",
			Help:      "Duration of order placement attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Registrations, m.Authentications, m.OrderPlacements, m.PlacementSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// NewNop returns collectors that are not registered anywhere.
func NewNop() *Metrics {
	m, _ := New(prometheus.NewRegistry())
	return m
}

// WriteTextfile writes every metric gathered by g to path.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
