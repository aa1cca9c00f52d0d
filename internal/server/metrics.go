// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "datalabel"

// Metrics holds the Prometheus collectors of the HTTP surface.
type Metrics struct {
	requests  *prometheus.CounterVec
	conflicts prometheus.Counter
	tasks     prometheus.Counter
}

// NewMetrics registers the collectors on reg (the default registerer when
// nil). Collectors already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "conflicts_detected_total",
			Help:      "Conflicting tasks found by merge requests.",
		}),
		tasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merged_tasks_total",
			Help:      "Tasks merged by merge requests.",
		}),
	}

	if err := register(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := register(reg, &m.conflicts); err != nil {
		return nil, err
	}
	if err := register(reg, &m.tasks); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("registering metric: %w", err)
	}
	return nil
}

func (m *Metrics) observeRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeMerge(tasks, conflicts int) {
	if m == nil {
		return
	}
	m.tasks.Add(float64(tasks))
	m.conflicts.Add(float64(conflicts))
}
