// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts rule activity by rule name.
type Metrics struct {
	// Matches counts successful pattern matches.
	Matches *prometheus.CounterVec
	// Fired counts invocations of OnMatch, which happen for matches that
	// pass the rule's Matches pre-check.
	Fired *prometheus.CounterVec
	// Declined counts invocations of OnMatch that produced no alternative.
	Declined *prometheus.CounterVec
}

// NewMetrics returns a set of unregistered rule counters.
func NewMetrics() *Metrics {
	return &Metrics{
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relopt_rule_matches_total",
			Help: "Number of times the pattern of a rule matched a node.",
		}, []string{"rule"}),
		Fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relopt_rule_fired_total",
			Help: "Number of times a rule was fired on a matching node.",
		}, []string{"rule"}),
		Declined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relopt_rule_declined_total",
			Help: "Number of times a fired rule produced no alternative.",
		}, []string{"rule"}),
	}
}

// Register adds the counters to a prometheus registry.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Matches, m.Fired, m.Declined} {
		if err := r.Register(c); err != nil {
			return errors.Wrap(err, "registering rule metrics")
		}
	}
	return nil
}

func (m *Metrics) recordMatch(rule string) {
	if m != nil {
		m.Matches.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) recordFire(rule string, alternatives int) {
	if m == nil {
		return
	}
	m.Fired.WithLabelValues(rule).Inc()
	if alternatives == 0 {
		m.Declined.WithLabelValues(rule).Inc()
	}
}
