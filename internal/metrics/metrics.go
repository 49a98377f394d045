// Package metrics exposes Prometheus collectors fed by pipeline lifecycle hooks.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/scribe/pkg/domain"
)

type Metrics struct {
	Parses          *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_parses_total",
			Help: "Instructions interpreted, by winning tier and whether they were split",
		}, []string{"tier", "split"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_commands_total",
			Help: "Commands executed, by action and outcome",
		}, []string{"action", "outcome"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scribe_command_duration_seconds",
			Help:    "Duration of command execution including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_retries_total",
			Help: "Retried external calls, by operation",
		}, []string{"op"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_phase_transitions_total",
			Help: "Conversation phase changes",
		}, []string{"from", "to"}),
	}
	for _, c := range []prometheus.Collector{m.Parses, m.Commands, m.CommandDuration, m.Retries, m.Transitions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParse: func(_ context.Context, e *domain.ParseEvent) {
			m.Parses.WithLabelValues(string(e.Tier), strconv.FormatBool(e.Split)).Inc()
		},
		OnCommandEnd: func(_ context.Context, e *domain.CommandEvent) {
			outcome := "ok"
			switch {
			case e.Err == nil:
			case domain.IsTransient(e.Err):
				outcome = "transient"
			default:
				outcome = "failed"
			}
			action := string(e.Command.Action)
			m.Commands.WithLabelValues(action, outcome).Inc()
			m.CommandDuration.WithLabelValues(action).Observe(e.Duration.Seconds())
		},
		OnRetry: func(_ context.Context, e *domain.RetryEvent) {
			m.Retries.WithLabelValues(e.Op).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
	}
}
