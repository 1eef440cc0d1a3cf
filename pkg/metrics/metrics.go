// Package metrics exposes Prometheus collectors for interpretation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// Outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Collector groups the interpreter metrics.
type Collector struct {
	Interpretations *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	Duration        prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Interpretations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lindenmaker_interpretations_total",
				Help: "Total number of interpretation runs by outcome and error tag",
			},
			[]string{"outcome", "tag"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lindenmaker_commands_total",
				Help: "Total number of applied turtle commands by kind",
			},
			[]string{"kind"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lindenmaker_interpret_duration_seconds",
				Help:    "Duration of interpretation runs",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.Interpretations, c.Commands, c.Duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns interpreter hooks that feed the collectors.
func (c *Collector) Hooks() runtime.Hooks {
	return runtime.Hooks{
		OnCommand: func(cmd ast.Command, _ runtime.Turtle) {
			c.Commands.WithLabelValues(cmd.Kind.String()).Inc()
		},
		OnFinish: func(res *runtime.Result, err error) {
			c.Duration.Observe(res.Duration.Seconds())
			if err != nil {
				c.Interpretations.WithLabelValues(OutcomeFailed, errorTag(err)).Inc()
				return
			}
			c.Interpretations.WithLabelValues(OutcomeSucceeded, "").Inc()
		},
	}
}

// errorTag returns the first tag of an interpreter error, or "other".
func errorTag(err error) string {
	if ie := types.AsInterpretError(err); ie != nil && len(ie.Tags) > 0 {
		return ie.Tags[0]
	}
	return "other"
}
