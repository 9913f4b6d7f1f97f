package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	statements     *prometheus.CounterVec //nolint:gochecknoglobals
	statementsOnce sync.Once              //nolint:gochecknoglobals
)

// LevelCounter counts log statements per level in the iam_log_statements_total metric.
type LevelCounter struct {
	vec *prometheus.CounterVec
}

// Run implements zerolog.Hook.
func (h LevelCounter) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || h.vec == nil {
		return
	}

	h.vec.WithLabelValues(level.String()).Inc()
}

// NewLevelCounter registers the counter once per process and labels it with service and app.
func NewLevelCounter(service, app string) LevelCounter {
	statementsOnce.Do(func() {
		statements = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "iam",
				Name:      "log_statements_total",
				Help:      "Number of log statements by level.",
				ConstLabels: prometheus.Labels{
					"service": service,
					"app":     app,
				},
			},
			[]string{"level"},
		)
	})

	return LevelCounter{vec: statements}
}
