package menu

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "menu_cache_lookups_total",
			Help: "Number of menu tree cache lookups, differentiated by result.",
		},
		[]string{"result"},
	)

	cacheErrors = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "menu_cache_errors_total",
			Help: "Number of failed menu cache store operations, differentiated by operation.",
		},
		[]string{"op"},
	)
)
