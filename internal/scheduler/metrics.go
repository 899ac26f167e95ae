package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики цикла. Экспортируются daemon'ом на /metrics.
var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_scheduler_ticks_total",
		Help: "Total scheduler ticks that read the events table",
	})

	eventsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_scheduler_events_fired_total",
		Help: "Total events whose execution was started",
	})

	eventsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_scheduler_events_pruned_total",
		Help: "Total stored events deleted because their expression no longer parses",
	})

	evalFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_scheduler_eval_failures_total",
		Help: "Total expression evaluations that failed and were treated as not due",
	})
)
