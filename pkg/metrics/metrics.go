package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	screening = "screening"

	runsTotal              = "runs_total"
	itemsTotal             = "items_total"
	scoringDurationMillis  = "scoring_duration_milliseconds"
	activeRuns             = "active_runs"
	jobCodeCollisionsTotal = "job_code_collisions_total"

	// Labels
	runStatusLabel   = "status"
	itemOutcomeLabel = "outcome"
)

var scoringBuckets = []float64{250, 500, 1000, 2500, 5000, 10000, 30000}

/**
* Metrics definition
**/
var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: screening,
		Name:      runsTotal,
		Help:      "number of screening runs by final status",
	},
	[]string{runStatusLabel},
)

var itemsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: screening,
		Name:      itemsTotal,
		Help:      "number of screened resumes by outcome",
	},
	[]string{itemOutcomeLabel},
)

var scoringDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: screening,
		Name:      scoringDurationMillis,
		Help:      "time spent waiting on the scoring service",
		Buckets:   scoringBuckets,
	},
)

var activeRunsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: screening,
		Name:      activeRuns,
		Help:      "number of runs currently processed by this instance",
	},
)

var jobCodeCollisionsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: screening,
		Name:      jobCodeCollisionsTotal,
		Help:      "number of generated job codes rejected because they already existed",
	},
)

func IncreaseRunsTotalMetric(status string) {
	runsTotalMetric.With(prometheus.Labels{runStatusLabel: status}).Inc()
}

// IncreaseItemsTotalMetric counts one processed item. The outcome is the
// screening status or the error kind of the entry.
func IncreaseItemsTotalMetric(outcome string) {
	itemsTotalMetric.With(prometheus.Labels{itemOutcomeLabel: outcome}).Inc()
}

func ObserveScoringDuration(d time.Duration) {
	scoringDurationMetric.Observe(float64(d.Milliseconds()))
}

func RunStarted() {
	activeRunsMetric.Inc()
}

func RunFinished() {
	activeRunsMetric.Dec()
}

func IncreaseJobCodeCollisions() {
	jobCodeCollisionsMetric.Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(itemsTotalMetric)
	prometheus.MustRegister(scoringDurationMetric)
	prometheus.MustRegister(activeRunsMetric)
	prometheus.MustRegister(jobCodeCollisionsMetric)
}
