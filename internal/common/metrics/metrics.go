// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friction_calculations_total",
			Help: "Total number of successful friction calculations",
		},
		[]string{"color", "tip_variant"},
	)

	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friction_calculation_errors_total",
			Help: "Total number of rejected or failed friction calculations",
		},
		[]string{"code"},
	)

	FrictionIndex = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "friction_index",
			Help:    "Distribution of computed friction index values",
			Buckets: []float64{1, 2, 3, 4.5, 6, 7.5, 9, 12, 15},
		},
	)

	ParameterAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friction_parameter_adjustments_total",
			Help: "Supplied parameters replaced by their default",
		},
		[]string{"parameter"},
	)

	CatalogEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of loaded reference entries",
		},
		[]string{"kind"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

// RecordCalculation counts one scored pair.
func RecordCalculation(color, tipVariant string, frictionIndex float64) {
	CalculationsTotal.WithLabelValues(color, tipVariant).Inc()
	FrictionIndex.Observe(frictionIndex)
}

func RecordCalculationError(code string) {
	CalculationErrors.WithLabelValues(code).Inc()
}

func RecordAdjustment(parameter string) {
	ParameterAdjustments.WithLabelValues(parameter).Inc()
}

func SetCatalogEntries(products, countries int) {
	CatalogEntries.WithLabelValues("product").Set(float64(products))
	CatalogEntries.WithLabelValues("country").Set(float64(countries))
}
