package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the reconciliation pipeline

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorebook_api_calls_total",
			Help: "Total number of score feed API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorebook_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorebook_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorebook_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorebook_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Pipeline run metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorebook_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"trigger", "status"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorebook_pipeline_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"trigger"},
	)

	RecordsNormalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_records_normalized_total",
			Help: "Total number of raw records normalized successfully",
		},
	)

	RecordsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorebook_records_rejected_total",
			Help: "Total number of raw records rejected",
		},
		[]string{"reason"},
	)

	DuplicatesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_duplicates_dropped_total",
			Help: "Total number of records dropped by deduplication",
		},
	)

	GuardViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_guard_violations_total",
			Help: "Total number of integrity guard violations",
		},
	)

	RatingsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_ratings_applied_total",
			Help: "Total number of completed games fed into ratings",
		},
	)

	PredictionsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorebook_predictions_written_total",
			Help: "Total number of fixture predictions written",
		},
	)

	// Dataset gauges
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_dataset_rows",
			Help: "Row count of the canonical dataset",
		},
	)

	DatasetSeasons = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_dataset_seasons",
			Help: "Distinct seasons covered by the canonical dataset",
		},
	)

	RatedTeams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_rated_teams",
			Help: "Number of teams carrying a rating",
		},
	)

	// Artifact metrics
	ArtifactWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorebook_artifact_write_duration_seconds",
			Help:    "Duration of artifact writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorebook_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorebook_last_successful_run_timestamp",
			Help: "Timestamp of last successful pipeline run",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordPipelineRun records one pipeline run
func RecordPipelineRun(trigger, status string, duration float64) {
	PipelineRunsTotal.WithLabelValues(trigger, status).Inc()
	PipelineDuration.WithLabelValues(trigger).Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordNormalized records successfully normalized records
func RecordNormalized(count int) {
	RecordsNormalizedTotal.Add(float64(count))
}

// RecordRejected records rejected records by reason
func RecordRejected(reason string, count int) {
	RecordsRejectedTotal.WithLabelValues(reason).Add(float64(count))
}

// RecordDedupe records deduplication results
func RecordDedupe(dropped int) {
	DuplicatesDroppedTotal.Add(float64(dropped))
}

// RecordGuardViolation records an integrity guard violation
func RecordGuardViolation() {
	GuardViolationsTotal.Inc()
}

// RecordRatings records rating engine results
func RecordRatings(applied, teams int) {
	RatingsAppliedTotal.Add(float64(applied))
	RatedTeams.Set(float64(teams))
}

// RecordPredictions records written fixture predictions
func RecordPredictions(count int) {
	PredictionsWrittenTotal.Add(float64(count))
}

// UpdateDatasetStats updates the canonical dataset gauges
func UpdateDatasetStats(rows, seasons int) {
	DatasetRows.Set(float64(rows))
	DatasetSeasons.Set(float64(seasons))
}

// RecordArtifactWrite records an artifact write duration
func RecordArtifactWrite(format string, duration float64) {
	ArtifactWriteDuration.WithLabelValues(format).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
