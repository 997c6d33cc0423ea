package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultBatchSizeBuckets        = []float64{1, 10, 50, 100, 500, 1000, 5000}
)

// AppMetrics holds the service metric families.  It satisfies
// caseanalysis.Metrics.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	AnalysesTotal       CounterVec
	AnalysisDuration    HistogramVec
	AnalysisFailures    CounterVec
	CacheLookupsTotal   CounterVec
	CacheWriteFailures  CounterVec
	BatchRunsTotal      CounterVec
	BatchCases          HistogramVec
	BatchLastFailed     GaugeVec
	BatchLastConfidence GaugeVec
	HealthCheckStatus   GaugeVec
}

var _ caseanalysis.Metrics = (*AppMetrics)(nil)

// NewAppMetrics registers every family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.AnalysesTotal = collector.RegisterCounter("case_analyses_total", "Completed case analyses", "mode", "level")
	m.AnalysisDuration = collector.RegisterHistogram("case_analysis_duration_seconds", "Case analysis duration", DefaultAnalysisDurationBuckets, "mode")
	m.AnalysisFailures = collector.RegisterCounter("case_analysis_failures_total", "Failed case analyses", "code")
	m.CacheLookupsTotal = collector.RegisterCounter("analysis_cache_lookups_total", "Analysis cache lookups", "result")
	m.CacheWriteFailures = collector.RegisterCounter("analysis_cache_write_failures_total", "Analysis cache writes that failed")
	m.BatchRunsTotal = collector.RegisterCounter("regenerate_runs_total", "Batch regeneration runs", "status")
	m.BatchCases = collector.RegisterHistogram("regenerate_cases", "Cases visited per batch run", DefaultBatchSizeBuckets, "outcome")
	m.BatchLastFailed = collector.RegisterGauge("regenerate_last_failed_cases", "Failed cases in the last batch run")
	m.BatchLastConfidence = collector.RegisterGauge("regenerate_last_average_confidence", "Average confidence of the last batch run")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

// ObserveAnalysis records one computed analysis.
func (m *AppMetrics) ObserveAnalysis(mode, level string, duration time.Duration) {
	m.AnalysesTotal.WithLabelValues(mode, level).Inc()
	m.AnalysisDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordAnalysisFailure counts a failed analysis by error code.
func (m *AppMetrics) RecordAnalysisFailure(code string) {
	if code == "" {
		code = "unknown"
	}
	m.AnalysisFailures.WithLabelValues(code).Inc()
}

// RecordCacheLookup counts a fresh-cache hit or miss.
func (m *AppMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheWriteFailure counts a result that could not be stored.
func (m *AppMetrics) RecordCacheWriteFailure() {
	m.CacheWriteFailures.WithLabelValues().Inc()
}

// RecordBatch records the outcome of a regeneration run.
func (m *AppMetrics) RecordBatch(summary legalcase.RegenerateSummary) {
	status := "ok"
	if summary.FailedCases > 0 {
		status = "partial"
	}
	m.BatchRunsTotal.WithLabelValues(status).Inc()
	m.BatchCases.WithLabelValues("analyzed").Observe(float64(summary.AnalyzedCases))
	m.BatchCases.WithLabelValues("failed").Observe(float64(summary.FailedCases))
	m.BatchLastFailed.WithLabelValues().Set(float64(summary.FailedCases))
	m.BatchLastConfidence.WithLabelValues().Set(summary.AverageConfidence)
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetHealth records a component's health as 1 or 0.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
