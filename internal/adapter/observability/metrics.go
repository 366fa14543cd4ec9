package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"route", "method"},
	)

	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Total number of oracle calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	OracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Oracle call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
	OracleFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_fallbacks_total",
			Help: "Times an assessment operation used its offline fallback",
		},
		[]string{"operation"},
	)

	SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillproof_submissions_total",
			Help: "Answers accepted for scoring",
		},
	)
	IntegrityVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillproof_integrity_verdicts_total",
			Help: "Finalized integrity verdicts",
		},
		[]string{"status"},
	)
	ReportsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillproof_reports_published_total",
			Help: "Report events published, by result",
		},
		[]string{"result"},
	)

	EvaluationScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skillproof_evaluation_score",
			Help:    "Distribution of explanation scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(OracleRequestsTotal)
	prometheus.MustRegister(OracleRequestDuration)
	prometheus.MustRegister(OracleFallbacksTotal)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(IntegrityVerdictsTotal)
	prometheus.MustRegister(ReportsPublishedTotal)
	prometheus.MustRegister(EvaluationScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveOracleCall records one provider call and its outcome.
func ObserveOracleCall(provider, outcome string, d time.Duration) {
	OracleRequestsTotal.WithLabelValues(provider, outcome).Inc()
	OracleRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFallback counts an offline fallback for the given operation.
func RecordFallback(operation string) {
	OracleFallbacksTotal.WithLabelValues(operation).Inc()
}

// ObserveEvaluation records the explanation score of a finished evaluation.
func ObserveEvaluation(score float64) {
	if score >= 0 && score <= 10 {
		EvaluationScoreHistogram.Observe(score)
	}
}

func RecordSubmission() { SubmissionsTotal.Inc() }

func RecordIntegrityVerdict(status string) {
	IntegrityVerdictsTotal.WithLabelValues(status).Inc()
}

func RecordReportPublished(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	ReportsPublishedTotal.WithLabelValues(result).Inc()
}
