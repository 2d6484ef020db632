package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/bibq/internal/domain"
)

// Namespace prefixes every bibq metric.
const Namespace = "bibq"

// Query engine Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Total number of queries by operation and status",
		},
		[]string{"op", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	QueryRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_rows",
			Help:      "Rows returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"op"},
	)

	RankSweeps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "rank_sweeps",
			Help:      "Sweeps taken by the rank computation",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 50},
		},
	)

	RankUnconvergedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rank_unconverged_total",
			Help:      "Rank computations stopped by the sweep cap",
		},
	)

	IndexDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_documents",
			Help:      "Documents in the loaded snapshot",
		},
		[]string{"library"},
	)

	SnapshotCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshot_cache_total",
			Help:      "Snapshot cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers the query engine metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryRows)
	prometheus.MustRegister(RankSweeps)
	prometheus.MustRegister(RankUnconvergedTotal)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(SnapshotCacheTotal)
	queryMetricsRegistered = true
}

// Recorder feeds query outcomes into the package metrics.
type Recorder struct{}

// ObserveQuery records one finished operation.
func (Recorder) ObserveQuery(op string, rows int, elapsed time.Duration, err error) {
	QueriesTotal.WithLabelValues(op, status(err)).Inc()
	QueryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err == nil {
		QueryRows.WithLabelValues(op).Observe(float64(rows))
	}
}

// ObserveRank records one rank computation.
func (Recorder) ObserveRank(sweeps int, converged bool) {
	RankSweeps.Observe(float64(sweeps))
	if !converged {
		RankUnconvergedTotal.Inc()
	}
}

// status maps an error onto a low-cardinality label.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoData):
		return "no_data"
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrUnknownTag),
		errors.Is(err, domain.ErrBadFilterSyntax), errors.Is(err, domain.ErrBadDateFormat),
		errors.Is(err, domain.ErrBadLimit):
		return "invalid"
	default:
		return "error"
	}
}
