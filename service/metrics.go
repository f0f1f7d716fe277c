package service

import (
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for evaluation runs.
// A nil *Metrics records nothing.
type Metrics struct {
	pairs        *prometheus.CounterVec
	files        *prometheus.CounterVec
	pairDuration prometheus.Histogram
	cache        *prometheus.CounterVec
	overall      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simeval",
			Name:      "pairs_total",
			Help:      "Function pairs processed, by status.",
		}, []string{"status"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simeval",
			Name:      "files_total",
			Help:      "Corpus file pairs processed, by status.",
		}, []string{"status"}),
		pairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simeval",
			Name:      "pair_duration_seconds",
			Help:      "Time to score one function pair.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simeval",
			Name:      "cache_lookups_total",
			Help:      "Pair report cache lookups, by result.",
		}, []string{"result"}),
		overall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "simeval",
			Name:      "pair_overall_similarity",
			Help:      "Distribution of overall similarity for scored pairs.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.pairs, m.files, m.pairDuration, m.cache, m.overall)
	}
	return m
}

func (m *Metrics) observePair(status domain.PairStatus, report domain.SimilarityReport, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pairs.WithLabelValues(string(status)).Inc()
	if status == domain.PairStatusSkipped {
		return
	}
	m.pairDuration.Observe(elapsed.Seconds())
	if status == domain.PairStatusScored {
		m.overall.Observe(report.Overall)
	}
}

func (m *Metrics) observeFile(status domain.FileStatus) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
