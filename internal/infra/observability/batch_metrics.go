package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BatchMetrics tracks JSONL batch runs.
type BatchMetrics struct {
	records     *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewBatchMetrics registers the batch counters on reg. A nil registerer
// yields a recorder that drops everything.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	if reg == nil {
		return &BatchMetrics{}
	}
	factory := promauto.With(reg)
	return &BatchMetrics{
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trinity",
			Subsystem: "batch",
			Name:      "records_total",
			Help:      "Batch records processed, by status",
		}, []string{"status"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trinity",
			Subsystem: "batch",
			Name:      "cache_hits_total",
			Help:      "Batch records answered from the extraction cache",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trinity",
			Subsystem: "batch",
			Name:      "cache_misses_total",
			Help:      "Batch records that had to be extracted",
		}),
	}
}

// RecordRecord counts one processed record with status "ok" or "invalid".
func (m *BatchMetrics) RecordRecord(status string) {
	if m == nil || m.records == nil {
		return
	}
	m.records.WithLabelValues(status).Inc()
}

// RecordCache counts a cache lookup.
func (m *BatchMetrics) RecordCache(hit bool) {
	if m == nil || m.cacheHits == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
