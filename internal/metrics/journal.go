package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/mood-journal/internal/sentiment"
)

// JournalMetrics counts scored entries by label and store failures by
// operation. It satisfies service.Observer.
type JournalMetrics struct {
	EntriesScored *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
}

func NewJournalMetrics(reg prometheus.Registerer) *JournalMetrics {
	m := &JournalMetrics{
		EntriesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "entries_scored_total",
			Help:      "Journal entries scored on create or update, by sentiment label.",
		}, []string{"label"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "store_errors_total",
			Help:      "Storage failures seen by the journal service, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.EntriesScored, m.StoreErrors)
	return m
}

func (m *JournalMetrics) EntryScored(label sentiment.Label) {
	m.EntriesScored.WithLabelValues(string(label)).Inc()
}

func (m *JournalMetrics) StoreFailed(op string) {
	m.StoreErrors.WithLabelValues(op).Inc()
}
