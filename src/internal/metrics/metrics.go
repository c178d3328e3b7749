// Package metrics counts the recoverable outcomes of the save pipeline and of
// relationship renumbering.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

// Metrics holds the catalog counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	InvalidIdentifiers *prometheus.CounterVec
	RejectedISBNs      prometheus.Counter
	UnparseableDates   *prometheus.CounterVec
	RelationOps        *prometheus.CounterVec
	SavedRecords       *prometheus.CounterVec
}

// New creates the counters and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		InvalidIdentifiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_identifiers_total",
			Help:      "Identifiers that failed checksum or structural validation.",
		}, []string{"kind"}),
		RejectedISBNs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_isbns_total",
			Help:      "Invalid ISBNs moved to wrong_isbn during import.",
		}),
		UnparseableDates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unparseable_dates_total",
			Help:      "Date strings that resolved to no date.",
		}, []string{"field"}),
		RelationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relation_operations_total",
			Help:      "Ordered relationship mutations by role, operation and result.",
		}, []string{"role", "op", "result"}),
		SavedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_records_total",
			Help:      "Records accepted or refused by the save pipeline.",
		}, []string{"kind", "result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.InvalidIdentifiers, m.RejectedISBNs, m.UnparseableDates, m.RelationOps, m.SavedRecords} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// InvalidIdentifier counts one identifier of kind that failed validation.
func (m *Metrics) InvalidIdentifier(kind string) {
	if m == nil {
		return
	}
	m.InvalidIdentifiers.WithLabelValues(kind).Inc()
}

// RejectedISBN counts one ISBN preserved as wrong_isbn.
func (m *Metrics) RejectedISBN() {
	if m == nil {
		return
	}
	m.RejectedISBNs.Inc()
}

// UnparseableDate counts one date field that yielded no date.
func (m *Metrics) UnparseableDate(field string) {
	if m == nil {
		return
	}
	m.UnparseableDates.WithLabelValues(field).Inc()
}

// RelationOp counts one relationship mutation; err decides the result label.
func (m *Metrics) RelationOp(role, op string, err error) {
	if m == nil {
		return
	}
	m.RelationOps.WithLabelValues(role, op, result(err)).Inc()
}

// Saved counts one record save attempt.
func (m *Metrics) Saved(kind string, err error) {
	if m == nil {
		return
	}
	m.SavedRecords.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
