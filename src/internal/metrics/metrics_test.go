package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.InvalidIdentifier("ISSN")
	m.InvalidIdentifier("ISSN")
	m.RejectedISBN()
	m.UnparseableDate("dis_date")
	m.RelationOp("create", "append", nil)
	m.RelationOp("create", "append", errors.New("dup"))
	m.Saved("manifestation", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidIdentifiers.WithLabelValues("ISSN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedISBNs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnparseableDates.WithLabelValues("dis_date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelationOps.WithLabelValues("create", "append", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelationOps.WithLabelValues("create", "append", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SavedRecords.WithLabelValues("manifestation", "ok")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.InvalidIdentifier("ISBN")
	m.RejectedISBN()
	m.UnparseableDate("pub_date")
	m.RelationOp("produce", "remove", nil)
	m.Saved("item", nil)
}
