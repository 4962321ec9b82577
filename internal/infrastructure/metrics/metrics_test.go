package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCycle(t *testing.T) {
	m := NewRateSyncMetrics(prometheus.NewRegistry())

	m.RecordCycle(CycleApplied, 0.4, 10, 3, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(CycleApplied)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.StaleCodes))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.CodesByFreshness.WithLabelValues("fresh")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CodesByFreshness.WithLabelValues("missing")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessTimestamp), 0.0)
}

func TestRecordCycleFetchFailedKeepsLastSuccess(t *testing.T) {
	m := NewRateSyncMetrics(prometheus.NewRegistry())

	m.RecordCycle(CycleFetchFailed, 1, 0, 4, 0)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.LastSuccessTimestamp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(CycleFetchFailed)))
}

func TestRecordUpstreamAndApplied(t *testing.T) {
	m := NewRateSyncMetrics(prometheus.NewRegistry())

	m.RecordUpstream("fixer", 0.2, nil)
	m.RecordUpstream("fixer", 0.2, errors.New("boom"))
	m.RecordApplied("EUR", 0.92, false)
	m.RecordApplied("XAU", 0, true)
	m.RecordStoreError("write")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("fixer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("fixer", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RatesAppliedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatesFallbackTotal))
	assert.Equal(t, 0.92, testutil.ToFloat64(m.CurrencyRate.WithLabelValues("EUR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrorsTotal.WithLabelValues("write")))
}
