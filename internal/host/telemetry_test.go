package host

import (
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetry_Records(t *testing.T) {
	tm := NewTelemetry()

	require.NoError(t, tm.ObserveResonance("oracle", "ctx", 0.5))
	require.NoError(t, tm.ObserveResonance("oracle", "ctx", 0.7))
	require.NoError(t, tm.AddVirtue("s1", "patience", 0.15))
	require.NoError(t, tm.AddVirtue("s2", "patience", 0.05))
	tm.CountEvent("oracle")

	assert.InDelta(t, 0.2, testutil.ToFloat64(tm.virtues.WithLabelValues("patience")), 1e-12)
	assert.Equal(t, 2.0, testutil.ToFloat64(tm.virtueOps.WithLabelValues("patience")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tm.events.WithLabelValues("oracle")))

	snap, err := tm.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap[`fot_resonance_score{agent="oracle"}`])
	assert.InDelta(t, 0.2, snap[`fot_virtue_level{virtue="patience"}`], 1e-12)
	assert.Equal(t, 2.0, snap[`fot_virtue_records_total{virtue="patience"}`])
	assert.Equal(t, 1.0, snap[`fot_resonance_events_total{agent="oracle"}`])
}

func TestTelemetry_RejectsNonFinite(t *testing.T) {
	tm := NewTelemetry()
	assert.Error(t, tm.ObserveResonance("a", "", math.NaN()))
	assert.Error(t, tm.AddVirtue("s", "honesty", math.Inf(1)))
	assert.Equal(t, 0, testutil.CollectAndCount(tm.resonance))
}

func TestTelemetry_OnlyCountersEndInTotal(t *testing.T) {
	tm := NewTelemetry()
	require.NoError(t, tm.AddVirtue("s", "honesty", 0.1))
	require.NoError(t, tm.ObserveResonance("a", "", 0.4))
	tm.CountEvent("a")

	families, err := tm.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), "_total") {
			assert.Equal(t, dto.MetricType_COUNTER, mf.GetType(), mf.GetName())
		}
	}
}

func TestTelemetry_PrivateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewTelemetry()
		NewTelemetry()
	})
}
