package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)
	m.Registrations.WithLabelValues(OutcomeSuccess).Inc()
	m.OrderPlacements.WithLabelValues("committed").Add(2)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.OrderPlacements.WithLabelValues("committed")))

	_, err = New(reg)
	require.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.Authentications.WithLabelValues(OutcomeRejected).Inc()
	m.PlacementSeconds.Observe(0.01)

	path := filepath.Join(t.TempDir(), "tienda.prom")
	require.NoError(t, WriteTextfile(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `tienda_authentications_total{outcome="rejected"} 1`)
	require.Contains(t, string(data), "tienda_order_placement_duration_seconds_count 1")
}
