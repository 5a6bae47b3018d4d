package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersMetricsOnProvidedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel, err := New(reg)
	require.NoError(t, err)
	require.NotNil(t, tel.Logger)
	require.NotNil(t, tel.Metrics)

	tel.Metrics.TasksScheduled.WithLabelValues("mesh").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNewNopDoesNotPanicAndIsIsolated(t *testing.T) {
	tel := NewNop()
	require.NotNil(t, tel.Logger)
	tel.Metrics.TasksDropped.WithLabelValues("cancelled").Inc()
	tel.Sync()
}

func TestNewTwiceOnSameRegistererDoesNotErrorOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.NoError(t, err)
}
