package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses no-op provider", func(t *testing.T) {
		t.Parallel()

		tel, err := New(context.Background(), nil)
		require.NoError(t, err)
		assert.IsType(t, noop.MeterProvider{}, tel.MeterProvider())
		assert.NoError(t, tel.Shutdown(context.Background()))
	})

	t.Run("disabled metrics use no-op provider", func(t *testing.T) {
		t.Parallel()

		mp, handler, err := NewMeterProvider(context.Background(), &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: false}})
		require.NoError(t, err)
		assert.IsType(t, noop.MeterProvider{}, mp)
		assert.Nil(t, handler)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &Config{Enabled: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid telemetry configuration")
	})

	t.Run("enabled metrics create SDK provider", func(t *testing.T) {
		t.Parallel()

		// The OTLP HTTP exporter connects lazily, so no collector is needed.
		tel, err := New(context.Background(), &Config{
			Enabled:  true,
			Endpoint: "localhost:4318",
			Insecure: true,
			Metrics:  &MetricsConfig{Enabled: true},
		})
		require.NoError(t, err)
		assert.IsType(t, &sdkmetric.MeterProvider{}, tel.MeterProvider())
		assert.Nil(t, tel.MetricsHandler())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// Flushing against a missing collector may fail; shutdown must not panic.
		_ = tel.Shutdown(ctx)
	})
}

func TestNew_PrometheusExporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tel, err := New(ctx, &Config{
		Enabled: true,
		Metrics: &MetricsConfig{Enabled: true, Exporter: ExporterPrometheus},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	require.NotNil(t, tel.MetricsHandler())

	metrics, err := NewAuthzMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordDecision(ctx, "GET /things", true, true)

	rr := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "authz_decisions_total")
	assert.Contains(t, string(body), `action="GET /things"`)
}
