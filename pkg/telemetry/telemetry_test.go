package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/telemetry/health"
	"mercator-hq/conductor/pkg/telemetry/tracing"
)

func TestNew(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Logging.Format = "json"

	var buf bytes.Buffer
	tel, err := New(context.Background(), &cfg, health.NewVersionInfo("1.0.0", "abc", "today"), WithLogWriter(&buf))
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	tel.Logger().Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	assert.False(t, tel.Tracer().Enabled())
	assert.True(t, tel.Metrics().Enabled())
	assert.Equal(t, "1.0.0", tel.Version().Version)
	assert.NotNil(t, tel.Health())
}

func TestNew_InvalidLogging(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Logging.Level = "trace"

	_, err := New(context.Background(), &cfg, health.VersionInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create logger")
}

func TestNew_TracingWithExporter(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	cfg.Tracing.Enabled = true

	exporter := tracetest.NewInMemoryExporter()
	tel, err := New(context.Background(), &cfg, health.VersionInfo{},
		WithTracingOptions(tracing.WithExporter(exporter), tracing.WithoutGlobal()))
	require.NoError(t, err)

	_, span := tel.Tracer().Start(context.Background(), "test")
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Len(t, exporter.GetSpans(), 1)
}

func TestServeMux(t *testing.T) {
	cfg := config.NewDefaultConfig().Telemetry
	tel, err := New(context.Background(), &cfg, health.NewVersionInfo("1.0.0", "", ""))
	require.NoError(t, err)

	mux := tel.ServeMux(cfg.Metrics.Path)
	for _, path := range []string{cfg.Metrics.Path, health.LivenessPath, health.ReadinessPath, health.VersionPath} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, health.VersionPath, nil))
	assert.True(t, strings.Contains(rec.Body.String(), `"version":"1.0.0"`))
}
