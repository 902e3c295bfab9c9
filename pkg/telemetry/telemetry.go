package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/telemetry/health"
	"mercator-hq/conductor/pkg/telemetry/logging"
	"mercator-hq/conductor/pkg/telemetry/metrics"
	"mercator-hq/conductor/pkg/telemetry/tracing"
)

// Telemetry bundles the logger, tracer, metrics collector and health checker
// built from one telemetry configuration.
type Telemetry struct {
	logger    *slog.Logger
	tracer    *tracing.Tracer
	collector *metrics.Collector
	checker   *health.Checker
	version   health.VersionInfo
}

// Option configures New.
type Option func(*options)

type options struct {
	logWriter      io.Writer
	registry       *prometheus.Registry
	tracingOptions []tracing.Option
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithRegistry registers metrics with registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithTracingOptions passes options through to tracing.New.
func WithTracingOptions(opts ...tracing.Option) Option {
	return func(o *options) { o.tracingOptions = append(o.tracingOptions, opts...) }
}

// New builds every telemetry component. The tracer is a no-op unless
// tracing is enabled, and the collector records nothing unless metrics are
// enabled.
func New(ctx context.Context, cfg *config.TelemetryConfig, version health.VersionInfo, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logCfg := logging.FromConfig(cfg.Logging)
	logCfg.Writer = o.logWriter
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var tracingOpts []tracing.Option
	if version.Version != "" {
		tracingOpts = append(tracingOpts, tracing.WithServiceVersion(version.Version))
	}
	tracer, err := tracing.New(ctx, cfg.Tracing, append(tracingOpts, o.tracingOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		logger:    logger,
		tracer:    tracer,
		collector: metrics.NewCollector(&cfg.Metrics, o.registry),
		checker:   health.New(0),
		version:   version,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *slog.Logger {
	return t.logger
}

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer {
	return t.tracer
}

// Metrics returns the Prometheus collector.
func (t *Telemetry) Metrics() *metrics.Collector {
	return t.collector
}

// Health returns the readiness checker.
func (t *Telemetry) Health() *health.Checker {
	return t.checker
}

// Version returns the build information served at /version.
func (t *Telemetry) Version() health.VersionInfo {
	return t.version
}

// ServeMux returns a mux with the metrics endpoint at path and the health
// endpoints at their default paths.
func (t *Telemetry) ServeMux(path string) *http.ServeMux {
	mux := t.collector.NewServeMux(path)
	health.Register(mux, t.checker, t.version)
	return mux
}

// Shutdown flushes and stops the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.tracer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer: %w", err)
	}
	return nil
}
