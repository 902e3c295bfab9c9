// Package telemetry wires the observability stack of conductor.
//
// # Components
//
//   - logging: slog loggers with request-scoped context attributes
//   - metrics: Prometheus collector that observes the router
//   - tracing: OpenTelemetry spans for routing and dispatch
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(ctx, &cfg.Telemetry, health.NewVersionInfo(version, commit, buildTime))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	router, err := routing.NewRouter(rcfg, strategies.New,
//	    routing.WithLogger(tel.Logger()),
//	    routing.WithTracer(tel.Tracer().Tracer()),
//	    routing.WithObserver(tel.Metrics()),
//	)
//
//	srv := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: tel.ServeMux(cfg.Telemetry.Metrics.Path)}
package telemetry
