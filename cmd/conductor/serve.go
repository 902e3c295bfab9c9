package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/conductor/pkg/cli"
	"mercator-hq/conductor/pkg/config"
	"mercator-hq/conductor/pkg/dispatch"
	"mercator-hq/conductor/pkg/providers"
	"mercator-hq/conductor/pkg/routerfactory"
	"mercator-hq/conductor/pkg/routing"
	"mercator-hq/conductor/pkg/telemetry"
	"mercator-hq/conductor/pkg/telemetry/health"
	"mercator-hq/conductor/pkg/telemetry/metrics"
)

type serveOptions struct {
	listenAddress   string
	minHealthy      int
	watch           bool
	trafficInterval time.Duration
	shutdownTimeout time.Duration
}

var serveFlags serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the router with metrics and health endpoints",
	Long: `Run a long-lived router over the configured providers.

The HTTP listener serves Prometheus metrics at telemetry.metrics.path and the
/health, /ready and /version probes. The config file is watched and valid
changes are applied to the running router without losing provider metrics.
A metrics summary is logged on telemetry.metrics.report_schedule.

With --traffic-interval, a synthetic request is dispatched on every tick so
the metrics move.

Stop with SIGINT or SIGTERM.

Examples:
  # Serve with the config file settings
  conductor serve

  # Listen on all interfaces and generate traffic
  conductor serve --listen 0.0.0.0:9090 --traffic-interval 200ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := cli.SetupSignalHandler(cmd.Context())
		defer stop()

		if err := runServe(ctx, cfg, serveFlags); err != nil {
			return cli.NewCommandError("serve", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override telemetry.metrics.listen_address")
	serveCmd.Flags().IntVar(&serveFlags.minHealthy, "min-healthy", 1, "healthy providers required for /ready")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", true, "reload the config file when it changes")
	serveCmd.Flags().DurationVar(&serveFlags.trafficInterval, "traffic-interval", 0, "dispatch a synthetic request at this interval (0 disables)")
	serveCmd.Flags().DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

// service is the set of components run by serve.
type service struct {
	tel        *telemetry.Telemetry
	logger     *slog.Logger
	router     *routing.DefaultRouter
	dispatcher *dispatch.Dispatcher
	reporter   *metrics.Reporter
	handler    http.Handler
}

func newService(ctx context.Context, cfg *config.Config, opts serveOptions, telOpts ...telemetry.Option) (*service, error) {
	telCfg := cfg.Telemetry
	if verbose {
		telCfg.Logging.Level = "debug"
	}
	tel, err := telemetry.New(ctx, &telCfg, versionInfo(), telOpts...)
	if err != nil {
		return nil, err
	}
	logger := tel.Logger()
	tracer := tel.Tracer().Tracer()

	router, err := routerfactory.New(cfg,
		routing.WithLogger(logger),
		routing.WithTracer(tracer),
		routing.WithObserver(tel.Metrics()),
	)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	tel.Health().RegisterCheck("router", health.RouterCheck(router, opts.minHealthy))
	tel.Health().RegisterCheck("providers", health.ProvidersCheck(router.Registry(), opts.minHealthy))

	dispatcher := dispatch.New(router, router.Registry().Get,
		dispatch.WithLogger(logger),
		dispatch.WithTracer(tracer),
		dispatch.WithErrorRecorder(tel.Metrics()),
	)

	return &service{
		tel:        tel,
		logger:     logger,
		router:     router,
		dispatcher: dispatcher,
		reporter:   metrics.NewReporter(router, tel.Metrics(), cfg.Telemetry.Metrics.ReportSchedule, logger),
		handler:    tel.ServeMux(cfg.Telemetry.Metrics.Path),
	}, nil
}

// applyConfig pushes a reloaded configuration into the running router.
// A rejected configuration leaves the router unchanged.
func (s *service) applyConfig(cfg *config.Config) {
	result, err := routerfactory.Reload(s.router, cfg, s.logger)
	if err != nil {
		s.logger.Error("config rejected by router, keeping current configuration", "error", err)
		return
	}
	for _, id := range result.Removed {
		s.tel.Metrics().ForgetProvider(id)
	}
}

// generateTraffic dispatches one synthetic request per tick until ctx is
// done.
func (s *service) generateTraffic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		req := &providers.GenerationRequest{Prompt: simulationPrompts[n%len(simulationPrompts)]}
		reqCtx, cancel := context.WithTimeout(ctx, interval*10)
		res, err := s.dispatcher.Generate(reqCtx, req, s.router.Registry().IDs(), routing.PriorityNormal)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("synthetic request failed", "error", err)
			}
			continue
		}
		s.logger.Debug("synthetic request served",
			"request_id", res.Routing.RequestID,
			"provider", res.Provider,
			"attempts", len(res.Attempts),
		)
	}
}

func (s *service) close(ctx context.Context) error {
	s.reporter.Stop()
	return errors.Join(s.router.Close(), s.tel.Shutdown(ctx))
}

func runServe(ctx context.Context, cfg *config.Config, opts serveOptions) error {
	svc, err := newService(ctx, cfg, opts)
	if err != nil {
		return err
	}
	logger := svc.logger

	addr := cfg.Telemetry.Metrics.ListenAddress
	if opts.listenAddress != "" {
		addr = opts.listenAddress
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := svc.reporter.Start(ctx); err != nil {
		return errors.Join(err, svc.close(ctx))
	}

	var watcher *config.Watcher
	if opts.watch {
		watcher, err = config.NewWatcher(cfgFile, logger, config.WithLoader(config.ReloadConfig))
		if err != nil {
			return errors.Join(err, svc.close(ctx))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening",
			"address", addr,
			"metrics_path", cfg.Telemetry.Metrics.Path,
			"strategy", svc.router.GetStrategy(),
			"providers", svc.router.Registry().Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Watch(gctx, svc.applyConfig)
		})
	}
	if opts.trafficInterval > 0 {
		g.Go(func() error {
			return svc.generateTraffic(gctx, opts.trafficInterval)
		})
	}

	err = g.Wait()
	if watcher != nil {
		if stopErr := watcher.Stop(); stopErr != nil {
			logger.Warn("failed to stop config watcher", "error", stopErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()
	if closeErr := svc.close(shutdownCtx); closeErr != nil {
		logger.Warn("shutdown incomplete", "error", closeErr)
	}
	if err == nil {
		logger.Info("server stopped")
	}
	return err
}
