package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/conductor/pkg/config"
)

// Handler returns an HTTP handler for the Prometheus metrics endpoint. It is
// mounted at telemetry.metrics.path by "conductor serve".
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// NewServeMux returns a mux serving the metrics handler at path. Callers
// add their own probe routes to it.
func (c *Collector) NewServeMux(path string) *http.ServeMux {
	if path == "" {
		path = config.DefaultPrometheusPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, c.Handler())
	return mux
}
