package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Registerer receives the exporter's collectors. Nil means the Prometheus
	// default registry, which is what promhttp.Handler serves.
	Registerer prometheus.Registerer
	// Gatherer is served by the returned handler. Nil means the default gatherer.
	Gatherer prometheus.Gatherer
}

// InitMetrics initializes the Prometheus metrics exporter and installs the
// resulting MeterProvider as the global one, so instruments created through
// otel.Meter are exported. It returns a shutdown func and the /metrics handler.
func InitMetrics(cfg MetricsConfig) (func(context.Context) error, http.Handler, error) {
	var opts []promexporter.Option
	if cfg.Registerer != nil {
		opts = append(opts, promexporter.WithRegisterer(cfg.Registerer))
	}

	exporter, err := promexporter.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	handler := promhttp.Handler()
	if cfg.Gatherer != nil {
		handler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}

	return provider.Shutdown, handler, nil
}
