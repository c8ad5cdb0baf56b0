package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/config"
	otelexport "github.com/MrEthical07/cartauth/metrics/export/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/MrEthical07/cartauth"

type shutdownFunc func(context.Context) error

// startOTel pushes Engine metrics over OTLP/HTTP when enabled. The returned
// shutdown flushes the last interval.
func startOTel(ctx context.Context, cfg config.OTelConfig, engine *cartauth.Engine) (shutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}
	return startMeterProvider(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval)), engine)
}

func startMeterProvider(reader sdkmetric.Reader, engine *cartauth.Engine) (shutdownFunc, error) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exporter, err := otelexport.NewExporter(mp.Meter(meterName), engine)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(exporter.Close(), mp.Shutdown(ctx))
	}, nil
}
