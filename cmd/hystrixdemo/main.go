// Command hystrixdemo wires every package in this module together: a
// Registry, a couple of Command definitions (one reliable, one flaky
// enough to trip its circuit breaker), a Prometheus event notifier behind a
// MultiEventNotifier, an OpenTelemetry tracer provider, and a request-scoped
// cache, then drives a handful of
// invocations to exercise the pipeline end to end.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/cache"
	"github.com/mattsp1290/hystrix-go/pkg/command"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	registerer := prometheus.NewRegistry()
	promNotifier := metrics.NewPrometheusEventNotifier(registerer)
	notifier := metrics.NewMultiEventNotifier(promNotifier)

	reg := command.NewRegistry(clock.Real{}, logger)

	inventory := buildInventoryCommand(reg, notifier, logger)
	flaky := buildFlakyPaymentsCommand(reg, notifier, logger)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sku := fmt.Sprintf("sku-%d", i%2)
		qty, err := inventory.Execute(ctx)
		logger.Info("inventory lookup", zap.String("sku", sku), zap.Int("qty", qty), zap.Error(err))
	}

	for i := 0; i < 30; i++ {
		result, err := flaky.Execute(ctx)
		logger.Info("payment attempt",
			zap.Int("attempt", i),
			zap.String("result", result),
			zap.String("breaker_state", flaky.Breaker().State().String()),
			zap.Error(err),
		)
		time.Sleep(10 * time.Millisecond)
	}
}

func buildInventoryCommand(reg *command.Registry, notifier metrics.EventNotifier, logger *zap.Logger) *command.Command[int] {
	cacheStore, err := cache.New[int](64)
	if err != nil {
		panic(err)
	}

	cmd, err := command.NewBuilder(reg, "inventory.lookup", func(ctx context.Context) (int, error) {
		return rand.Intn(100), nil
	}).
		WithGroupKey("inventory").
		WithCacheKey(func() (string, bool) { return "sku-0", true }).
		WithCacheStore(cacheStore).
		WithFallback(func(ctx context.Context, cause error) (int, error) {
			return 0, nil
		}).
		WithNotifier(notifier).
		WithLogger(logger).
		Build()
	if err != nil {
		panic(err)
	}
	return cmd
}

func buildFlakyPaymentsCommand(reg *command.Registry, notifier metrics.EventNotifier, logger *zap.Logger) *command.Command[string] {
	props, err := config.NewPropertiesBuilder("payments.charge").
		WithCircuitBreaker(true, 10, 2000, 40).
		WithThreadIsolation(100*time.Millisecond, true).
		Build()
	if err != nil {
		panic(err)
	}

	cmd, err := command.NewBuilder(reg, "payments.charge", func(ctx context.Context) (string, error) {
		if rand.Intn(100) < 60 {
			return "", errors.New("payment gateway timeout")
		}
		return "charged", nil
	}).
		WithGroupKey("payments").
		WithProperties(props).
		WithFallback(func(ctx context.Context, cause error) (string, error) {
			return "queued-for-retry", nil
		}).
		WithNotifier(notifier).
		WithLogger(logger).
		Build()
	if err != nil {
		panic(err)
	}
	return cmd
}
