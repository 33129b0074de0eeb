package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"motoka/internal/config"
	httpt "motoka/internal/transport/http"
	kafkat "motoka/internal/transport/kafka"
	"motoka/pkg/kafka"
	"motoka/pkg/logger"
	"motoka/pkg/metric"
	"motoka/pkg/tracing"

	"golang.org/x/sync/errgroup"
)

func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.App, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("app.Run: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Warnw("failed to flush traces", "error", err)
		}
	}()

	eg, ctx := errgroup.WithContext(ctx)

	metrics := initMetrics(ctx, eg, &cfg.Metrics, log)

	core, err := NewCore(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer core.Close()

	if err = initDLQProcessor(ctx, eg, cfg, core, log); err != nil {
		return err
	}

	initHTTPServer(ctx, eg, cfg, core, log, metrics)

	if cfg.Sweep.Enabled {
		eg.Go(func() error {
			return core.Sweeper.Start(ctx)
		})
	} else {
		log.Infow("sweeper disabled")
	}

	return waitForShutdown(eg)
}

func initMetrics(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Metrics,
	log logger.Logger,
) metric.Factory {
	metrics := metric.NewFactory()

	hostPort := net.JoinHostPort(cfg.Host, cfg.Port)
	metricsServer := &http.Server{
		Addr:              hostPort,
		Handler:           metrics.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		log.Infow("starting metrics server", "port", cfg.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app.initMetrics: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		return metricsServer.Shutdown(context.WithoutCancel(ctx))
	})

	return metrics
}

func initHTTPServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	core *Core,
	log logger.Logger,
	metrics metric.Factory,
) {
	handler := httpt.NewPaymentHandler(
		core.Payments,
		cfg.Auth,
		cfg.App.Name,
		log.With("component", "http"),
		metrics.HTTP(),
	)
	httpServer := httpt.NewHTTPServer(handler, &cfg.HTTP, log.With("component", "http server"))

	eg.Go(func() error {
		return httpServer.Start(ctx)
	})
}

func initDLQProcessor(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	core *Core,
	log logger.Logger,
) error {
	reader, err := kafka.NewReader(cfg.DLQ.Brokers, cfg.DLQ.Topic, cfg.DLQ.GroupID, log.With("component", "dlq reader"))
	if err != nil {
		return fmt.Errorf("app.initDLQProcessor: dlq reader creation: %w", err)
	}

	processor := kafkat.NewDLQProcessor(
		reader,
		core.Writer,
		cfg.Kafka.Topic,
		core.DLQ,
		cfg.DLQ.MaxRetryCount,
		log.With("component", "dlq processor"),
	)
	eg.Go(func() error {
		return processor.Start(ctx)
	})

	return nil
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}
