// The consumer service pulls order messages from the queue and runs the
// payment processor once per message. Shutdown closes the broker connection
// so unacknowledged messages are redelivered to other consumers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderpipe/internal/broker"
	_ "orderpipe/internal/broker/channel"
	"orderpipe/internal/broker/rabbitmq"
	"orderpipe/internal/config"
	"orderpipe/internal/consume"
	"orderpipe/internal/logging"
	"orderpipe/internal/payment"
)

func main() {
	rabbitmq.Register()

	cfg := config.FromEnv()
	logger := logging.NewSlogServiceLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", err, nil)
		os.Exit(1)
	}

	logger.Info("Starting order consumer", logging.LogFields{"config": cfg})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := broker.Build(ctx, cfg, logging.NewWatermillAdapter(logger))
	if err != nil {
		logger.Error("Failed to connect to broker", err, nil)
		os.Exit(1)
	}

	dispatcher, err := consume.NewDispatcher(cfg, logger, transport)
	if err != nil {
		logger.Error("Failed to build dispatcher", err, nil)
		os.Exit(1)
	}
	defer func() { _ = dispatcher.Close() }()

	processor := payment.NewProcessor(logger)
	if err := dispatcher.Subscribe(consume.HandlerRegistration{
		Name:    "payment-processor",
		Queue:   cfg.OrderQueue,
		Handler: processor.Process,
	}); err != nil {
		logger.Error("Failed to subscribe handler", err, nil)
		os.Exit(1)
	}

	if cfg.MetricsEnabled {
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics endpoint listening", logging.LogFields{"address": addr})
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server stopped", err, logging.LogFields{"address": addr})
			}
		}()
	}

	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Dispatcher stopped", err, nil)
		os.Exit(1)
	}
}
