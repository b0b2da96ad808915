// The producer service accepts orders over HTTP and publishes them to the
// broker. It assumes the broker is already running; a failed connection is
// fatal and restart policy belongs to the process supervisor.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderpipe/internal/broker"
	_ "orderpipe/internal/broker/channel"
	"orderpipe/internal/broker/rabbitmq"
	"orderpipe/internal/config"
	"orderpipe/internal/httpapi"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
	"orderpipe/internal/publish"
)

func main() {
	rabbitmq.Register()

	cfg := config.FromEnv()
	logger := logging.NewSlogServiceLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", err, nil)
		os.Exit(1)
	}

	logger.Info("Starting order producer", logging.LogFields{"config": cfg})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := broker.Build(ctx, cfg, logging.NewWatermillAdapter(logger))
	if err != nil {
		logger.Error("Failed to connect to broker", err, nil)
		os.Exit(1)
	}
	defer func() { _ = transport.Close() }()

	routes := broker.NewRoutingTable()
	if err := routes.Bind(broker.Binding{
		Kind:    order.Kind,
		Version: order.SchemaVersion,
		Queue:   cfg.OrderQueue,
		Durable: true,
	}); err != nil {
		logger.Error("Failed to declare routing", err, nil)
		os.Exit(1)
	}

	publisher := publish.New(transport.Publisher, routes, logger)
	api := httpapi.New(publisher, logger, httpapi.Options{ExposeMetrics: cfg.MetricsEnabled})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Order API listening", logging.LogFields{"address": cfg.HTTPAddr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server stopped", err, nil)
		os.Exit(1)
	}
}
