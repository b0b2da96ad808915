// Package httpapi is the producer's HTTP boundary: it accepts order
// requests and hands them to the publisher.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderpipe/internal/codec"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
)

// OrderPublisher is the publishing contract the API depends on.
type OrderPublisher interface {
	Publish(ctx context.Context, o order.Order) error
}

// Server exposes the order API over HTTP.
type Server struct {
	publisher OrderPublisher
	logger    logging.ServiceLogger
	router    chi.Router
}

// Options tweaks optional server behaviour.
type Options struct {
	// ExposeMetrics mounts the Prometheus handler on /metrics.
	ExposeMetrics bool
}

// New builds the API server around a publisher.
func New(publisher OrderPublisher, logger logging.ServiceLogger, opts Options) *Server {
	s := &Server{
		publisher: publisher,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Post("/api/orders", s.handlePlaceOrder)
	r.Get("/healthz", s.handleHealth)
	if opts.ExposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	s.router = r
	return s
}

// Handler returns the routable HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type orderRequest struct {
	ID      int64   `json:"id"`
	Product string  `json:"product"`
	Price   float64 `json:"price"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := codec.Decode(r.Body, &req); err != nil {
		s.logger.Debug("Rejected malformed order request", logging.LogFields{"error": err.Error()})
		http.Error(w, "invalid order payload", http.StatusBadRequest)
		return
	}

	o := order.Order{ID: req.ID, Product: req.Product, Price: req.Price}
	if err := s.publisher.Publish(r.Context(), o); err != nil {
		s.logger.Error("Failed to place order", err, logging.LogFields{"order_id": o.ID})
		http.Error(w, "failed to place order", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Order placed successfully"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
