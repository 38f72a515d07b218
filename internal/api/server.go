// Package api serves the entrenamientos collection over REST, backed by
// SQLite or Postgres through internal/db.
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPort matches the port the web UI's default api_base points at.
const DefaultPort = 3000

// Option configures the API handler.
type Option func(*options)

type options struct {
	logger        *log.Logger
	allowedOrigin string
}

// WithLogger sets the access/error logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAllowedOrigin sets the CORS origin. The default allows any origin.
func WithAllowedOrigin(origin string) Option {
	return func(o *options) {
		if origin != "" {
			o.allowedOrigin = origin
		}
	}
}

// NewHandler builds the router for the collection API and /metrics.
func NewHandler(db *sqlx.DB, opts ...Option) http.Handler {
	o := options{logger: log.Default(), allowedOrigin: "*"}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Handlers{db: db, logger: o.logger}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.Use(countRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/entrenamientos", h.List).Methods(http.MethodGet)
	api.HandleFunc("/entrenamientos", h.Create).Methods(http.MethodPost)
	api.HandleFunc("/entrenamientos/{id}", h.Get).Methods(http.MethodGet)
	api.HandleFunc("/entrenamientos/{id}", h.Update).Methods(http.MethodPut)
	api.HandleFunc("/entrenamientos/{id}", h.Delete).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Outer middleware runs for unmatched routes and CORS preflights too.
	var handler http.Handler = r
	handler = securityHeaders(handler)
	handler = cors(o.allowedOrigin)(handler)
	handler = accessLog(o.logger)(handler)
	handler = requestID(handler)
	return handler
}

// NewServer wraps NewHandler in an *http.Server bound to bind:port.
func NewServer(db *sqlx.DB, bind string, port int, opts ...Option) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(db, opts...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
