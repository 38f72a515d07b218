package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/form"
	"github.com/mdc-app/mdc/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// DataLayer is the subset of the data-access layer the UI drives.
type DataLayer interface {
	form.Saver
	LoadAll(ctx context.Context) (*ops.LoadOutput, error)
	Get(ctx context.Context, id entry.ID) (*ops.GetOutput, error)
	Remove(ctx context.Context, id entry.ID) (*ops.RemoveOutput, error)
}

var _ DataLayer = (*ops.Layer)(nil)

// NewServer creates and configures the HTTP server for the mdc web UI.
func NewServer(layer DataLayer, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(layer, version),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewHandler builds the UI routes wrapped in security headers.
func NewHandler(layer DataLayer, version string) http.Handler {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		layer:    layer,
		renderer: NewRenderer(templateSub, version),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /entries/{id}/edit", h.HandleEdit)
	mux.HandleFunc("POST /entries", h.HandleCreate)
	mux.HandleFunc("POST /entries/{id}", h.HandleUpdate)
	mux.HandleFunc("POST /entries/{id}/delete", h.HandleDelete)
	mux.HandleFunc("GET /preview", h.HandlePreview)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts srv and handles graceful shutdown on SIGINT/SIGTERM.
// name labels the startup log line.
func Run(srv *http.Server, name string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("%s running at http://%s", name, srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
