package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jamesatomc/kanari-sdk-V2/engine"
	"github.com/jamesatomc/kanari-sdk-V2/metrics"
)

// Options configures the HTTP front door around a Dispatcher.
type Options struct {
	// AllowedOrigins is a comma-separated CORS allow-list. An empty
	// value disables cross-origin requests entirely.
	AllowedOrigins string
	// EnableMetrics mounts /metrics for a Prometheus scraper.
	EnableMetrics bool
}

// NewHandler builds the top-level HTTP handler: the JSON-RPC endpoint
// at "/", optionally the Prometheus scrape endpoint, wrapped in gzip
// compression and CORS the way the teacher's api.New does.
func NewHandler(eng *engine.Engine, opts Options) http.Handler {
	dispatcher := New(eng)

	router := mux.NewRouter()
	router.Path("/").Methods(http.MethodPost).Handler(dispatcher)
	if opts.EnableMetrics {
		router.Path("/metrics").Methods(http.MethodGet).Handler(metrics.HTTPHandler())
	}

	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler
}

// Server owns the listening socket around a Dispatcher.
type Server struct {
	http *http.Server
}

// NewServer binds addr and wires eng behind it. It does not start
// listening until Serve is called.
func NewServer(addr string, eng *engine.Engine, opts Options) *Server {
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(eng, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Serve blocks until the server stops or the context is cancelled,
// which triggers a graceful shutdown. It never returns http.ErrServerClosed
// as an error.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
