package page

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jiaxingx0718/ledstory/internal/artifact"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
)

// ServeOptions configures the site server.
type ServeOptions struct {
	Addr           string
	AllowedOrigins []string
	Metrics        *metrics.Manager
	Logger         *logger.Logger
}

// NewRouter returns the routes of a generated site rooted at dir:
// the page at /, chart documents under /charts, images under /assets,
// the manifest, and /metrics when a metrics manager is given.
func NewRouter(dir string, opts ServeOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: ifEmpty(opts.AllowedOrigins, []string{"*"}),
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(dir, IndexFile))
	})
	r.Get("/"+artifact.ManifestFile, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, req, filepath.Join(dir, artifact.ManifestFile))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mountDir(r, "/"+artifact.ChartsDir, filepath.Join(dir, artifact.ChartsDir))
	mountDir(r, "/"+AssetsDir, filepath.Join(dir, AssetsDir))
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	return r
}

func mountDir(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", fs.ServeHTTP)
}

// Serve serves the site rooted at dir until ctx is cancelled.
func Serve(ctx context.Context, dir string, opts ServeOptions) error {
	log := opts.Logger
	if log == nil {
		log = logger.Named("http")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(dir, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", opts.Addr).Str("dir", dir).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("http stopped")
		return nil
	}
}

func ifEmpty(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
