package restapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouterOpts struct {
	Logger zerolog.Logger

	Repo   ArticleRepository
	Health HealthChecker

	Timeout     time.Duration
	Limits      article.Limits
	MaxBodySize int64
	MaxPageSize int
}

func NewRouter(opts RouterOpts) http.Handler {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  &opts.Logger,
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	newArticleHandler(opts.Logger, opts.Repo, opts.Limits, opts.MaxPageSize, opts.MaxBodySize).handle(r)
	newHealthHandler(opts.Logger, opts.Health).handle(r)

	return r
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RestAPI.Started()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && len(rctx.RoutePatterns) > 0 {
			routePattern = strings.Join(rctx.RoutePatterns, "")
		}

		status := fmt.Sprintf("%d %s", ww.Status(), http.StatusText(ww.Status()))
		metrics.RestAPI.NewRequest(r.Method, routePattern, status, time.Since(start))
	})
}
