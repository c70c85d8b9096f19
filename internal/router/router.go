package router

import (
	"context"
	"net/http"
	"time"

	"DomainQL/internal/auth"
	"DomainQL/internal/config"
	"DomainQL/internal/handler"
	"DomainQL/internal/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Options struct {
	CORS config.CORSConfig
	// Auth enables bearer-token checks on /api; nil leaves the API open.
	Auth *auth.JWTValidator
}

// New mounts the API routes.
func New(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(chimw.Recoverer)
	r.Use(withCORS(opts.CORS))
	r.Use(chimw.Heartbeat("/health"))

	r.Route("/api", func(api chi.Router) {
		if opts.Auth != nil {
			api.Use(auth.Middleware(opts.Auth))
		} else {
			// без токена роль берется из payload или X-Role как есть
			logger.Warn("auth_disabled", map[string]any{
				"detail": "callers choose their own role via payload or X-Role; set AUTH_ENABLED=true in production",
			})
		}
		api.Post("/fetch", h.Fetch)
		api.Post("/build", h.Build)
		api.Get("/schema", h.Domains)
		api.Get("/schema/{domain}", h.Schema)
	})
	return r
}

type requestIDKey struct{}

// withRequestID keeps a caller-supplied X-Request-ID or issues a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"request_id": RequestID(r.Context()),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	})
}
