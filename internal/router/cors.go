package router

import (
	"net/http"
	"slices"
	"strings"

	"DomainQL/internal/config"

	"github.com/go-chi/cors"
)

// withCORS handles preflight requests and sets the allow-origin header for
// the configured comma-separated origins.
func withCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(corsOptions(cfg))
}

func corsOptions(cfg config.CORSConfig) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Role", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           86400,
	}
	origins := parseOrigins(cfg.AllowOrigin)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// "*" is not accepted by browsers together with credentials: echo the origin instead
	if slices.Contains(origins, "*") && cfg.AllowCredentials {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
		return opts
	}
	opts.AllowedOrigins = origins
	return opts
}

func parseOrigins(allowOrigin string) []string {
	parts := strings.Split(allowOrigin, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		res = append(res, p)
	}
	return res
}
