package auth

import (
	"net/http"
	"strings"

	"DomainQL/internal/logger"
)

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func Middleware(v *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "missing bearer token")
				return
			}
			claims, err := v.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	logger.Warn("auth_failed", map[string]any{
		"path":   r.URL.Path,
		"reason": reason,
	})
	w.Header().Set("WWW-Authenticate", `Bearer realm="domainql"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
