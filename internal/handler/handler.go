// Package handler exposes the resolver over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"DomainQL/internal/auth"
	"DomainQL/internal/input"
	"DomainQL/internal/logger"
	"DomainQL/internal/model"
	"DomainQL/internal/query"
	"DomainQL/internal/resolver"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Handler serves /api/fetch, /api/build and /api/schema.
type Handler struct {
	resolver  *resolver.Resolver
	roleClaim string
}

func New(r *resolver.Resolver, roleClaim string) *Handler {
	if roleClaim == "" {
		roleClaim = "role"
	}
	return &Handler{resolver: r, roleClaim: roleClaim}
}

// Payload is the body of /api/fetch and /api/build.
type Payload struct {
	Domain  string          `json:"domain"`
	Role    string          `json:"role"`
	Request json.RawMessage `json:"request"`
}

type buildResponse struct {
	Request *query.DomainRequest `json:"request"`
	Errors  []query.InputError   `json:"errors"`
}

func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	p, raw, ok := h.decode(w, r, "/api/fetch")
	if !ok {
		return
	}
	role := h.role(r, p.Role)
	res, err := h.resolver.Fetch(r.Context(), p.Domain, role, raw)
	if err != nil {
		h.lookupFailed(w, "/api/fetch", err)
		return
	}
	if res.Failed() {
		logger.Warn("fetch_failed_queries", map[string]any{
			"domain": p.Domain,
			"role":   role,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	p, raw, ok := h.decode(w, r, "/api/build")
	if !ok {
		return
	}
	req, errs, err := h.resolver.Build(p.Domain, h.role(r, p.Role), raw)
	if err != nil {
		h.lookupFailed(w, "/api/build", err)
		return
	}
	if errs == nil {
		errs = []query.InputError{}
	}
	writeJSON(w, http.StatusOK, buildResponse{Request: req, Errors: errs})
}

func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	desc, err := h.resolver.Describe(domain, h.role(r, r.URL.Query().Get("role")))
	if err != nil {
		h.lookupFailed(w, "/api/schema", err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (h *Handler) Domains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"domains": h.resolver.Domains()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, endpoint string) (*Payload, input.Node, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("read_body_failed", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return nil, nil, false
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		logger.Warn("invalid_json", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, nil, false
	}
	if p.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return nil, nil, false
	}

	if string(p.Request) == "null" {
		p.Request = nil
	}
	// request keeps its key order, so it goes through the ordered parser
	raw, err := input.Parse(p.Request)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return nil, nil, false
	}
	logger.Debug("request", map[string]any{
		"endpoint": endpoint,
		"payload":  json.RawMessage(body),
	})
	return &p, raw, true
}

// role picks the token claim when the request is authenticated; a token
// without the claim gets the default role rather than the self-declared one.
func (h *Handler) role(r *http.Request, declared string) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if role := claims.Role(h.roleClaim); role != "" {
			return role
		}
		return model.DefaultRole
	}
	if declared != "" {
		return declared
	}
	if header := r.Header.Get("X-Role"); header != "" {
		return header
	}
	return model.DefaultRole
}

func (h *Handler) lookupFailed(w http.ResponseWriter, endpoint string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrUnknownDomain):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrUnknownRole):
		status = http.StatusForbidden
	}
	logger.Warn("resolver_error", map[string]any{
		"endpoint": endpoint,
		"status":   status,
		"error":    err.Error(),
	})
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
