package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"DomainQL/internal/auth"
	"DomainQL/internal/db"
	"DomainQL/internal/model"
	"DomainQL/internal/resolver"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu  sync.Mutex
	sql []string
}

func (f *fakeDB) Query(_ context.Context, sql string) ([]db.Row, error) {
	f.mu.Lock()
	f.sql = append(f.sql, sql)
	f.mu.Unlock()
	switch {
	case strings.HasPrefix(sql, "SELECT COUNT(*)"):
		return []db.Row{{"total": int64(1)}}, nil
	case strings.Contains(sql, "FROM teachers"):
		return []db.Row{{"teachers$id": int64(7), "teachers$name": "Ada"}}, nil
	}
	return nil, nil
}

func newHandler(t *testing.T) (*Handler, *fakeDB) {
	t.Helper()
	reg, err := model.LoadRegistry("../../db")
	require.NoError(t, err)
	fake := &fakeDB{}
	res, err := resolver.New(reg, fake)
	require.NoError(t, err)
	return New(res, ""), fake
}

func mux(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/fetch", h.Fetch)
	r.Post("/api/build", h.Build)
	r.Get("/api/schema", h.Domains)
	r.Get("/api/schema/{domain}", h.Schema)
	return r
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func post(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestFetchReturnsDomainResult(t *testing.T) {
	h, _ := newHandler(t)
	code, body := do(t, mux(h), post("/api/fetch", `{"domain":"teacher","role":"admin","request":{"fields":{"name":true}}}`))

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "teacher", body["domainName"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, []any{map[string]any{"id": "7", "name": "Ada"}}, body["results"])
	assert.Equal(t, []any{}, body["errors"])
	report := body["report"].(map[string]any)["requests"].([]any)
	assert.Len(t, report, 2)
}

func TestFetchReportsRequestErrorsWithResults(t *testing.T) {
	h, _ := newHandler(t)
	code, body := do(t, mux(h), post("/api/fetch", `{"domain":"teacher","request":{"fields":{"name":true,"email":true}}}`))

	require.Equal(t, http.StatusOK, code)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1, "email is hidden from the default role")
	assert.Contains(t, errs[0], "email")
	assert.Len(t, body["results"], 1)
}

func TestBuildReturnsSanitizedRequestWithoutSQL(t *testing.T) {
	h, fake := newHandler(t)
	code, body := do(t, mux(h), post("/api/build", `{"domain":"course","request":{"fields":{"name":true},"options":{"limit":"ten"}}}`))

	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, fake.sql)
	req := body["request"].(map[string]any)
	assert.Equal(t, "course", req["name"])
	assert.Equal(t, float64(100), req["options"].(map[string]any)["pagination"].(map[string]any)["limit"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "limit", errs[0].(map[string]any)["fieldName"])
}

func TestLookupStatuses(t *testing.T) {
	h, _ := newHandler(t)
	cases := map[string]struct {
		req  *http.Request
		want int
	}{
		"unknown domain":   {post("/api/fetch", `{"domain":"ghost"}`), http.StatusNotFound},
		"unknown role":     {post("/api/fetch", `{"domain":"course","role":"student"}`), http.StatusForbidden},
		"missing domain":   {post("/api/build", `{"request":{}}`), http.StatusBadRequest},
		"invalid json":     {post("/api/fetch", `{"domain":`), http.StatusBadRequest},
		"schema not found": {httptest.NewRequest(http.MethodGet, "/api/schema/ghost", nil), http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			code, body := do(t, mux(h), tc.req)
			assert.Equal(t, tc.want, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSchemaIsRoleScoped(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/schema/teacher", nil)
	req.Header.Set("X-Role", "admin")
	code, body := do(t, mux(h), req)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "admin", body["role"])
	assert.Contains(t, body["fields"], "email")

	code, body = do(t, mux(h), httptest.NewRequest(http.MethodGet, "/api/schema/teacher", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.DefaultRole, body["role"])
	assert.NotContains(t, body["fields"], "email")

	code, body = do(t, mux(h), httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"course", "course_type", "lesson", "teacher"}, body["domains"])
}

func TestRolePrecedence(t *testing.T) {
	h := &Handler{roleClaim: "role"}

	req := httptest.NewRequest(http.MethodPost, "/api/fetch", nil)
	assert.Equal(t, model.DefaultRole, h.role(req, ""))

	req.Header.Set("X-Role", "admin")
	assert.Equal(t, "admin", h.role(req, ""))
	assert.Equal(t, "student", h.role(req, "student"), "payload role wins over the header")

	withToken := req.WithContext(auth.WithClaims(req.Context(), auth.Claims{"role": "teacher"}))
	assert.Equal(t, "teacher", h.role(withToken, "admin"), "token claim wins when authenticated")

	noClaim := req.WithContext(auth.WithClaims(req.Context(), auth.Claims{"sub": "u1"}))
	assert.Equal(t, model.DefaultRole, h.role(noClaim, "admin"), "authenticated callers cannot declare a role")
}
