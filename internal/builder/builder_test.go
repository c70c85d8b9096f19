package builder

import (
	"strings"
	"testing"

	"DomainQL/internal/input"
	"DomainQL/internal/operator"
	"DomainQL/internal/query"
	"DomainQL/internal/schema"

	"github.com/google/go-cmp/cmp"
)

func courseDomain(t *testing.T) *schema.Domain {
	t.Helper()
	courseType, err := schema.NewDomain("course_type", "admin", []string{"id"}, schema.NewObject().
		Add("id", &schema.Scalar{Default: ""}).
		Add("name", &schema.Scalar{Default: ""}))
	if err != nil {
		t.Fatalf("NewDomain(course_type): %v", err)
	}
	lesson, err := schema.NewDomain("lesson", "admin", []string{"id"}, schema.NewObject().
		Add("id", &schema.Scalar{Default: ""}).
		Add("title", &schema.Scalar{Default: ""}))
	if err != nil {
		t.Fatalf("NewDomain(lesson): %v", err)
	}
	course, err := schema.NewDomain("course", "admin", []string{"id"}, schema.NewObject().
		Add("id", &schema.Scalar{Default: ""}).
		Add("name", &schema.Scalar{Default: ""}).
		Add("status", &schema.Scalar{Default: "", Authorized: []any{"open", "closed"}}).
		Add("hours", &schema.Scalar{Default: 0, Caps: operator.Capabilities{ByRange: true}}).
		Add("type", schema.NewLinked("course_type")).
		Add("lessons", schema.NewLinkedArray("lesson")))
	if err != nil {
		t.Fatalf("NewDomain(course): %v", err)
	}
	byName := map[string]*schema.Domain{"course_type": courseType, "lesson": lesson}
	if err := course.Bind(func(name string) (*schema.Domain, error) { return byName[name], nil }); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return course
}

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := New(courseDomain(t), DefaultOptions)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func build(b *Builder, raw map[string]any) (*query.DomainRequest, []query.InputError) {
	return b.Build(input.MustFromAny(raw))
}

func TestNewRejectsMissingDomain(t *testing.T) {
	if _, err := New(nil, DefaultOptions); err == nil {
		t.Fatalf("expected error for nil domain")
	}
	d := courseDomain(t)
	d.NaturalKey = nil
	if _, err := New(d, DefaultOptions); err == nil {
		t.Fatalf("expected error for empty natural key")
	}
}

func TestBuildDefaults(t *testing.T) {
	b := newBuilder(t)
	req, errs := build(b, map[string]any{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if req.Name != "course" || req.Options.Pagination != (query.Pagination{Offset: 0, Limit: 100}) || req.Options.OrderBy != nil {
		t.Fatalf("unexpected defaults: %+v", req)
	}
	if diff := cmp.Diff(map[string]any{"id": true}, req.Fields.Tree()); diff != "" {
		t.Fatalf("natural key must be selected (-want +got):\n%s", diff)
	}
	if len(req.Filters.And) != 1 || req.Filters.And[0].Field != "status" || len(req.Filters.And[0].AnyOf) != 2 {
		t.Fatalf("expected implicit status restriction, got %+v", req.Filters.And)
	}
}

func TestBuildFieldsAndFilters(t *testing.T) {
	b := newBuilder(t)
	req, errs := build(b, map[string]any{
		"fields":  map[string]any{"name": true, "status": 1, "type": map[string]any{"name": true}},
		"filters": map[string]any{"name": map[string]any{"operator": "equals", "value": "Arts"}},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := map[string]any{"name": true, "status": true, "type": map[string]any{"name": true}, "id": true}
	if diff := cmp.Diff(want, req.Fields.Tree()); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", "status", "type", "id"}, req.Fields.Names()); diff != "" {
		t.Fatalf("field order (-want +got):\n%s", diff)
	}
	if req.Filters.And[0].Comparison == nil || req.Filters.And[0].Comparison.Value != "Arts" {
		t.Fatalf("explicit filter missing: %+v", req.Filters.And)
	}
}

func TestBuildKeepsGoingAfterErrors(t *testing.T) {
	b := newBuilder(t)
	req, errs := build(b, map[string]any{
		"fields":  map[string]any{"name": true, "nmae": true},
		"filters": map[string]any{"hours": map[string]any{"operator": "between", "value": []any{1}}},
		"options": map[string]any{"limit": 10},
		"extra":   true,
	})
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	if !req.Fields.Has("name") || req.Options.Pagination.Limit != 10 {
		t.Fatalf("valid parts must survive: %+v", req)
	}
}

func TestBuildLimit(t *testing.T) {
	b := newBuilder(t)
	cases := map[string]struct {
		limit   any
		want    int
		wantErr bool
	}{
		"clamped":      {10000, 5000, false},
		"exact max":    {5000, 5000, false},
		"small":        {20, 20, false},
		"float whole":  {float64(30), 30, false},
		"non numeric":  {"lots", 100, true},
		"fractional":   {2.5, 100, true},
		"negative":     {-1, 100, true},
		"object value": {map[string]any{"n": 1}, 100, true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			req, errs := build(b, map[string]any{"options": map[string]any{"limit": c.limit}})
			if req.Options.Pagination.Limit != c.want {
				t.Fatalf("limit = %d, want %d", req.Options.Pagination.Limit, c.want)
			}
			if c.wantErr != (len(errs) == 1) {
				t.Fatalf("errors = %v, wantErr %v", errs, c.wantErr)
			}
			if c.wantErr && (errs[0].Context != query.ContextOption || errs[0].FieldName != "limit") {
				t.Fatalf("unexpected error %+v", errs[0])
			}
		})
	}
}

func TestBuildRoleMaxLimit(t *testing.T) {
	b, err := New(courseDomain(t), Options{DefaultLimit: 500, MaxLimit: 200})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, _ := build(b, map[string]any{})
	if req.Options.Pagination.Limit != 200 {
		t.Fatalf("default limit must not exceed max, got %d", req.Options.Pagination.Limit)
	}
	req, _ = build(b, map[string]any{"options": map[string]any{"limit": 300}})
	if req.Options.Pagination.Limit != 200 {
		t.Fatalf("expected clamp to 200, got %d", req.Options.Pagination.Limit)
	}
}

func TestBuildOffset(t *testing.T) {
	b := newBuilder(t)
	req, errs := build(b, map[string]any{"options": map[string]any{"offset": 40}})
	if len(errs) != 0 || req.Options.Pagination.Offset != 40 {
		t.Fatalf("offset = %d, errs %v", req.Options.Pagination.Offset, errs)
	}
	req, errs = build(b, map[string]any{"options": map[string]any{"offset": "x"}})
	if len(errs) != 1 || req.Options.Pagination.Offset != 0 {
		t.Fatalf("non-numeric offset must keep default, got %d, errs %v", req.Options.Pagination.Offset, errs)
	}
}

func TestBuildOrderBy(t *testing.T) {
	b := newBuilder(t)
	ok := map[string]query.OrderBy{
		"name desc":      {Field: []string{"name"}, Direction: query.Desc},
		"type.name ASC":  {Field: []string{"type", "name"}, Direction: query.Asc},
		"  hours   asc ": {Field: []string{"hours"}, Direction: query.Asc},
	}
	for in, want := range ok {
		req, errs := build(b, map[string]any{"options": map[string]any{"orderby": in}})
		if len(errs) != 0 {
			t.Fatalf("%q: unexpected errors %v", in, errs)
		}
		if diff := cmp.Diff(&want, req.Options.OrderBy); diff != "" {
			t.Fatalf("%q (-want +got):\n%s", in, diff)
		}
	}

	bad := map[string]string{
		"name":              "expected",
		"name sideways":     "unknown direction",
		"colour asc":        "unknown field",
		"lessons.title asc": "list",
		"Name asc":          "snake_case",
		"name asc extra":    "expected",
	}
	for in, reason := range bad {
		req, errs := build(b, map[string]any{"options": map[string]any{"orderby": in}})
		if len(errs) != 1 || !strings.Contains(errs[0].Reason, reason) {
			t.Fatalf("%q: expected error containing %q, got %v", in, reason, errs)
		}
		if req.Options.OrderBy != nil {
			t.Fatalf("%q: orderby must stay unset", in)
		}
	}
}

func TestBuildUnknownOption(t *testing.T) {
	b := newBuilder(t)
	_, errs := build(b, map[string]any{"options": map[string]any{"page": 2}})
	if len(errs) != 1 || errs[0].Reason != "unknown option" {
		t.Fatalf("expected unknown option error, got %v", errs)
	}
}

func TestBuildJSON(t *testing.T) {
	b := newBuilder(t)
	req, errs := b.BuildJSON([]byte(`{"fields":{"status":true},"filters":{"status":{"operator":"equals","value":"archived"}}}`))
	if len(errs) != 1 || !strings.Contains(errs[0].Reason, "not authorized") {
		t.Fatalf("expected authorization error, got %v", errs)
	}
	if f := req.Filters.And[0]; f.Field != "status" || len(f.AnyOf) != 2 {
		t.Fatalf("implicit restriction must remain, got %+v", req.Filters.And)
	}

	_, errs = b.BuildJSON([]byte(`{"fields": [`))
	if len(errs) != 1 || errs[0].FieldName != "request" {
		t.Fatalf("expected parse error, got %v", errs)
	}
}
