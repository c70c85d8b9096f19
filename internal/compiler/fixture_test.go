package compiler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"DomainQL/internal/builder"
	"DomainQL/internal/db"
	"DomainQL/internal/mapping"
	"DomainQL/internal/operator"
	"DomainQL/internal/schema"
)

// recorder is an executor answering from a function and remembering every statement.
type recorder struct {
	mu         sync.Mutex
	statements []string
	respond    func(sql string) ([]db.Row, error)
}

func (r *recorder) Query(_ context.Context, sql string) ([]db.Row, error) {
	r.mu.Lock()
	r.statements = append(r.statements, sql)
	r.mu.Unlock()
	if r.respond == nil {
		return nil, nil
	}
	return r.respond(sql)
}

func (r *recorder) matching(fragment string) []string {
	var out []string
	for _, s := range r.statements {
		if strings.Contains(s, fragment) {
			out = append(out, s)
		}
	}
	return out
}

func isCount(sql string) bool {
	return strings.HasPrefix(sql, "SELECT COUNT(*)")
}

func column(t *testing.T, name, converter string) *mapping.Column {
	t.Helper()
	c, err := mapping.LookupConverter(converter)
	if err != nil {
		t.Fatalf("LookupConverter: %v", err)
	}
	return &mapping.Column{Name: name, Converter: c}
}

// mappings returns bound tables for course, course_type, lesson and teacher.
func mappings(t *testing.T) map[string]*mapping.Table {
	t.Helper()
	schedule := mapping.NewEmbedded()
	schedule.Add("startsOn", column(t, "starts_on", "date"))
	roots := map[string]struct {
		table string
		root  *mapping.Object
	}{
		"course": {"courses", mapping.NewObject().
			Add("id", column(t, "id", "id")).
			Add("name", column(t, "name", "string")).
			Add("status", column(t, "status", "string")).
			Add("isOpen", column(t, "is_open", "boolean")).
			Add("schedule", schedule).
			Add("type", mapping.NewOneToOne("course_type", "id_type")).
			Add("lessons", mapping.NewOneToMany("lesson", "id_course")).
			Add("teachers", mapping.NewManyToMany("teacher", "course_teachers", "id_course", "id_teacher"))},
		"course_type": {"course_types", mapping.NewObject().
			Add("id", column(t, "id", "id")).
			Add("name", column(t, "name", "string")).
			Add("courses", mapping.NewOneToMany("course", "id_type"))},
		"lesson": {"lessons", mapping.NewObject().
			Add("id", column(t, "id", "id")).
			Add("title", column(t, "title", "string"))},
		"teacher": {"teachers", mapping.NewObject().
			Add("id", column(t, "id", "id")).
			Add("name", column(t, "name", "string"))},
	}
	out := map[string]*mapping.Table{}
	for domain, def := range roots {
		tbl, err := mapping.NewTable(domain, def.table, "id", def.root)
		if err != nil {
			t.Fatalf("NewTable: %v", err)
		}
		out[domain] = tbl
	}
	for _, tbl := range out {
		if err := tbl.Bind(func(d string) (*mapping.Table, error) { return out[d], nil }); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}
	return out
}

// courseBuilder is the admin view of course, linked to the other domains.
func courseBuilder(t *testing.T) *builder.Builder {
	t.Helper()
	defs := map[string]*schema.Object{
		"course": schema.NewObject().
			Add("id", &schema.Scalar{Default: ""}).
			Add("name", &schema.Scalar{Default: "", Caps: operator.Capabilities{ByList: true}}).
			Add("status", &schema.Scalar{Default: ""}).
			Add("isOpen", &schema.Scalar{Default: false}).
			Add("schedule", schema.NewObject().Add("startsOn", &schema.Scalar{Default: "1970-01-01", Caps: operator.Capabilities{ByRange: true}})).
			Add("type", schema.NewLinked("course_type")).
			Add("lessons", schema.NewLinkedArray("lesson")).
			Add("teachers", schema.NewLinkedArray("teacher")),
		"course_type": schema.NewObject().
			Add("id", &schema.Scalar{Default: ""}).
			Add("name", &schema.Scalar{Default: ""}).
			Add("courses", schema.NewLinkedArray("course")),
		"lesson": schema.NewObject().
			Add("id", &schema.Scalar{Default: ""}).
			Add("title", &schema.Scalar{Default: ""}),
		"teacher": schema.NewObject().
			Add("id", &schema.Scalar{Default: ""}).
			Add("name", &schema.Scalar{Default: ""}),
	}
	domains := map[string]*schema.Domain{}
	for name, root := range defs {
		d, err := schema.NewDomain(name, "admin", []string{"id"}, root)
		if err != nil {
			t.Fatalf("NewDomain: %v", err)
		}
		domains[name] = d
	}
	for _, d := range domains {
		if err := d.Bind(func(n string) (*schema.Domain, error) { return domains[n], nil }); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}
	b, err := builder.New(domains["course"], builder.DefaultOptions)
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}
	return b
}
