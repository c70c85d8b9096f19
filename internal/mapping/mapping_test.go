package mapping

import (
	"strings"
	"testing"
	"time"

	"DomainQL/internal/operator"
	"DomainQL/internal/query"

	"github.com/google/go-cmp/cmp"
)

func conv(t *testing.T, name string) *Converter {
	t.Helper()
	c, err := LookupConverter(name)
	if err != nil {
		t.Fatalf("LookupConverter(%s): %v", name, err)
	}
	return c
}

func col(t *testing.T, name, converter string) *Column {
	return &Column{Name: name, Converter: conv(t, converter)}
}

// tables builds courses, course_types, lessons and teachers, bound to each other.
func tables(t *testing.T) map[string]*Table {
	t.Helper()
	schedule := NewEmbedded()
	schedule.Add("startsOn", col(t, "starts_on", "date"))
	courses := NewObject().
		Add("id", col(t, "id", "id")).
		Add("name", col(t, "name", "string")).
		Add("status", col(t, "status", "string")).
		Add("isOpen", col(t, "is_open", "boolean")).
		Add("schedule", schedule).
		Add("type", NewOneToOne("course_type", "id_type")).
		Add("previousType", NewOneToOne("course_type", "id_previous_type")).
		Add("lessons", NewOneToMany("lesson", "id_course")).
		Add("teachers", NewManyToMany("teacher", "course_teachers", "id_course", "id_teacher"))
	types := NewObject().
		Add("id", col(t, "id", "id")).
		Add("name", col(t, "name", "string")).
		Add("courses", NewOneToMany("course", "id_type"))
	lessons := NewObject().
		Add("id", col(t, "id", "id")).
		Add("title", col(t, "title", "string"))
	teachers := NewObject().
		Add("id", col(t, "id", "id")).
		Add("name", col(t, "name", "text"))

	out := map[string]*Table{}
	for domain, def := range map[string]struct {
		table string
		root  *Object
	}{
		"course":      {"courses", courses},
		"course_type": {"course_types", types},
		"lesson":      {"lessons", lessons},
		"teacher":     {"teachers", teachers},
	} {
		tbl, err := NewTable(domain, def.table, "id", def.root)
		if err != nil {
			t.Fatalf("NewTable(%s): %v", domain, err)
		}
		out[domain] = tbl
	}
	for _, tbl := range out {
		if err := tbl.Bind(func(d string) (*Table, error) { return out[d], nil }); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}
	return out
}

func fields(names ...any) *query.FieldSet {
	set := query.NewFieldSet()
	for i := 0; i < len(names); i++ {
		name := names[i].(string)
		if i+1 < len(names) {
			if sub, ok := names[i+1].(*query.FieldSet); ok {
				set.Attach(name, sub)
				i++
				continue
			}
		}
		set.Select(name)
	}
	return set
}

func aliases(p *Plan) []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Alias
	}
	return out
}

func TestPlanColumnsAndJoins(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("name", "type", fields("name"), "id"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"courses$id", "courses$name", "course_types$id", "course_types$name"}, aliases(p)); diff != "" {
		t.Fatalf("aliases (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name"}, p.Columns[1].Path); diff != "" {
		t.Fatalf("path (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"type", "name"}, p.Columns[3].Path); diff != "" {
		t.Fatalf("joined path (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"id"}, p.Columns[0].Path); diff != "" {
		t.Fatalf("selected key must reuse the hidden column (-want +got):\n%s", diff)
	}
	if p.Columns[2].Path != nil {
		t.Fatalf("joined key column must stay hidden")
	}
	want := []Join{{Table: "course_types", Alias: "course_types", On: "courses.id_type = course_types.id"}}
	if diff := cmp.Diff(want, p.Joins); diff != "" {
		t.Fatalf("joins (-want +got):\n%s", diff)
	}
	if p.Joins[0].SQL() != "course_types ON courses.id_type = course_types.id" {
		t.Fatalf("join sql: %s", p.Joins[0].SQL())
	}
	if diff := cmp.Diff([]Optional{{Path: []string{"type"}, KeyAlias: "course_types$id"}}, p.Optional); diff != "" {
		t.Fatalf("optional (-want +got):\n%s", diff)
	}
	if got := p.Columns[3].SQL(); got != `course_types.name AS "course_types$name"` {
		t.Fatalf("column sql: %s", got)
	}
}

func TestPlanDeduplicatesJoinAliases(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("type", fields("name"), "previousType", fields("name")))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(p.Joins) != 2 || p.Joins[1].Alias != "course_types_2" {
		t.Fatalf("expected a second alias, got %+v", p.Joins)
	}
	if p.Joins[1].SQL() != "course_types AS course_types_2 ON courses.id_previous_type = course_types_2.id" {
		t.Fatalf("join sql: %s", p.Joins[1].SQL())
	}
	last := p.Columns[len(p.Columns)-1]
	if last.Alias != "course_types_2$name" || last.Expr != "course_types_2.name" {
		t.Fatalf("unexpected column %+v", last)
	}
}

func TestPlanEmbeddedAndRelations(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("schedule", fields("startsOn"), "lessons", fields("title"), "teachers", fields("name")))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"courses$id", "courses$starts_on"}, aliases(p)); diff != "" {
		t.Fatalf("relations must not add columns (-want +got):\n%s", diff)
	}
	if len(p.Joins) != 0 {
		t.Fatalf("relations must not join: %+v", p.Joins)
	}
	if len(p.Relations) != 2 || p.Relations[0].ParentKey != "courses$id" {
		t.Fatalf("unexpected relations %+v", p.Relations)
	}
	if diff := cmp.Diff([]string{"schedule", "starts_on"}, p.Columns[1].Path); diff != "" {
		t.Fatalf("embedded path (-want +got):\n%s", diff)
	}
}

func TestPlanErrors(t *testing.T) {
	course := tables(t)["course"]
	if _, err := course.Plan(fields("colour")); err == nil {
		t.Fatalf("unmapped field must fail")
	}
	if _, err := course.Plan(fields("type")); err == nil {
		t.Fatalf("relation without nested selection must fail")
	}

	loose, _ := NewTable("course", "courses", "id", NewObject().
		Add("type", NewOneToOne("course_type", "id_type")))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unbound relation")
		}
	}()
	loose.Plan(fields("type", fields("name")))
}

func TestWhere(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("name"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	nested := query.NewFilterTree()
	nested.Add(query.And, query.Filter{Field: "name", Comparison: &query.Comparison{Operator: operator.Contains, Value: "Col"}})
	filters := query.NewFilterTree()
	filters.Add(query.And, query.Filter{Field: "name", Comparison: &query.Comparison{Operator: operator.Equals, Value: "Arts"}})
	filters.Add(query.And, query.Filter{Field: "status", AnyOf: []query.Comparison{
		{Operator: operator.Equals, Value: "open"},
		{Operator: operator.Equals, Value: "closed"},
	}})
	filters.Add(query.Or, query.Filter{Field: "isOpen", Comparison: &query.Comparison{Operator: operator.Equals, Value: true}})
	filters.Add(query.Or, query.Filter{Field: "type", Nested: nested})

	pred, err := p.Where(filters)
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	sql, args, err := pred.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "(courses.name = 'Arts' AND (courses.status = 'open' OR courses.status = 'closed') AND (courses.is_open = 1 OR (course_types.name LIKE '%Col%')))"
	if sql != want || len(args) != 0 {
		t.Fatalf("where\n got: %s %v\nwant: %s", sql, args, want)
	}
	if len(p.Joins) != 1 || p.Joins[0].Alias != "course_types" {
		t.Fatalf("filter path must add its join, got %+v", p.Joins)
	}
}

func TestWhereEscapesAndDefersRelationFilters(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("lessons", fields("title")))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	lesson := query.NewFilterTree()
	lesson.Add(query.And, query.Filter{Field: "title", Comparison: &query.Comparison{Operator: operator.Equals, Value: "Intro"}})
	filters := query.NewFilterTree()
	filters.Add(query.And, query.Filter{Field: "name", Comparison: &query.Comparison{Operator: operator.Equals, Value: "O'Brien; DROP TABLE courses"}})
	filters.Add(query.And, query.Filter{Field: "lessons", Nested: lesson})

	pred, err := p.Where(filters)
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	sql, _, _ := pred.ToSql()
	if sql != "(courses.name = 'O''Brien; DROP TABLE courses')" {
		t.Fatalf("unexpected where: %s", sql)
	}
	rel := p.Relations[0]
	if len(rel.Filters.And) != 1 || rel.Filters.And[0].Field != "title" {
		t.Fatalf("relation filter must be deferred, got %+v", rel.Filters)
	}

	empty, err := p.Where(query.NewFilterTree())
	if err != nil || empty != nil {
		t.Fatalf("empty filters must render nothing, got %v %v", empty, err)
	}
}

func TestOrderBy(t *testing.T) {
	course := tables(t)["course"]
	p, _ := course.Plan(fields("name"))

	terms, err := p.OrderBy(nil)
	if err != nil || !cmp.Equal([]string{"courses.id ASC"}, terms) {
		t.Fatalf("default order: %v %v", terms, err)
	}
	terms, err = p.OrderBy(&query.OrderBy{Field: []string{"type", "name"}, Direction: query.Desc})
	if err != nil || !cmp.Equal([]string{"course_types.name DESC", "courses.id ASC"}, terms) {
		t.Fatalf("joined order: %v %v", terms, err)
	}
	if len(p.Joins) != 1 {
		t.Fatalf("order path must add its join")
	}
	terms, err = p.OrderBy(&query.OrderBy{Field: []string{"id"}, Direction: query.Desc})
	if err != nil || !cmp.Equal([]string{"courses.id DESC"}, terms) {
		t.Fatalf("key order: %v %v", terms, err)
	}
	if _, err := p.OrderBy(&query.OrderBy{Field: []string{"lessons", "title"}, Direction: query.Asc}); err == nil {
		t.Fatalf("ordering by a list field must fail")
	}
}

func TestFollowUp(t *testing.T) {
	course := tables(t)["course"]
	p, err := course.Plan(fields("lessons", fields("title"), "teachers", fields("name")))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	lessons, err := p.Relations[0].FollowUp()
	if err != nil {
		t.Fatalf("FollowUp(lessons): %v", err)
	}
	if lessons.KeyExpr != "lessons.id_course" || lessons.GroupAlias != "lessons$id_course" {
		t.Fatalf("unexpected follow-up %+v", lessons)
	}
	if diff := cmp.Diff([]string{"lessons$id", "lessons$title", "lessons$id_course"}, aliases(lessons.Plan)); diff != "" {
		t.Fatalf("aliases (-want +got):\n%s", diff)
	}

	teachers, err := p.Relations[1].FollowUp()
	if err != nil {
		t.Fatalf("FollowUp(teachers): %v", err)
	}
	if teachers.KeyExpr != "course_teachers.id_course" || teachers.GroupAlias != "course_teachers$id_course" {
		t.Fatalf("unexpected follow-up %+v", teachers)
	}
	want := Join{Table: "course_teachers", Alias: "course_teachers", On: "course_teachers.id_teacher = teachers.id", Inner: true}
	if diff := cmp.Diff([]Join{want}, teachers.Joins); diff != "" {
		t.Fatalf("junction join (-want +got):\n%s", diff)
	}
}

func TestConverterLiterals(t *testing.T) {
	cases := []struct {
		conv string
		in   any
		want string
	}{
		{"string", "O'Brien", "'O''Brien'"},
		{"text", `a\b`, ` E'a\\b'`},
		{"integer", float64(3), "3"},
		{"number", 2.5, "2.5"},
		{"number", 7, "7"},
		{"boolean", true, "1"},
		{"boolean", false, "0"},
		{"boolean", 1, "1"},
		{"date", "2024-01-02", "'2024-01-02'"},
		{"date", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "'2024-01-02'"},
		{"datetime", "2024-01-02T10:00:00Z", "'2024-01-02T10:00:00Z'"},
		{"id", 12, "12"},
		{"id", "12", "12"},
		{"id", "a-1", "'a-1'"},
	}
	for _, c := range cases {
		got, err := conv(t, c.conv).Literal(c.in)
		if err != nil || got != c.want {
			t.Errorf("%s.Literal(%#v) = %q, %v; want %q", c.conv, c.in, got, err, c.want)
		}
	}

	rejects := []struct {
		conv string
		in   any
	}{
		{"string", 5},
		{"integer", 2.5},
		{"boolean", 2},
		{"date", "yesterday"},
		{"id", true},
		{"string", nil},
	}
	for _, c := range rejects {
		if got, err := conv(t, c.conv).Literal(c.in); err == nil {
			t.Errorf("%s.Literal(%#v) = %q, expected error", c.conv, c.in, got)
		}
	}

	pat, err := conv(t, "string").Pattern("50%'")
	if err != nil || pat != "'%50%''%'" {
		t.Fatalf("Pattern = %q, %v", pat, err)
	}
	if _, err := LookupConverter("money"); err == nil {
		t.Fatalf("unknown converter must fail")
	}
}

func TestConverterFromSQL(t *testing.T) {
	cases := []struct {
		conv string
		in   any
		want any
	}{
		{"id", int64(2), "2"},
		{"id", []byte("7"), "7"},
		{"boolean", int64(1), true},
		{"boolean", []byte("0"), false},
		{"integer", []byte("42"), int64(42)},
		{"number", []byte("1.5"), 1.5},
		{"text", []byte("hi"), "hi"},
		{"date", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "2024-01-02"},
		{"date", "2024-01-02 00:00:00", "2024-01-02"},
		{"string", nil, nil},
	}
	for _, c := range cases {
		if got := conv(t, c.conv).FromSQL(c.in); !cmp.Equal(c.want, got) {
			t.Errorf("%s.FromSQL(%#v) = %#v, want %#v", c.conv, c.in, got, c.want)
		}
	}
}

func TestConverterFor(t *testing.T) {
	cases := map[any]string{"": "string", 0: "integer", 0.5: "number", false: "boolean", "1970-01-01": "date"}
	for def, want := range cases {
		c, err := ConverterFor(def)
		if err != nil || c.Name != want {
			t.Errorf("ConverterFor(%#v) = %v, %v; want %s", def, c, err, want)
		}
	}
	if _, err := ConverterFor([]int{}); err == nil || !strings.Contains(err.Error(), "no primitive type") {
		t.Fatalf("expected error, got %v", err)
	}
}
