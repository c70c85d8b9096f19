package db

import (
	"context"
	"errors"
	"testing"
)

func TestSQLiteExecutorReturnsRowsByAlias(t *testing.T) {
	exec, err := OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer exec.Close()
	exec.DB.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := exec.DB.ExecContext(ctx, `CREATE TABLE courses (id INTEGER PRIMARY KEY, name TEXT); INSERT INTO courses VALUES (1, 'Arts'), (2, 'Maths');`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := exec.Query(ctx, `SELECT courses.id AS "courses$id", courses.name AS "courses$name" FROM courses ORDER BY courses.id ASC`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["courses$id"] != int64(1) || rows[1]["courses$name"] != "Maths" {
		t.Fatalf("unexpected rows %#v", rows)
	}

	if _, err := exec.Query(ctx, "SELECT * FROM missing"); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestExecutorFunc(t *testing.T) {
	boom := errors.New("boom")
	var got string
	exec := ExecutorFunc(func(_ context.Context, sql string) ([]Row, error) {
		got = sql
		return nil, boom
	})
	if _, err := exec.Query(context.Background(), "SELECT 1"); !errors.Is(err, boom) || got != "SELECT 1" {
		t.Fatalf("unexpected call: %q %v", got, err)
	}
}
