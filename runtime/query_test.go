package runtime

import (
	"database/sql"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE measurements (name TEXT, value INTEGER)`,
		`INSERT INTO measurements VALUES ('a', 1), ('b', 2), ('c', 3), ('d', 4)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestQuerySingleColumn(t *testing.T) {
	db := openTestDB(t)
	src := Query(db, `SELECT value FROM measurements ORDER BY value`)

	got := drain(t, src, nil)
	want := []any{int64(1), int64(2), int64(3), int64(4)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQueryMultiColumnYieldsTuples(t *testing.T) {
	db := openTestDB(t)
	src := Query(db, `SELECT name, value FROM measurements WHERE value > ? ORDER BY value`, 2)

	got := drain(t, src, nil)
	want := []any{
		[]any{"c", int64(3)},
		[]any{"d", int64(4)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQueryIsRestartable(t *testing.T) {
	db := openTestDB(t)
	src := Query(db, `SELECT value FROM measurements ORDER BY value`)

	first := drain(t, src, nil)
	second := drain(t, src, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("restart differed: %v vs %v", first, second)
	}
}

func TestQueryErrorSurfacesAtOpen(t *testing.T) {
	db := openTestDB(t)
	src := Query(db, `SELECT nope FROM missing`)
	if _, err := src.Open(nil); err == nil {
		t.Error("bad query opened without error")
	}
}
