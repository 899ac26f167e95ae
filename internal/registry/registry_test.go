package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/expr"
	"github.com/shaiso/Chrono/internal/store"
)

// fakeStore — табличное хранилище в памяти.
type fakeStore struct {
	tables map[string]map[string]store.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]map[string]store.Row{}}
}

func (f *fakeStore) ReadAll(_ context.Context, table string) ([]store.Row, error) {
	rows, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNoTable, table)
	}
	var out []store.Row
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStore) ReadOne(_ context.Context, table string, where store.Row) (store.Row, error) {
	rows, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNoTable, table)
	}
	for _, row := range rows {
		match := true
		for col, want := range where {
			if row[col] != want {
				match = false
				break
			}
		}
		if match {
			return row, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Upsert(_ context.Context, table string, rows []store.Row, keyCols []string) error {
	if f.tables[table] == nil {
		f.tables[table] = map[string]store.Row{}
	}
	for _, row := range rows {
		var key []string
		for _, col := range keyCols {
			key = append(key, fmt.Sprint(row[col]))
		}
		f.tables[table][strings.Join(key, "|")] = row
	}
	return nil
}

func (f *fakeStore) Exec(_ context.Context, stmt string, args ...any) error {
	// Поддерживается только DELETE ... WHERE "id" = ?
	if strings.HasPrefix(stmt, "DELETE FROM") && len(args) == 1 {
		for _, rows := range f.tables {
			delete(rows, fmt.Sprint(args[0]))
		}
	}
	return nil
}

func (f *fakeStore) Dialect() string { return store.DialectSQLite }
func (f *fakeStore) Close()          {}

func TestRegister_NewEvent(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg := New(Config{Store: fs, Now: func() time.Time { return now }})

	err := reg.Register(context.Background(), "every 1 day", "reports", "daily",
		[]any{"a"}, map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	row, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "reports|daily"})
	if err != nil {
		t.Fatalf("event not stored: %v", err)
	}

	event, err := domain.EventFromRow(row)
	if err != nil {
		t.Fatalf("decode stored event: %v", err)
	}
	if event.Query != "every 1 day" {
		t.Errorf("query = %q", event.Query)
	}
	if !event.Last.Equal(now) {
		t.Errorf("last = %v, want %v", event.Last, now)
	}
	if len(event.Args) != 1 || event.Args[0] != "a" {
		t.Errorf("args = %v", event.Args)
	}
}

func TestRegister_SameQueryPreservesLast(t *testing.T) {
	fs := newFakeStore()
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	current := first
	reg := New(Config{Store: fs, Now: func() time.Time { return current }})

	ctx := context.Background()
	if err := reg.Register(ctx, "every 1 day", "reports", "daily", nil, nil); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	current = later
	if err := reg.Register(ctx, "every 1 day", "reports", "daily", nil, nil); err != nil {
		t.Fatalf("second Register error: %v", err)
	}

	row, _ := fs.ReadOne(ctx, domain.EventsTable, store.Row{"id": "reports|daily"})
	event, err := domain.EventFromRow(row)
	if err != nil {
		t.Fatalf("decode stored event: %v", err)
	}
	if !event.Last.Equal(first) {
		t.Errorf("last = %v, want preserved %v", event.Last, first)
	}
}

func TestRegister_ChangedQueryResetsLast(t *testing.T) {
	fs := newFakeStore()
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	current := first
	reg := New(Config{Store: fs, Now: func() time.Time { return current }})

	ctx := context.Background()
	if err := reg.Register(ctx, "every 1 day", "reports", "daily", nil, nil); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	current = later
	if err := reg.Register(ctx, "every 2 hours", "reports", "daily", nil, nil); err != nil {
		t.Fatalf("second Register error: %v", err)
	}

	row, _ := fs.ReadOne(ctx, domain.EventsTable, store.Row{"id": "reports|daily"})
	event, err := domain.EventFromRow(row)
	if err != nil {
		t.Fatalf("decode stored event: %v", err)
	}
	if event.Query != "every 2 hours" {
		t.Errorf("query = %q", event.Query)
	}
	if !event.Last.Equal(later) {
		t.Errorf("last = %v, want reset to %v", event.Last, later)
	}
}

func TestRegister_InvalidQueryPersistsNothing(t *testing.T) {
	fs := newFakeStore()
	reg := New(Config{Store: fs})

	err := reg.Register(context.Background(), "every banana hours", "reports", "daily", nil, nil)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !errors.Is(err, expr.ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}

	var serr *expr.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %T", err)
	}
	if serr.Token != "banana" {
		t.Errorf("offending token = %q, want %q", serr.Token, "banana")
	}

	if _, ok := fs.tables[domain.EventsTable]; ok {
		t.Error("nothing must be persisted on syntax error")
	}
}
