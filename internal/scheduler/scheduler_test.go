package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/store"
)

// fakeStore — in-memory store для тиков.
type fakeStore struct {
	tables map[string]map[string]store.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]map[string]store.Row{}}
}

func (f *fakeStore) ReadAll(_ context.Context, table string) ([]store.Row, error) {
	rows, ok := f.tables[table]
	if !ok {
		return nil, store.ErrNoTable
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
		return nil, store.ErrNoTable
	}
	for _, row := range rows {
		match := true
		for k, v := range where {
			if row[k] != v {
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
			key = append(key, toString(row[col]))
		}
		f.tables[table][strings.Join(key, "|")] = row
	}
	return nil
}

func (f *fakeStore) Exec(_ context.Context, stmt string, args ...any) error {
	if !strings.HasPrefix(stmt, "DELETE FROM") {
		return nil
	}
	for _, rows := range f.tables {
		for key, row := range rows {
			if row["id"] == args[0] {
				delete(rows, key)
			}
		}
	}
	return nil
}

func (f *fakeStore) Dialect() string { return store.DialectSQLite }
func (f *fakeStore) Close()          {}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// fakeExecutor записывает submit'ы и умеет падать.
type fakeExecutor struct {
	invocations []*domain.Invocation
	err         error
}

func (f *fakeExecutor) Submit(_ context.Context, inv *domain.Invocation) error {
	if f.err != nil {
		return f.err
	}
	f.invocations = append(f.invocations, inv)
	return nil
}

// fakeNotifier записывает уведомления.
type fakeNotifier struct {
	fired []*domain.Invocation
}

func (f *fakeNotifier) EventFired(_ context.Context, inv *domain.Invocation) error {
	f.fired = append(f.fired, inv)
	return nil
}

func putEvent(t *testing.T, fs *fakeStore, query string, last time.Time) *domain.Event {
	t.Helper()

	event := &domain.Event{
		ID:     domain.EventID("jobs", "sync"),
		Query:  query,
		Last:   last,
		Module: "jobs",
		Func:   "sync",
	}
	row, err := event.Row()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	if err := fs.Upsert(context.Background(), domain.EventsTable, []store.Row{row}, []string{"id"}); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func newTestScheduler(fs *fakeStore, exec *fakeExecutor, mutate func(*Config)) *Scheduler {
	cfg := Config{
		Store:    fs,
		Executor: exec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestTick_RecurringEventAdvancesLast(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{}
	sched := newTestScheduler(fs, exec, nil)

	last := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	putEvent(t, fs, "every 1 hour", last)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	if len(exec.invocations) != 1 {
		t.Fatalf("submitted %d invocations, want 1", len(exec.invocations))
	}

	row, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "jobs|sync"})
	if err != nil {
		t.Fatalf("recurring event should survive firing: %v", err)
	}
	gotLast, ok := row["last"].(time.Time)
	if !ok || !gotLast.Equal(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("last = %v, want tick time", row["last"])
	}
}

func TestTick_OneShotEventIsDeleted(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{}
	sched := newTestScheduler(fs, exec, nil)

	last := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)
	putEvent(t, fs, "in 10 minutes", last)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	if len(exec.invocations) != 1 {
		t.Fatalf("submitted %d invocations, want 1", len(exec.invocations))
	}
	if _, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "jobs|sync"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("one-shot event should be deleted after firing, got err %v", err)
	}
}

func TestTick_NotDueEventIsUntouched(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{}
	sched := newTestScheduler(fs, exec, nil)

	last := time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC)
	putEvent(t, fs, "every 1 hour", last)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	if len(exec.invocations) != 0 {
		t.Fatalf("submitted %d invocations, want 0", len(exec.invocations))
	}
	row, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "jobs|sync"})
	if err != nil {
		t.Fatalf("event should remain: %v", err)
	}
	gotLast, _ := row["last"].(time.Time)
	if !gotLast.Equal(last) {
		t.Errorf("last = %v, want unchanged %v", gotLast, last)
	}
}

func TestTick_MalformedExpressionIsPruned(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{}
	sched := newTestScheduler(fs, exec, nil)

	putEvent(t, fs, "whenever the mood strikes", time.Now().UTC())

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	if len(exec.invocations) != 0 {
		t.Fatalf("malformed event must not fire, got %d invocations", len(exec.invocations))
	}
	if _, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "jobs|sync"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("malformed event should be pruned, got err %v", err)
	}
}

func TestTick_SubmitFailureKeepsEvent(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{err: errors.New("spawn failed")}
	sched := newTestScheduler(fs, exec, nil)

	last := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	putEvent(t, fs, "every 1 hour", last)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	// Событие остаётся due и будет повторено следующим тиком.
	row, err := fs.ReadOne(context.Background(), domain.EventsTable, store.Row{"id": "jobs|sync"})
	if err != nil {
		t.Fatalf("event should remain after submit failure: %v", err)
	}
	gotLast, _ := row["last"].(time.Time)
	if !gotLast.Equal(last) {
		t.Errorf("last = %v, want unchanged %v", gotLast, last)
	}
}

func TestTick_MissingTableSurfacesErrNoTable(t *testing.T) {
	fs := newFakeStore()
	sched := newTestScheduler(fs, &fakeExecutor{}, nil)

	err := sched.Tick(context.Background())
	if !errors.Is(err, store.ErrNoTable) {
		t.Errorf("expected ErrNoTable, got %v", err)
	}
}

func TestTick_AuditRecordsTrigger(t *testing.T) {
	fs := newFakeStore()
	exec := &fakeExecutor{}
	notifier := &fakeNotifier{}
	sched := newTestScheduler(fs, exec, func(cfg *Config) {
		cfg.Audit = true
		cfg.Notifier = notifier
	})

	event := &domain.Event{
		ID:     domain.EventID("jobs", "sync"),
		Query:  "every 1 hour",
		Last:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Module: "jobs",
		Func:   "sync",
		Args:   []any{"full"},
		Kwargs: map[string]any{"retries": float64(3)},
	}
	row, err := event.Row()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	if err := fs.Upsert(context.Background(), domain.EventsTable, []store.Row{row}, []string{"id"}); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("Tick error: %v", err)
	}

	triggers, err := fs.ReadAll(context.Background(), domain.TriggersTable)
	if err != nil || len(triggers) != 1 {
		t.Fatalf("triggers = %v (err %v), want one audit row", triggers, err)
	}
	if triggers[0]["module"] != "jobs" || triggers[0]["func"] != "sync" {
		t.Errorf("trigger row = %v", triggers[0])
	}
	if triggers[0]["args"] != `["full"]` {
		t.Errorf("trigger args = %v, want snapshot of event args", triggers[0]["args"])
	}
	if len(notifier.fired) != 1 {
		t.Errorf("notified %d times, want 1", len(notifier.fired))
	}
}
