// Package registry реализует путь регистрации events.
//
// Регистрация — явный вызов Register из startup-кода приложения
// или из CLI; никаких side effects при импорте. Вызов идемпотентен:
// повторная регистрация той же пары module/func перезаписывает
// существующую запись по ID.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/expr"
	"github.com/shaiso/Chrono/internal/store"
)

// Registry регистрирует events в store.
type Registry struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Config — конфигурация Registry.
type Config struct {
	// Store — табличное хранилище.
	Store store.Store

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Now — источник времени (default: time.Now). Для тестов.
	Now func() time.Time
}

// New создаёт новый Registry.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:  cfg.Store,
		logger: logger,
		now:    now,
	}
}

// Register валидирует выражение и делает upsert записи event.
//
// Валидация синхронная: при ошибке возвращается *expr.SyntaxError
// и в store ничего не пишется. Существующий last сохраняется,
// если текст выражения не изменился; смена выражения сбрасывает
// last на текущее время.
func (r *Registry) Register(ctx context.Context, query, module, fn string, args []any, kwargs map[string]any) error {
	if err := expr.Validate(query); err != nil {
		return err
	}

	event := &domain.Event{
		ID:     domain.EventID(module, fn),
		Query:  query,
		Last:   r.now().UTC(),
		Module: module,
		Func:   fn,
		Args:   args,
		Kwargs: kwargs,
	}

	existing, err := r.store.ReadOne(ctx, domain.EventsTable, store.Row{"id": event.ID})
	switch {
	case err == nil:
		prev, derr := domain.EventFromRow(existing)
		if derr == nil && prev.Query == query {
			event.Last = prev.Last
		}
		r.logger.Info("modifying event", "module", module, "func", fn)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNoTable):
		r.logger.Info("adding event", "module", module, "func", fn)
	default:
		return fmt.Errorf("read existing event: %w", err)
	}

	row, err := event.Row()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}
	if err := r.store.Upsert(ctx, domain.EventsTable, []store.Row{row}, []string{"id"}); err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// Delete удаляет запись event по ID.
func (r *Registry) Delete(ctx context.Context, id string) error {
	stmt := `DELETE FROM "events" WHERE "id" = ` + store.Placeholder(r.store.Dialect(), 1)
	return r.store.Exec(ctx, stmt, id)
}
