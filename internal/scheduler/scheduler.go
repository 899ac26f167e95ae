package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/executor"
	"github.com/shaiso/Chrono/internal/expr"
	"github.com/shaiso/Chrono/internal/store"
)

// Интервалы цикла по умолчанию.
const (
	defaultTickInterval = 2 * time.Second
	defaultBackoff      = 10 * time.Second
)

// Notifier публикует уведомление о сработавшем событии.
// Ошибка публикации не откатывает само срабатывание.
type Notifier interface {
	EventFired(ctx context.Context, inv *domain.Invocation) error
}

// Scheduler — цикл, проверяющий зарегистрированные события и
// запускающий выполнения.
type Scheduler struct {
	st       store.Store
	exec     executor.Executor
	notifier Notifier
	logger   *slog.Logger

	tickInterval time.Duration
	backoff      time.Duration
	audit        bool
	now          func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Store    store.Store
	Executor executor.Executor

	// Notifier — опциональный publisher уведомлений о срабатываниях.
	Notifier Notifier

	Logger *slog.Logger

	// TickInterval — период опроса таблицы events (default: 2s).
	TickInterval time.Duration

	// Backoff — пауза после тика без таблицы events (default: 10s).
	Backoff time.Duration

	// Audit включает запись каждого срабатывания в таблицу
	// event_triggers.
	Audit bool

	// Now подменяет источник времени в тестах (default: time.Now).
	Now func() time.Time
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		st:           cfg.Store,
		exec:         cfg.Executor,
		notifier:     cfg.Notifier,
		logger:       logger,
		tickInterval: tickInterval,
		backoff:      backoff,
		audit:        cfg.Audit,
		now:          now,
	}
}

// Run крутит цикл тиков до отмены контекста.
//
// Отсутствие таблицы events — не ошибка: таблица появляется с первой
// регистрацией, до тех пор цикл ждёт с увеличенной паузой.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		"tick_interval", s.tickInterval,
		"backoff", s.backoff,
	)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			err := s.Tick(ctx)
			if err == nil {
				continue
			}

			if errors.Is(err, store.ErrNoTable) {
				s.logger.Debug("events table does not exist yet, backing off")
				select {
				case <-ctx.Done():
					s.logger.Info("scheduler stopped")
					return
				case <-time.After(s.backoff):
				}
				continue
			}

			s.logger.Error("scheduler tick failed", "error", err)
		}
	}
}

// Tick выполняет один проход по таблице events.
//
// 1. Читает все зарегистрированные события
// 2. Для каждого проверяет выражение и запускает созревшие
// 3. Продвигает last у повторяющихся, удаляет одноразовые
//
// Ошибки одного события не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	rows, err := s.st.ReadAll(ctx, domain.EventsTable)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	ticksTotal.Inc()

	if len(rows) == 0 {
		return nil
	}

	now := s.now().UTC()

	var fired, pruned int
	for _, row := range rows {
		outcome, err := s.processEvent(ctx, row, now)
		if err != nil {
			s.logger.Error("failed to process event",
				"event_id", row["id"],
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		switch outcome {
		case outcomeFired:
			fired++
		case outcomePruned:
			pruned++
		}
	}

	if fired > 0 || pruned > 0 {
		s.logger.Info("scheduler tick completed",
			"events", len(rows),
			"fired", fired,
			"pruned", pruned,
		)
	}
	return nil
}

// outcome — результат обработки одной записи events.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFired
	outcomePruned
)

// processEvent обрабатывает одну запись events.
func (s *Scheduler) processEvent(ctx context.Context, row store.Row, now time.Time) (outcome, error) {
	event, err := domain.EventFromRow(row)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("decode event: %w", err)
	}

	// Хранимое выражение могло быть записано старой версией с другой
	// грамматикой. Такие записи вычищаются, а не роняют цикл.
	if err := expr.Validate(event.Query); err != nil {
		s.logger.Warn("pruning event with invalid expression",
			"event_id", event.ID,
			"query", event.Query,
			"error", err,
		)
		if err := s.deleteEvent(ctx, event.ID); err != nil {
			return outcomeSkipped, err
		}
		eventsPrunedTotal.Inc()
		return outcomePruned, nil
	}

	due, err := expr.Due(event.Query, event.Last, now)
	if err != nil {
		evalFailuresTotal.Inc()
		return outcomeSkipped, fmt.Errorf("evaluate %q: %w", event.Query, err)
	}
	if !due {
		return outcomeSkipped, nil
	}

	inv := domain.NewInvocation(event, now)
	if err := s.exec.Submit(ctx, inv); err != nil {
		// Запись не трогаем: событие останется due и будет
		// повторено на следующем тике.
		return outcomeSkipped, fmt.Errorf("submit execution: %w", err)
	}

	if err := s.advance(ctx, event, now); err != nil {
		return outcomeSkipped, err
	}

	if s.audit {
		// Выполнение уже запущено, аудит не фатален.
		if auditRow, err := inv.Row(); err != nil {
			s.logger.Warn("failed to encode trigger",
				"execution_id", inv.ExecutionID,
				"error", err,
			)
		} else if err := s.st.Upsert(ctx, domain.TriggersTable, []store.Row{auditRow}, []string{"id"}); err != nil {
			s.logger.Warn("failed to record trigger",
				"execution_id", inv.ExecutionID,
				"error", err,
			)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.EventFired(ctx, inv); err != nil {
			s.logger.Warn("failed to publish event.fired",
				"execution_id", inv.ExecutionID,
				"error", err,
			)
		}
	}

	eventsFiredTotal.Inc()
	return outcomeFired, nil
}

// advance фиксирует срабатывание: у повторяющихся событий
// продвигается last, одноразовые удаляются.
func (s *Scheduler) advance(ctx context.Context, event *domain.Event, now time.Time) error {
	if !expr.IsRecurring(event.Query) {
		return s.deleteEvent(ctx, event.ID)
	}

	event.Last = now
	row, err := event.Row()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.st.Upsert(ctx, domain.EventsTable, []store.Row{row}, []string{"id"}); err != nil {
		return fmt.Errorf("advance event %q: %w", event.ID, err)
	}
	return nil
}

func (s *Scheduler) deleteEvent(ctx context.Context, id string) error {
	stmt := fmt.Sprintf(`DELETE FROM %q WHERE "id" = %s`,
		domain.EventsTable, store.Placeholder(s.st.Dialect(), 1))
	if err := s.st.Exec(ctx, stmt, id); err != nil {
		return fmt.Errorf("delete event %q: %w", id, err)
	}
	return nil
}
