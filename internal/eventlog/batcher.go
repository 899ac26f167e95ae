// Package eventlog реализует асинхронную батч-запись захваченного
// вывода выполнений в store.
//
// Batcher отделяет захват строк от записи: producer складывает
// строки в очередь через Log, фоновая горутина буферизует их и
// пишет пачками. Каждая пачка — идемпотентный upsert по ключу
// (event_id, index), поэтому повтор записи безопасен.
package eventlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/store"
)

// Параметры батчинга по умолчанию.
const (
	defaultMaxBuffer     = 100
	defaultFlushInterval = 1 * time.Second
	queueCapacity        = 1024
)

// logKeyCols — ключ идемпотентности записей лога.
var logKeyCols = []string{"event_id", "index"}

// Batcher буферизует строки вывода одного выполнения и пишет
// их в store пачками.
//
// Flush происходит, когда буфер превышает MaxBuffer строк или
// с прошлого flush'а прошло больше FlushInterval. Stop шлёт
// sentinel и синхронно ждёт финального flush'а остатка.
type Batcher struct {
	executionID   string
	st            store.Store
	reopen        func() (store.Store, error)
	logger        *slog.Logger
	maxBuffer     int
	flushInterval time.Duration

	lines chan string
	done  chan struct{}

	index   int
	indexed bool
}

// Config — конфигурация Batcher.
type Config struct {
	// ExecutionID — выполнение, чей вывод пишется.
	ExecutionID string

	// Store — табличное хранилище.
	Store store.Store

	// Reopen переоткрывает store handle после ошибки flush'а.
	// Опционально: без него неудавшийся flush повторяется на
	// том же handle.
	Reopen func() (store.Store, error)

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// MaxBuffer — порог размера буфера (default: 100).
	MaxBuffer int

	// FlushInterval — порог времени с прошлого flush'а (default: 1s).
	FlushInterval time.Duration
}

// New создаёт Batcher. Горутина записи запускается методом Start.
func New(cfg Config) *Batcher {
	maxBuffer := cfg.MaxBuffer
	if maxBuffer <= 0 {
		maxBuffer = defaultMaxBuffer
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Batcher{
		executionID:   cfg.ExecutionID,
		st:            cfg.Store,
		reopen:        cfg.Reopen,
		logger:        logger,
		maxBuffer:     maxBuffer,
		flushInterval: flushInterval,
		lines:         make(chan string, queueCapacity),
		done:          make(chan struct{}),
	}
}

// Start запускает горутину записи.
func (b *Batcher) Start() {
	go b.run()
}

// Log ставит строку в очередь на запись.
// Вызов после Stop запрещён.
func (b *Batcher) Log(line string) {
	b.lines <- line
}

// Stop шлёт sentinel и ждёт, пока горутина запишет остаток буфера.
// После возврата можно освобождать ресурсы выполнения.
func (b *Batcher) Stop() {
	close(b.lines)
	<-b.done
}

// run — цикл горутины записи.
func (b *Batcher) run() {
	defer close(b.done)

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	var buf []domain.LogLine
	lastFlush := time.Now()

	for {
		select {
		case line, ok := <-b.lines:
			if !ok {
				if len(buf) > 0 {
					b.flush(buf)
				}
				return
			}

			buf = append(buf, domain.LogLine{
				ExecutionID: b.executionID,
				Index:       b.index,
				Line:        line,
				CapturedAt:  time.Now().UTC(),
			})
			b.index++

			if len(buf) > b.maxBuffer || time.Since(lastFlush) > b.flushInterval {
				b.flush(buf)
				buf = nil
				lastFlush = time.Now()
			}

		case <-ticker.C:
			if len(buf) > 0 && time.Since(lastFlush) > b.flushInterval {
				b.flush(buf)
				buf = nil
				lastFlush = time.Now()
			}
		}
	}
}

// flush пишет пачку в store: не больше двух попыток, между ними —
// одно переоткрытие handle. Вторая неудача роняет пачку.
func (b *Batcher) flush(batch []domain.LogLine) {
	rows := make([]store.Row, 0, len(batch))
	for i := range batch {
		rows = append(rows, batch[i].Row())
	}

	ctx := context.Background()
	err := b.st.Upsert(ctx, domain.LogsTable, rows, logKeyCols)
	if err != nil && b.reopen != nil {
		st, rerr := b.reopen()
		if rerr != nil {
			b.logger.Warn("reopen store failed", "error", rerr)
		} else {
			b.st = st
			err = b.st.Upsert(ctx, domain.LogsTable, rows, logKeyCols)
		}
	}
	if err != nil {
		b.logger.Warn("dropping log batch",
			"execution_id", b.executionID,
			"lines", len(batch),
			"error", err,
		)
		return
	}

	b.ensureIndex(ctx)
}

// ensureIndex один раз создаёт индекс по event_id после первой
// успешной записи. Ошибка не мешает батчингу.
func (b *Batcher) ensureIndex(ctx context.Context) {
	if b.indexed {
		return
	}

	stmt := `CREATE INDEX IF NOT EXISTS event_logs_event_id_idx ON "event_logs" ("event_id")`
	if b.st.Dialect() == store.DialectPostgres {
		stmt = `CREATE INDEX IF NOT EXISTS event_logs_event_id_idx ON "event_logs" USING hash ("event_id")`
	}
	if err := b.st.Exec(ctx, stmt); err != nil {
		b.logger.Debug("create log index failed", "error", err)
		return
	}
	b.indexed = true
}
