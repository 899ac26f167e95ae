// Package scheduler реализует цикл опроса зарегистрированных событий.
//
// Scheduler периодически читает таблицу events, для каждой записи
// проверяет выражение повторения и запускает выполнение через Executor,
// когда событие созрело.
//
// Структура:
//   - scheduler.go — основная логика (Run, Tick, processEvent)
//   - metrics.go   — Prometheus метрики цикла
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Store:    st,
//	    Executor: exec,
//	    Notifier: pub,   // опционально
//	    Logger:   logger,
//	})
//
//	// Блокируется до отмены контекста
//	sched.Run(ctx)
//
// Конкурентность:
//
// Scheduler рассчитан на один работающий экземпляр. Несколько
// экземпляров не ломают данные (записи идемпотентны по ключу),
// но событие может сработать дважды в один тик.
package scheduler
