// Chrono Daemon — цикл, запускающий зарегистрированные события.
//
// Daemon:
//   - Опрашивает таблицу events раз в тик
//   - Проверяет выражения повторения и запускает созревшие события
//   - Продвигает last у повторяющихся, удаляет одноразовые
//   - Экспортирует /healthz и /metrics
//
// Рассчитан на один работающий экземпляр.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Chrono/internal/config"
	"github.com/shaiso/Chrono/internal/executor"
	"github.com/shaiso/Chrono/internal/notify"
	"github.com/shaiso/Chrono/internal/scheduler"
	"github.com/shaiso/Chrono/internal/store"
	"github.com/shaiso/Chrono/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting chrono-daemon")

	cfg := config.FromEnv()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store
	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store opened", "backend", st.Dialect())

	// RabbitMQ — опционально
	var notifier scheduler.Notifier
	if cfg.AMQPURL != "" {
		conn, err := notify.NewConnection(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, notifications disabled", "error", err)
		} else {
			defer conn.Close()

			publisher, err := notify.NewPublisher(conn, logger)
			if err != nil {
				logger.Warn("failed to set up publisher, notifications disabled", "error", err)
			} else {
				notifier = publisher
				logger.Info("RabbitMQ connected")
			}
		}
	}

	// Executor
	exec := executor.NewSubprocess(executor.Config{
		RunnerCmd:  cfg.RunnerCmd,
		PayloadDir: cfg.PayloadDir,
		Logger:     logger,
	})

	// Scheduler
	sched := scheduler.New(scheduler.Config{
		Store:        st,
		Executor:     exec,
		Notifier:     notifier,
		Logger:       logger,
		TickInterval: cfg.TickInterval,
		Backoff:      cfg.Backoff,
		Audit:        cfg.AuditTriggers,
	})

	go sched.Run(ctx)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("chrono-daemon stopped")
}
