// Chrono Runner — супервизор одного выполнения.
//
// Запускается daemon'ом на каждое срабатывание:
//
//	chrono-runner EXECUTION_ID MODULE FUNC ARGS_FILE KWARGS_FILE
//
// Runner:
//   - Запускает настроенную команду интерпретатора с module/func
//     и путями payload-файлов
//   - Построчно читает объединённый stdout/stderr и пишет его
//     батчами в event_logs (когда захват включён)
//   - Удаляет payload-файлы на всех путях выхода
package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/exec"

	"github.com/shaiso/Chrono/internal/config"
	"github.com/shaiso/Chrono/internal/eventlog"
	"github.com/shaiso/Chrono/internal/executor"
	"github.com/shaiso/Chrono/internal/store"
	"github.com/shaiso/Chrono/internal/telemetry"
)

// maxLineSize — предел длины одной строки вывода (1 MiB).
const maxLineSize = 1 << 20

func main() {
	logger := telemetry.SetupLogger()

	if len(os.Args) != 6 {
		logger.Error("usage: chrono-runner EXECUTION_ID MODULE FUNC ARGS_FILE KWARGS_FILE")
		os.Exit(2)
	}

	os.Exit(run(logger, os.Args[1], os.Args[2], os.Args[3], os.Args[4], os.Args[5]))
}

// run выполняет событие и возвращает код выхода. Выделен из main,
// чтобы defer'ы (удаление payload-файлов, закрытие store)
// срабатывали до os.Exit.
func run(logger *slog.Logger, executionID, module, fn, argsFile, kwargsFile string) int {
	// Payload-файлы принадлежат runner'у с момента запуска.
	defer executor.RemovePayloads(argsFile, kwargsFile)

	logger = telemetry.WithExecutionID(logger, executionID)
	logger.Info("running event", "module", module, "func", fn)

	cfg := config.FromEnv()

	jobArgs := append(append([]string{}, cfg.JobCmd[1:]...), module, fn, argsFile, kwargsFile)
	cmd := exec.Command(cfg.JobCmd[0], jobArgs...)
	cmd.Env = os.Environ()

	if !cfg.CaptureLogs {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			logger.Error("event failed", "error", err)
			return 1
		}
		logger.Info("event finished")
		return 0
	}

	st, err := store.Open(context.Background(), cfg.StoreConfig())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return 1
	}
	defer st.Close()

	batcher := eventlog.New(eventlog.Config{
		ExecutionID: executionID,
		Store:       st,
		Reopen: func() (store.Store, error) {
			return store.Open(context.Background(), cfg.StoreConfig())
		},
		Logger: logger,
	})
	batcher.Start()

	// Общий pipe для stdout и stderr: порядок строк соответствует
	// порядку записи процессом.
	r, w, err := os.Pipe()
	if err != nil {
		batcher.Stop()
		logger.Error("failed to create pipe", "error", err)
		return 1
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		batcher.Stop()
		logger.Error("failed to start event", "error", err)
		return 1
	}
	// Дескриптор записи остаётся только у дочернего процесса,
	// иначе scanner не увидит EOF.
	w.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		batcher.Log(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("reading event output failed", "error", err)
	}
	r.Close()

	runErr := cmd.Wait()

	// Финальный flush остатка буфера.
	batcher.Stop()

	if runErr != nil {
		logger.Error("event failed", "error", runErr)
		return 1
	}
	logger.Info("event finished")
	return 0
}
