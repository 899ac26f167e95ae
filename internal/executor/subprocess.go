package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/shaiso/Chrono/internal/domain"
)

// defaultRunner — команда runner'а по умолчанию.
var defaultRunner = []string{"chrono-runner"}

// Subprocess запускает каждое выполнение отдельным процессом-runner'ом.
//
// Runner получает аргументы позиционно:
//
//	chrono-runner EXECUTION_ID MODULE FUNC ARGS_FILE KWARGS_FILE
//
// и сам удаляет payload-файлы по завершении.
type Subprocess struct {
	runner     []string
	payloadDir string
	logger     *slog.Logger
}

// Config — конфигурация Subprocess.
type Config struct {
	// RunnerCmd — команда запуска runner'а (default: ["chrono-runner"]).
	RunnerCmd []string

	// PayloadDir — каталог временных payload-файлов.
	PayloadDir string

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewSubprocess создаёт Subprocess.
func NewSubprocess(cfg Config) *Subprocess {
	runner := cfg.RunnerCmd
	if len(runner) == 0 {
		runner = defaultRunner
	}
	dir := cfg.PayloadDir
	if dir == "" {
		dir = DefaultPayloadDir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Subprocess{
		runner:     runner,
		payloadDir: dir,
		logger:     logger,
	}
}

// Submit реализует Executor.
//
// При ошибке запуска payload-файлы удаляются сразу; при успешном
// запуске владение ими переходит runner'у.
func (e *Subprocess) Submit(_ context.Context, inv *domain.Invocation) error {
	args := inv.Args
	if args == nil {
		args = []any{}
	}
	kwargs := inv.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	argsFile, err := WritePayload(e.payloadDir, args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	kwargsFile, err := WritePayload(e.payloadDir, kwargs)
	if err != nil {
		RemovePayloads(argsFile)
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	cmdArgs := append(append([]string{}, e.runner[1:]...),
		inv.ExecutionID, inv.Module, inv.Func, argsFile, kwargsFile)
	cmd := exec.Command(e.runner[0], cmdArgs...)
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		RemovePayloads(argsFile, kwargsFile)
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	// Reap, чтобы не копить зомби. Завершение не отслеживается.
	go func() { _ = cmd.Wait() }()

	e.logger.Info("fired event",
		"execution_id", inv.ExecutionID,
		"module", inv.Module,
		"func", inv.Func,
	)
	return nil
}
