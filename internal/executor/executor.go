package executor

import (
	"context"
	"errors"

	"github.com/shaiso/Chrono/internal/domain"
)

// ErrSpawn — не удалось запустить процесс выполнения.
var ErrSpawn = errors.New("spawn execution failed")

// Executor — интерфейс запуска выполнения.
//
// Submit обязан вернуться сразу после запуска, не дожидаясь
// завершения (fire-and-forget).
type Executor interface {
	Submit(ctx context.Context, inv *domain.Invocation) error
}
