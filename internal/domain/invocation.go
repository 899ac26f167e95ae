package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TriggersTable — имя таблицы с журналом срабатываний (опционально).
const TriggersTable = "event_triggers"

// Invocation — неизменяемый снимок event'а в момент срабатывания.
//
// Снимок делается до передачи executor'у: последующие изменения
// исходного Event (перерегистрация с другими аргументами) на уже
// запущенное выполнение не влияют. Завершение не отслеживается.
type Invocation struct {
	// ExecutionID — уникальный идентификатор выполнения: "e" + 32 hex.
	ExecutionID string `json:"execution_id"`

	// Module — модуль, содержащий функцию.
	Module string `json:"module"`

	// Func — имя функции.
	Func string `json:"func"`

	// Args — копия позиционных аргументов на момент срабатывания.
	Args []any `json:"args,omitempty"`

	// Kwargs — копия именованных аргументов на момент срабатывания.
	Kwargs map[string]any `json:"kwargs,omitempty"`

	// FiredAt — UTC-время срабатывания.
	FiredAt time.Time `json:"fired_at"`
}

// NewExecutionID генерирует идентификатор выполнения.
func NewExecutionID() string {
	return "e" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewInvocation строит снимок event'а на момент now.
// Args/Kwargs копируются глубоко (через JSON round-trip).
func NewInvocation(e *Event, now time.Time) *Invocation {
	return &Invocation{
		ExecutionID: NewExecutionID(),
		Module:      e.Module,
		Func:        e.Func,
		Args:        copyArgs(e.Args),
		Kwargs:      copyKwargs(e.Kwargs),
		FiredAt:     now.UTC(),
	}
}

// Row сериализует Invocation в строку таблицы event_triggers.
func (inv *Invocation) Row() (map[string]any, error) {
	argsJSON, err := json.Marshal(inv.Args)
	if err != nil {
		return nil, err
	}
	kwargsJSON, err := json.Marshal(inv.Kwargs)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":       inv.ExecutionID,
		"utc_time": inv.FiredAt,
		"module":   inv.Module,
		"func":     inv.Func,
		"args":     string(argsJSON),
		"kwargs":   string(kwargsJSON),
	}, nil
}

// copyArgs делает независимую копию аргументов.
// JSON round-trip — аргументы по контракту JSON-совместимы.
func copyArgs(args []any) []any {
	if args == nil {
		return nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return append([]any(nil), args...)
	}
	var out []any
	if err := json.Unmarshal(b, &out); err != nil {
		return append([]any(nil), args...)
	}
	return out
}

// copyKwargs делает независимую копию именованных аргументов.
func copyKwargs(kwargs map[string]any) map[string]any {
	if kwargs == nil {
		return nil
	}
	b, err := json.Marshal(kwargs)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
