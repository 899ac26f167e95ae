package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventsTable — имя таблицы с зарегистрированными events.
const EventsTable = "events"

// Event — зарегистрированное расписание запуска функции.
//
// Event идентифицируется парой module/func: повторная регистрация
// той же пары перезаписывает существующую запись (upsert по ID).
//
// Запись живёт в store только пока Query синтаксически валиден —
// scheduler удаляет строки с невалидным выражением.
type Event struct {
	// ID — уникальный идентификатор: "{module}|{func}".
	ID string `json:"id"`

	// Query — recurrence-выражение.
	// Примеры:
	//   "every 1 day"
	//   "every 2 hours minus 30 minutes"
	//   "every 1 day @ 8am"
	//   "on monday @ 14:30:00"
	//   "in 10 minutes"
	//   "cron 0 9 * * *"
	//   "every 1 day || on friday"
	Query string `json:"query"`

	// Last — UTC-время последнего запуска.
	// Продвигается только для recurring-выражений; one-shot
	// выражения вместо обновления удаляются из store.
	Last time.Time `json:"last"`

	// Module — модуль, содержащий функцию.
	Module string `json:"module"`

	// Func — имя функции.
	Func string `json:"func"`

	// Args — позиционные аргументы (JSON-совместимые значения).
	Args []any `json:"args,omitempty"`

	// Kwargs — именованные аргументы (JSON-совместимые значения).
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// EventID возвращает идентификатор записи для пары module/func.
func EventID(module, fn string) string {
	return module + "|" + fn
}

// Row сериализует Event в строку таблицы events.
// Args/Kwargs хранятся как JSON-текст.
func (e *Event) Row() (map[string]any, error) {
	argsJSON, err := json.Marshal(e.Args)
	if err != nil {
		return nil, fmt.Errorf("marshal args: %w", err)
	}
	if e.Args == nil {
		argsJSON = []byte("[]")
	}

	kwargsJSON, err := json.Marshal(e.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("marshal kwargs: %w", err)
	}
	if e.Kwargs == nil {
		kwargsJSON = []byte("{}")
	}

	return map[string]any{
		"id":     e.ID,
		"query":  e.Query,
		"last":   e.Last.UTC(),
		"module": e.Module,
		"func":   e.Func,
		"args":   string(argsJSON),
		"kwargs": string(kwargsJSON),
	}, nil
}

// EventFromRow десериализует строку таблицы events в Event.
//
// Время может прийти как time.Time (postgres) или как текст
// RFC3339 (sqlite). Повреждённые args/kwargs — ошибка.
func EventFromRow(row map[string]any) (*Event, error) {
	e := &Event{
		ID:     stringField(row, "id"),
		Query:  stringField(row, "query"),
		Module: stringField(row, "module"),
		Func:   stringField(row, "func"),
	}

	last, err := timeField(row, "last")
	if err != nil {
		return nil, err
	}
	e.Last = last

	if raw := stringField(row, "args"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
	}
	if raw := stringField(row, "kwargs"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Kwargs); err != nil {
			return nil, fmt.Errorf("unmarshal kwargs: %w", err)
		}
	}

	return e, nil
}

// stringField достаёт текстовое поле строки.
func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// timeField достаёт поле-время строки.
func timeField(row map[string]any, key string) (time.Time, error) {
	switch v := row[key].(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
		}
		return t.UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("missing %s field", key)
	default:
		return time.Time{}, fmt.Errorf("unexpected %s type %T", key, v)
	}
}
