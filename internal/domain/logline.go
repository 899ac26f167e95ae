package domain

import "time"

// LogsTable — имя таблицы с захваченным выводом выполнений.
const LogsTable = "event_logs"

// LogLine — одна строка захваченного вывода выполнения.
//
// Уникально идентифицируется парой (ExecutionID, Index), поэтому
// повторная запись того же batch'а идемпотентна. После записи
// в store строка не изменяется.
type LogLine struct {
	// ExecutionID — идентификатор выполнения, породившего строку.
	ExecutionID string `json:"event_id"`

	// Index — монотонно растущий порядковый номер строки
	// в пределах одного выполнения, начиная с 0.
	Index int `json:"index"`

	// Line — текст строки.
	Line string `json:"line"`

	// CapturedAt — UTC-время захвата строки.
	CapturedAt time.Time `json:"utc_time"`
}

// Row сериализует LogLine в строку таблицы event_logs.
func (l *LogLine) Row() map[string]any {
	return map[string]any{
		"event_id": l.ExecutionID,
		"index":    int64(l.Index),
		"line":     l.Line,
		"utc_time": l.CapturedAt.UTC(),
	}
}
