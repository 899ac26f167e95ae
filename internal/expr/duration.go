package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultWindowSeconds — длительность по умолчанию (один день),
// когда тело не даёт положительного значения.
const defaultWindowSeconds int64 = 86400

// ParseDuration разбирает тело длительности в секунды.
//
// Тело — чередование (целое, единица); не более одного "minus",
// делящего тело на положительную и вычитаемую части. Каждая часть
// независимо получает default в один день, если не даёт
// положительного значения, после чего вычитаемая часть отнимается.
func ParseDuration(body string) (int64, error) {
	fields := strings.Fields(strings.ToLower(body))

	var subtracted int64
	if i := indexOf(fields, TokenMinus); i >= 0 {
		var err error
		subtracted, err = sumUnits(fields[i+1:])
		if err != nil {
			return 0, err
		}
		fields = fields[:i]
	}

	total, err := sumUnits(fields)
	if err != nil {
		return 0, err
	}
	return total - subtracted, nil
}

// sumUnits суммирует value*unitSeconds по парам (число, единица).
// Неположительная сумма заменяется на default в один день.
func sumUnits(fields []string) (int64, error) {
	var total int64
	for i := 0; i < len(fields); i += 2 {
		value, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return 0, syntaxError(fields[i], fmt.Sprintf("expected number, got %q", fields[i]))
		}
		if i+1 >= len(fields) {
			return 0, syntaxError(fields[i], "expected unit, got end of expression")
		}
		seconds, ok := unitSeconds[fields[i+1]]
		if !ok {
			return 0, syntaxError(fields[i+1], fmt.Sprintf("expected unit, got %q", fields[i+1]))
		}
		total += value * seconds
	}

	if total <= 0 {
		return defaultWindowSeconds, nil
	}
	return total, nil
}

// indexOf возвращает позицию token в fields или -1.
func indexOf(fields []string, token string) int {
	for i, f := range fields {
		if f == token {
			return i
		}
	}
	return -1
}
