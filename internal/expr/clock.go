package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock разбирает часть "время суток" после "@".
//
// Формат: hour[:minute[:second]] с опциональным завершающим am/pm.
// "pm" прибавляет 12 к часу, если час меньше 12 ("12pm" остаётся 12).
// Возвращает секунды от полуночи.
//
// Диапазоны проверяются по-настоящему: 0 <= hour <= 23 (после
// pm-поправки), 0 <= minute, second <= 59.
func ParseClock(at string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(at))

	hasPM := false
	if strings.Contains(s, "am") {
		if strings.Contains(s, "pm") {
			return 0, syntaxError(s, "only one am/pm is allowed")
		}
		if !strings.HasSuffix(s, "am") {
			return 0, syntaxError(s, "invalid time format near `am`")
		}
	}
	if strings.Contains(s, "pm") {
		if !strings.HasSuffix(s, "pm") {
			return 0, syntaxError(s, "invalid time format near `pm`")
		}
		hasPM = true
	}

	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "am"), "pm"))

	if strings.Count(s, ":") > 2 {
		return 0, syntaxError(s, "invalid time format: max use of `:` is 2")
	}

	parts := strings.Split(s, ":")
	values := [3]int64{0, 0, 0}
	for i, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, syntaxError(strings.TrimSpace(part),
				fmt.Sprintf("non-integer value for time found: %q", strings.TrimSpace(part)))
		}
		values[i] = v
	}

	hour, minute, second := values[0], values[1], values[2]
	if hasPM && hour < 12 {
		hour += 12
	}

	if hour < 0 || hour > 23 {
		return 0, syntaxError(strconv.FormatInt(hour, 10),
			fmt.Sprintf("invalid hour value %d: must be within 0..23", hour))
	}
	if minute < 0 || minute > 59 {
		return 0, syntaxError(strconv.FormatInt(minute, 10),
			fmt.Sprintf("invalid minute value %d: must be within 0..59", minute))
	}
	if second < 0 || second > 59 {
		return 0, syntaxError(strconv.FormatInt(second, 10),
			fmt.Sprintf("invalid second value %d: must be within 0..59", second))
	}

	return hour*3600 + minute*60 + second, nil
}
