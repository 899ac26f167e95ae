package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Due решает, пора ли запускать event с выражением query,
// последний раз сработавший в last, при текущем времени now.
//
// Составное выражение due, когда due хотя бы одна clause
// (слева направо, short-circuit). Ошибка разбора одной clause
// не мешает оценке остальных; если ни одна clause не сработала,
// ошибки возвращаются вызывающему для логирования. Вызывающая
// сторона обязана трактовать ошибку как "не due" (fail-closed).
func Due(query string, last, now time.Time) (bool, error) {
	var errs []error
	for _, clause := range strings.Split(query, TokenOr) {
		due, err := dueClause(strings.TrimSpace(clause), last.UTC(), now.UTC())
		if err != nil {
			errs = append(errs, fmt.Errorf("clause %q: %w", strings.TrimSpace(clause), err))
			continue
		}
		if due {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}

// dueClause оценивает одну clause.
func dueClause(clause string, last, now time.Time) (bool, error) {
	q := strings.ToLower(clause)
	token := startingToken(q)
	body := strings.TrimSpace(strings.TrimPrefix(q, token+" "))

	if token == TokenCron {
		return dueCron(body, last, now)
	}

	var at string
	hasClock := strings.Contains(body, TokenAt)
	if hasClock {
		body, at, _ = strings.Cut(body, TokenAt)
		body = strings.TrimSpace(body)
	}

	if day := weekdayIn(body); day != "" {
		return dueWeekday(day, at, hasClock, last, now)
	}

	if !hasClock {
		seconds, err := ParseDuration(body)
		if err != nil {
			return false, err
		}
		return now.Sub(last) > time.Duration(seconds)*time.Second, nil
	}

	return dueWindowClock(token, body, at, last, now)
}

// dueCron оценивает clause "cron ...": due, когда следующая
// активация после last уже наступила.
func dueCron(body string, last, now time.Time) (bool, error) {
	schedule, err := cronParser.Parse(body)
	if err != nil {
		return false, syntaxError(body, fmt.Sprintf("invalid cron expression %q: %v", body, err))
	}
	next := schedule.Next(last)
	return !next.After(now), nil
}

// dueWeekday оценивает weekday-clause.
//
// Сработать можно не чаще раза в неделю: требуется не меньше
// пяти календарных суток с last. Дальше — сегодняшний день недели
// (UTC) должен совпасть с именованным, и, при наличии времени
// суток, текущее UTC-время суток должно его достичь.
func dueWeekday(day, at string, hasClock bool, last, now time.Time) (bool, error) {
	if now.Sub(last) < 5*24*time.Hour {
		return false, nil
	}
	if strings.ToLower(now.Weekday().String()) != day {
		return false, nil
	}
	if !hasClock {
		return true, nil
	}

	target, err := ParseClock(at)
	if err != nil {
		return false, err
	}
	return secondsOfDay(now) >= target, nil
}

// dueWindowClock оценивает duration-clause с временем суток:
// "раз в N-дневное окно, не раньше указанного времени".
//
// Окно берётся из части до "@"; для не-recurring стартового токена
// окно по умолчанию — сутки без тридцати секунд. Clause due, когда
// текущее UTC-время суток достигло цели и UTC-дата (now − days)
// строго позже UTC-даты last, где days = floor((window−1)/86400).
func dueWindowClock(token, body, at string, last, now time.Time) (bool, error) {
	var window int64
	if token == TokenEvery {
		var err error
		window, err = ParseDuration(body)
		if err != nil {
			return false, err
		}
	} else {
		window = defaultWindowSeconds - 30
	}

	target, err := ParseClock(at)
	if err != nil {
		return false, err
	}

	days := int(math.Floor(float64(window-1) / 86400))
	shifted := now.AddDate(0, 0, -days)

	clockPassed := secondsOfDay(now) >= target
	dayPassed := dateOf(shifted).After(dateOf(last))
	return clockPassed && dayPassed, nil
}

// secondsOfDay возвращает секунды от полуночи UTC.
func secondsOfDay(t time.Time) int64 {
	return int64(t.Hour())*3600 + int64(t.Minute())*60 + int64(t.Second())
}

// dateOf обрезает время до календарной даты UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
