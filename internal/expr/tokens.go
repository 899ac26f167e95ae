package expr

import "strings"

// Разделители выражения.
const (
	// TokenOr разделяет clauses составного выражения.
	TokenOr = "||"

	// TokenAt отделяет часть "время суток" в конце clause.
	TokenAt = "@"

	// TokenMinus отделяет вычитаемую часть длительности.
	TokenMinus = "minus"
)

// Стартовые токены clauses.
//
// Один согласованный набор используется и валидатором, и lifecycle
// scheduler'а: every и cron — recurring (запись остаётся в store,
// продвигается last), in и on — one-shot (запись удаляется после
// первого срабатывания).
const (
	TokenEvery = "every"
	TokenIn    = "in"
	TokenOn    = "on"
	TokenCron  = "cron"
)

// startingTokens — допустимые стартовые токены, в порядке сопоставления.
var startingTokens = []string{TokenEvery, TokenIn, TokenOn, TokenCron}

// weekdays — дни недели в нижнем регистре.
var weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// unitSeconds — единицы длительности и их вес в секундах.
// Единственное и множественное число равнозначны.
var unitSeconds = map[string]int64{
	"day": 86400, "days": 86400,
	"hour": 3600, "hours": 3600,
	"minute": 60, "minutes": 60,
	"second": 1, "seconds": 1,
}

// unitNames — единицы для сообщений об ошибках, в стабильном порядке.
var unitNames = []string{"day", "hour", "minute", "second", "days", "hours", "minutes", "seconds"}

// startingToken возвращает стартовый токен clause или "".
// clause должна быть в нижнем регистре без внешних пробелов.
func startingToken(clause string) string {
	for _, token := range startingTokens {
		if strings.HasPrefix(clause, token+" ") {
			return token
		}
	}
	return ""
}

// IsRecurring сообщает, является ли выражение recurring:
// начинается ли оно с повторяющегося стартового токена.
//
// Для составных выражений lifecycle определяет первая clause.
func IsRecurring(query string) bool {
	token := startingToken(strings.ToLower(strings.TrimSpace(query)))
	return token == TokenEvery || token == TokenCron
}

// weekdayIn возвращает имя дня недели, встречающееся в теле clause, или "".
func weekdayIn(body string) string {
	for _, day := range weekdays {
		if strings.Contains(body, day) {
			return day
		}
	}
	return ""
}

// isInt сообщает, является ли токен целым числом.
func isInt(token string) bool {
	if token == "" {
		return false
	}
	for i, r := range token {
		if i == 0 && (r == '-' || r == '+') && len(token) > 1 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
