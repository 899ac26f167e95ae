package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер пятипольных cron-выражений для clause "cron ...".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate проверяет синтаксис recurrence-выражения.
//
// Возвращает *SyntaxError с оскорбляющим токеном при любом
// нарушении грамматики; nil — выражение корректно. Проверка
// чисто синтаксическая, ничего не персистится.
func Validate(query string) error {
	if strings.Contains(query, TokenOr) {
		for _, clause := range strings.Split(query, TokenOr) {
			clause = strings.TrimSpace(clause)
			if err := validateClause(clause); err != nil {
				var serr *SyntaxError
				if errors.As(err, &serr) {
					return &SyntaxError{
						Token:   serr.Token,
						Message: fmt.Sprintf("in clause %q: %s", clause, serr.Message),
					}
				}
				return err
			}
		}
		return nil
	}
	return validateClause(strings.TrimSpace(query))
}

// validateClause проверяет одну clause.
func validateClause(clause string) error {
	q := strings.ToLower(clause)

	token := startingToken(q)
	if token == "" {
		return syntaxError(q, "expression must start with one of: "+strings.Join(startingTokens, ", "))
	}
	body := strings.TrimSpace(strings.TrimPrefix(q, token+" "))

	if token == TokenCron {
		if _, err := cronParser.Parse(body); err != nil {
			return syntaxError(body, fmt.Sprintf("invalid cron expression %q: %v", body, err))
		}
		return nil
	}

	if strings.Contains(body, TokenAt) {
		if strings.Count(body, TokenAt) > 1 {
			return syntaxError(body, "only one @ is allowed")
		}
		var at string
		body, at, _ = strings.Cut(body, TokenAt)
		body = strings.TrimSpace(body)
		if _, err := ParseClock(at); err != nil {
			return err
		}
	}

	if day := weekdayIn(body); day != "" {
		if strings.Count(body, day) > 1 {
			return syntaxError(day, fmt.Sprintf("only one %s is allowed", day))
		}
		if rest := strings.TrimSpace(strings.ReplaceAll(body, day, "")); rest != "" {
			return syntaxError(rest,
				fmt.Sprintf("weekday clause cannot contain other values (remove %q from %q)", rest, body))
		}
		return nil
	}

	return validateDurationBody(body)
}

// validateDurationBody проверяет тело длительности:
// чередование (число, единица) с не более чем одним "minus",
// обе части которого должны содержать число и единицу.
func validateDurationBody(body string) error {
	fields := strings.Fields(body)

	if i := indexOf(fields, TokenMinus); i >= 0 {
		if err := requireNumberAndUnit(fields[:i], "before minus"); err != nil {
			return err
		}
		if err := requireNumberAndUnit(fields[i+1:], "after minus"); err != nil {
			return err
		}
		fields = append(append([]string{}, fields[:i]...), fields[i+1:]...)
		if indexOf(fields, TokenMinus) >= 0 {
			return syntaxError(TokenMinus, "only one minus is allowed")
		}
	}

	onNumber := true
	for _, token := range fields {
		if onNumber {
			if !isInt(token) {
				return syntaxError(token, fmt.Sprintf("expected number, got %q", token))
			}
		} else {
			if _, ok := unitSeconds[token]; !ok {
				return syntaxError(token,
					fmt.Sprintf("expected unit, got %q; available units: %s", token, strings.Join(unitNames, ", ")))
			}
		}
		onNumber = !onNumber
	}
	if !onNumber {
		return syntaxError(fields[len(fields)-1],
			"expected unit, got end of expression: add a unit or remove the last number")
	}
	return nil
}

// requireNumberAndUnit проверяет, что часть тела содержит
// хотя бы одно число и хотя бы одну единицу.
func requireNumberAndUnit(fields []string, where string) error {
	hasUnit, hasNumber := false, false
	for _, token := range fields {
		if _, ok := unitSeconds[token]; ok {
			hasUnit = true
		}
		if isInt(token) {
			hasNumber = true
		}
	}
	if !hasUnit {
		return syntaxError(where, "no unit found "+where)
	}
	if !hasNumber {
		return syntaxError(where, "no number found "+where)
	}
	return nil
}
