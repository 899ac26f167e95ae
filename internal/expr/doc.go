// Package expr реализует грамматику recurrence-выражений.
//
// Выражение — это одна или несколько clauses, разделённых "||":
//
//	expression := clause ('||' clause)*
//
// Каждая clause начинается со стартового токена и тела:
//
//	every 1 day                      — recurring, интервал
//	every 2 hours minus 30 minutes   — интервал с вычитанием
//	every 1 day @ 8am                — раз в окно, не раньше времени суток
//	on monday @ 14:30:00             — one-shot, день недели
//	in 10 minutes                    — one-shot, интервал
//	cron 0 9 * * *                   — recurring, стандартный cron
//
// Регистр не значим. Составное выражение срабатывает, когда
// срабатывает хотя бы одна clause.
//
// Структура:
//   - tokens.go   — стартовые токены, единицы, дни недели
//   - clock.go    — разбор времени суток ("8am", "14:30:00")
//   - duration.go — разбор длительностей ("2 hours minus 30 minutes")
//   - validate.go — синтаксическая проверка выражения
//   - due.go      — решение "пора ли запускать"
package expr
