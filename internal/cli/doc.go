// Package cli реализует инструмент командной строки Chrono.
//
// # Обзор
//
// CLI управляет зарегистрированными событиями напрямую через store —
// отдельного API-сервера нет, команды работают с теми же таблицами,
// что и daemon.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: chrono list --json | jq .
//
// ## Commands
//
// Cobra-команды:
//   - register: регистрация события (--query, --module, --func, ...)
//   - list:     список зарегистрированных событий
//   - delete:   удаление события по id
//   - logs:     захваченный вывод выполнения по execution id
//
// Каждая команда создаётся фабричной функцией (NewRegisterCmd и т.д.),
// принимающей storeFn и outputFn — замыкания для ленивого открытия
// store и Output после парсинга PersistentFlags.
package cli
