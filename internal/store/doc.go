// Package store реализует абстрактный табличный контракт поверх
// Postgres (pgx) и SQLite (modernc.org/sqlite).
//
// Контракт намеренно узкий — ровно то, что нужно daemon'у:
//
//	ReadAll  — все строки таблицы
//	ReadOne  — одна строка по условию равенства
//	Upsert   — insert-or-replace по ключевым колонкам
//	Exec     — сырой statement (delete, DDL, индексы)
//
// Upsert создаёт таблицу при первом обращении, выводя типы колонок
// из значений строки, поэтому миграций нет: таблица events
// появляется при первой регистрации, а daemon до этого момента
// получает ErrNoTable и ждёт в расширенном backoff.
//
// Корректность при конкурентном доступе (daemon, регистрация,
// log batcher) держится исключительно на идемпотентности
// upsert-by-key; межпроцессных блокировок нет.
package store
