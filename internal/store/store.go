package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Диалекты backend'ов.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Row — строка таблицы: колонка → значение.
// Значения — скаляры, текст и time.Time.
type Row = map[string]any

// Store — контракт табличного хранилища.
type Store interface {
	// ReadAll возвращает все строки таблицы.
	ReadAll(ctx context.Context, table string) ([]Row, error)

	// ReadOne возвращает первую строку, у которой все колонки
	// из where равны заданным значениям. Отсутствие — ErrNotFound.
	ReadOne(ctx context.Context, table string, where Row) (Row, error)

	// Upsert вставляет строки insert-or-replace по ключевым
	// колонкам keyCols, создавая таблицу при необходимости.
	Upsert(ctx context.Context, table string, rows []Row, keyCols []string) error

	// Exec выполняет сырой statement.
	Exec(ctx context.Context, stmt string, args ...any) error

	// Dialect возвращает DialectPostgres или DialectSQLite.
	Dialect() string

	// Close освобождает соединения.
	Close()
}

// Config — конфигурация хранилища.
type Config struct {
	// Backend — DialectPostgres или DialectSQLite.
	Backend string

	// DSN — строка подключения Postgres либо путь к файлу SQLite.
	DSN string
}

// Open открывает хранилище по конфигурации.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case DialectPostgres:
		return NewPostgres(ctx, cfg.DSN)
	case DialectSQLite, "":
		return NewSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// columns возвращает колонки строки в стабильном порядке.
func columns(row Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// quoteIdent экранирует идентификатор двойными кавычками.
// Нужен для колонок вроде "index", совпадающих с ключевыми словами.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// columnType выводит SQL-тип колонки из значения.
func columnType(dialect string, v any) string {
	switch v.(type) {
	case time.Time:
		if dialect == DialectPostgres {
			return "timestamptz"
		}
		return "text"
	case int, int32, int64:
		if dialect == DialectPostgres {
			return "bigint"
		}
		return "integer"
	case float32, float64:
		if dialect == DialectPostgres {
			return "double precision"
		}
		return "real"
	case bool:
		if dialect == DialectPostgres {
			return "boolean"
		}
		return "integer"
	case []byte:
		if dialect == DialectPostgres {
			return "bytea"
		}
		return "blob"
	default:
		return "text"
	}
}

// createTableStmt строит CREATE TABLE IF NOT EXISTS по первой строке.
func createTableStmt(dialect, table string, row Row, keyCols []string) string {
	cols := columns(row)
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		defs = append(defs, quoteIdent(col)+" "+columnType(dialect, row[col]))
	}

	keys := make([]string, 0, len(keyCols))
	for _, col := range keyCols {
		keys = append(keys, quoteIdent(col))
	}

	stmt := "CREATE TABLE IF NOT EXISTS " + quoteIdent(table) + " ("
	for i, def := range defs {
		if i > 0 {
			stmt += ", "
		}
		stmt += def
	}
	if len(keys) > 0 {
		stmt += ", PRIMARY KEY ("
		for i, key := range keys {
			if i > 0 {
				stmt += ", "
			}
			stmt += key
		}
		stmt += ")"
	}
	return stmt + ")"
}

// Placeholder возвращает синтаксис n-го параметра для диалекта:
// "$n" у Postgres, "?" у SQLite.
func Placeholder(dialect string, n int) string {
	if dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// contains сообщает, есть ли значение в срезе.
func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
