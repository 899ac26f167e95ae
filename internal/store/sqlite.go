package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath — путь к базе по умолчанию.
var DefaultSQLitePath = filepath.Join(".chrono", "chrono.db")

// SQLite — реализация Store поверх modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite открывает (создавая при необходимости) файл базы.
func NewSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite предпочитает одного писателя.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	return &SQLite{db: db}, nil
}

// Dialect реализует Store.
func (s *SQLite) Dialect() string { return DialectSQLite }

// Close реализует Store.
func (s *SQLite) Close() { _ = s.db.Close() }

// ReadAll реализует Store.
func (s *SQLite) ReadAll(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, s.mapTableError(err, table)
	}
	defer rows.Close()
	return s.collect(rows)
}

// ReadOne реализует Store.
func (s *SQLite) ReadOne(ctx context.Context, table string, where Row) (Row, error) {
	cols := columns(where)
	var b strings.Builder
	b.WriteString("SELECT * FROM " + quoteIdent(table))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quoteIdent(col) + " = ?")
		args = append(args, sqliteValue(where[col]))
	}
	b.WriteString(" LIMIT 1")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, s.mapTableError(err, table)
	}
	defer rows.Close()

	found, err := s.collect(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// Upsert реализует Store.
func (s *SQLite) Upsert(ctx context.Context, table string, rows []Row, keyCols []string) error {
	if len(rows) == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, createTableStmt(DialectSQLite, table, rows[0], keyCols)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	cols := columns(rows[0])
	stmt := s.upsertStmt(table, cols, keyCols)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			args = append(args, sqliteValue(row[col]))
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("upsert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Exec реализует Store.
func (s *SQLite) Exec(ctx context.Context, stmt string, args ...any) error {
	for i, arg := range args {
		args[i] = sqliteValue(arg)
	}
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return s.mapTableError(err, table(stmt))
	}
	return nil
}

// upsertStmt строит INSERT ... ON CONFLICT DO UPDATE.
func (s *SQLite) upsertStmt(table string, cols, keyCols []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + quoteIdent(table) + " (")
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col))
	}
	b.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	b.WriteString(") ON CONFLICT (")
	for i, col := range keyCols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col))
	}
	b.WriteString(")")

	updates := 0
	for _, col := range cols {
		if contains(keyCols, col) {
			continue
		}
		if updates == 0 {
			b.WriteString(" DO UPDATE SET ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col) + " = excluded." + quoteIdent(col))
		updates++
	}
	if updates == 0 {
		b.WriteString(" DO NOTHING")
	}
	return b.String()
}

// collect читает все строки результата в []Row.
func (s *SQLite) collect(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// mapTableError распознаёт "no such table".
func (s *SQLite) mapTableError(err error, table string) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %s", ErrNoTable, table)
	}
	return err
}

// sqliteValue приводит значение к типу, понятному драйверу.
// Время хранится текстом RFC3339 в UTC.
func sqliteValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
