package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// undefinedTableCode — код ошибки Postgres "relation does not exist".
const undefinedTableCode = "42P01"

// Postgres — реализация Store поверх pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres открывает пул соединений и проверяет его ping'ом.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Dialect реализует Store.
func (p *Postgres) Dialect() string { return DialectPostgres }

// Close реализует Store.
func (p *Postgres) Close() { p.pool.Close() }

// ReadAll реализует Store.
func (p *Postgres) ReadAll(ctx context.Context, table string) ([]Row, error) {
	rows, err := p.pool.Query(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, p.mapTableError(err, table)
	}
	defer rows.Close()
	return p.collect(rows, table)
}

// ReadOne реализует Store.
func (p *Postgres) ReadOne(ctx context.Context, table string, where Row) (Row, error) {
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
		b.WriteString(quoteIdent(col) + " = $" + strconv.Itoa(i+1))
		args = append(args, where[col])
	}
	b.WriteString(" LIMIT 1")

	rows, err := p.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, p.mapTableError(err, table)
	}
	defer rows.Close()

	found, err := p.collect(rows, table)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// Upsert реализует Store.
func (p *Postgres) Upsert(ctx context.Context, table string, rows []Row, keyCols []string) error {
	if len(rows) == 0 {
		return nil
	}

	if _, err := p.pool.Exec(ctx, createTableStmt(DialectPostgres, table, rows[0], keyCols)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	cols := columns(rows[0])
	stmt := p.upsertStmt(table, cols, keyCols)

	batch := &pgx.Batch{}
	for _, row := range rows {
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			args = append(args, row[col])
		}
		batch.Queue(stmt, args...)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert into %s: %w", table, err)
		}
	}
	return nil
}

// Exec реализует Store.
func (p *Postgres) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := p.pool.Exec(ctx, stmt, args...); err != nil {
		return p.mapTableError(err, table(stmt))
	}
	return nil
}

// upsertStmt строит INSERT ... ON CONFLICT DO UPDATE.
func (p *Postgres) upsertStmt(table string, cols, keyCols []string) string {
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
		b.WriteString("$" + strconv.Itoa(i+1))
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
		b.WriteString(quoteIdent(col) + " = EXCLUDED." + quoteIdent(col))
		updates++
	}
	if updates == 0 {
		b.WriteString(" DO NOTHING")
	}
	return b.String()
}

// collect читает все строки результата в []Row.
func (p *Postgres) collect(rows pgx.Rows, table string) ([]Row, error) {
	fields := rows.FieldDescriptions()

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(Row, len(fields))
		for i, field := range fields {
			row[string(field.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.mapTableError(err, table)
	}
	return out, nil
}

// mapTableError распознаёт "relation does not exist".
func (p *Postgres) mapTableError(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return fmt.Errorf("%w: %s", ErrNoTable, table)
	}
	return err
}

// table вытаскивает грубое имя таблицы из statement'а для сообщений.
func table(stmt string) string {
	fields := strings.Fields(stmt)
	for i, f := range fields {
		if strings.EqualFold(f, "from") || strings.EqualFold(f, "into") {
			if i+1 < len(fields) {
				return strings.Trim(fields[i+1], `"`)
			}
		}
	}
	return ""
}
