package postgres

import (
	"context"
	"errors"
	"fmt"

	"subsonic-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes a concurrent CREATE TABLE IF NOT EXISTS can still raise
const (
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505"
)

type quoteRepo struct {
	db    *pgxpool.Pool
	table string
}

func NewQuoteRepository(db *pgxpool.Pool, table string) domain.QuoteRepository {
	return &quoteRepo{db: db, table: table}
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		partition_key  TEXT NOT NULL,
		row_key        TEXT NOT NULL,
		nombre         TEXT NOT NULL,
		email          TEXT NOT NULL,
		tipo_evento    TEXT NOT NULL,
		fecha_evento   TEXT NOT NULL,
		mensaje        TEXT NOT NULL,
		fecha_creacion TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (partition_key, row_key)
	)`, pgx.Identifier{table}.Sanitize())
}

func insertQuoteSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (partition_key, row_key, nombre, email, tipo_evento, fecha_evento, mensaje, fecha_creacion)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, pgx.Identifier{table}.Sanitize())
}

func (r *quoteRepo) EnsureTable(ctx context.Context) error {
	_, err := r.db.Exec(ctx, createTableSQL(r.table))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgDuplicateTable || pgErr.Code == pgUniqueViolation) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

func (r *quoteRepo) Create(ctx context.Context, q *domain.Quote) error {
	_, err := r.db.Exec(ctx, insertQuoteSQL(r.table),
		q.PartitionKey, q.RowKey, q.Nombre, q.Email, q.TipoEvento, q.FechaEvento, q.Mensaje, q.FechaCreacion,
	)
	if err != nil {
		return fmt.Errorf("insert quote %s: %w", q.RowKey, err)
	}
	return nil
}

func (r *quoteRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
