package sink

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" driver

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/pkg/retry"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS catalog_products (
	position   INTEGER PRIMARY KEY,
	title      TEXT NOT NULL,
	link       TEXT NOT NULL,
	price      TEXT NOT NULL,
	image      TEXT NOT NULL,
	category   TEXT NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL
)`

const insertProductSQL = `
INSERT INTO catalog_products (position, title, link, price, image, category, crawled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// PostgresMirror keeps catalog_products equal to the last persisted corpus
type PostgresMirror struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, pinging with backoff until the database answers
func OpenPostgres(ctx context.Context, dsn string) (*PostgresMirror, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, crawlerrors.NewPersistence("postgres", "failed to open database", err)
	}

	cfg := retry.Config{MaxRetries: 5, InitialInterval: time.Second, MaxInterval: 5 * time.Second}
	err = retry.Do(ctx, cfg, "postgres ping", func() error {
		return db.PingContext(ctx)
	}, func(error) bool { return true }, func(err error, wait time.Duration) {
		logger.ForComponent("postgres").Warn().Err(err).Dur("retry_in", wait).Msg("Waiting for database")
	})
	if err != nil {
		db.Close()
		return nil, crawlerrors.NewPersistence("postgres", "database unreachable", err)
	}

	m := &PostgresMirror{db: db}
	if err := m.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// NewPostgresMirror wraps an open database handle
func NewPostgresMirror(db *sql.DB) *PostgresMirror {
	return &PostgresMirror{db: db}
}

func (m *PostgresMirror) ensureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return crawlerrors.NewPersistence("postgres", "failed to create catalog_products", err)
	}
	return nil
}

func (m *PostgresMirror) Name() string {
	return "postgres"
}

// Mirror replaces the table contents with corpus in one transaction
func (m *PostgresMirror) Mirror(ctx context.Context, corpus crawler.Corpus) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return crawlerrors.NewPersistence("postgres", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_products`); err != nil {
		return crawlerrors.NewPersistence("postgres", "failed to clear catalog_products", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertProductSQL)
	if err != nil {
		return crawlerrors.NewPersistence("postgres", "failed to prepare insert", err)
	}
	defer stmt.Close()

	crawledAt := time.Now().UTC()
	for i, p := range corpus {
		if _, err := stmt.ExecContext(ctx, i, p.Title, p.Link, p.Price, p.Image, p.Category, crawledAt); err != nil {
			return crawlerrors.NewPersistence("postgres", "failed to insert product", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return crawlerrors.NewPersistence("postgres", "failed to commit", err)
	}
	return nil
}

// Close closes the database handle
func (m *PostgresMirror) Close() error {
	return m.db.Close()
}
