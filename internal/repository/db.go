package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string
	DialTimeout time.Duration
}

// schema holds the three related tables. Line items hang off receipts
// with ON DELETE CASCADE: a receipt exclusively owns its items, and
// deleting a source file takes its receipts and their items with it.
const schema = `
CREATE TABLE IF NOT EXISTS source_files (
	id             TEXT PRIMARY KEY,
	file_name      TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	is_valid       INTEGER NOT NULL DEFAULT 0,
	invalid_reason TEXT,
	is_processed   INTEGER NOT NULL DEFAULT 0,
	page_count     INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
	id             TEXT PRIMARY KEY,
	source_file_id TEXT NOT NULL REFERENCES source_files(id) ON DELETE CASCADE,
	merchant_name  TEXT,
	purchased_at   TIMESTAMP,
	total_amount   REAL,
	tax_amount     REAL,
	receipt_number TEXT,
	payment_method TEXT,
	currency       TEXT,
	file_path      TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
	id          TEXT PRIMARY KEY,
	receipt_id  TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	description TEXT,
	quantity    REAL,
	unit_price  REAL,
	total_price REAL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_source_file ON receipts(source_file_id);
CREATE INDEX IF NOT EXISTS idx_line_items_receipt ON line_items(receipt_id);
`

// Open opens (or creates) the sqlite database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening database", "path", cfg.Path)

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping database", "error", err)
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		logger.Error("failed to apply schema", "error", err)
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready")
	return db, nil
}

// Close closes the database gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database closed")
}
