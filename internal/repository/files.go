package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
)

// SourceFileRepository persists uploaded documents and their
// validity/processing state.
type SourceFileRepository interface {
	Create(ctx context.Context, fileName, filePath string) (*entity.SourceFile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error)
	List(ctx context.Context) ([]*entity.SourceFile, error)
	MarkValidated(ctx context.Context, id uuid.UUID, valid bool, reason string, pages int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type sourceFileRepo struct {
	db *sql.DB
}

func NewSourceFileRepository(db *sql.DB) SourceFileRepository {
	return &sourceFileRepo{db: db}
}

func (r *sourceFileRepo) Create(ctx context.Context, fileName, filePath string) (*entity.SourceFile, error) {
	now := time.Now().UTC()
	f := &entity.SourceFile{
		ID:        uuid.New(),
		FileName:  fileName,
		FilePath:  filePath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO source_files (id, file_name, file_path, is_valid, is_processed, page_count, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, 0, ?, ?)`,
		f.ID.String(), f.FileName, f.FilePath, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert source file: %w", err)
	}
	return f, nil
}

func (r *sourceFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_path, is_valid, invalid_reason, is_processed, page_count, created_at, updated_at
		FROM source_files WHERE id = ?`, id.String())
	return scanSourceFile(row)
}

func (r *sourceFileRepo) List(ctx context.Context) ([]*entity.SourceFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_name, file_path, is_valid, invalid_reason, is_processed, page_count, created_at, updated_at
		FROM source_files ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list source files: %w", err)
	}
	defer rows.Close()

	var out []*entity.SourceFile
	for rows.Next() {
		f, err := scanSourceFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkValidated records the outcome of PDF validation. Last writer wins
// if the same file is validated concurrently.
func (r *sourceFileRepo) MarkValidated(ctx context.Context, id uuid.UUID, valid bool, reason string, pages int) error {
	var reasonVal any
	if reason != "" {
		reasonVal = reason
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE source_files SET is_valid = ?, invalid_reason = ?, page_count = ?, updated_at = ?
		WHERE id = ?`,
		valid, reasonVal, pages, time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark validated: %w", err)
	}
	return requireRow(res, id)
}

func (r *sourceFileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM source_files WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete source file: %w", err)
	}
	return requireRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSourceFile(row rowScanner) (*entity.SourceFile, error) {
	var (
		f      entity.SourceFile
		idStr  string
		reason sql.NullString
	)
	err := row.Scan(&idStr, &f.FileName, &f.FilePath, &f.IsValid, &reason, &f.IsProcessed, &f.PageCount, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source file: %w", err)
	}
	f.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse source file id: %w", err)
	}
	if reason.Valid {
		f.InvalidReason = &reason.String
	}
	return &f, nil
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("source file %s: %w", id, common.ErrNotFound)
	}
	return nil
}
