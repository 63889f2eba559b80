package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
)

// ReceiptRepository persists normalized receipts and their line items.
type ReceiptRepository interface {
	// SaveProcessed writes the receipt, its line items, and the source
	// file's is_processed flag in one transaction. Any failure rolls
	// the whole group back: is_processed never becomes true without an
	// attached receipt.
	SaveProcessed(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetBySourceFile(ctx context.Context, fileID uuid.UUID) (*entity.Receipt, error)
	List(ctx context.Context) ([]*entity.Receipt, error)
}

type receiptRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReceiptRepository(db *sql.DB, logger *slog.Logger) ReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptRepo{db: db, logger: logger}
}

func (r *receiptRepo) SaveProcessed(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil receipt: %w", common.ErrInvalidInput)
	}

	now := time.Now().UTC()
	rec.ID = uuid.New()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", common.WrapError(err, "persistence"))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn("rollback failed", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, source_file_id, merchant_name, purchased_at, total_amount, tax_amount,
			receipt_number, payment_method, currency, file_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.SourceFileID.String(),
		nullStr(rec.MerchantName), nullTime(rec.PurchasedAt), nullFloat(rec.TotalAmount), nullFloat(rec.TaxAmount),
		nullStr(rec.ReceiptNumber), nullStr(rec.PaymentMethod), nullStr(rec.Currency),
		rec.FilePath, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}

	for i := range rec.Items {
		item := &rec.Items[i]
		item.ID = uuid.New()
		item.ReceiptID = rec.ID
		item.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO line_items (id, receipt_id, description, quantity, unit_price, total_price, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID.String(), item.ReceiptID.String(),
			nullStr(item.Description), nullFloat(item.Quantity), nullFloat(item.UnitPrice), nullFloat(item.TotalPrice),
			item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert line item %d: %w", i, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE source_files SET is_processed = 1, updated_at = ? WHERE id = ?`,
		now, rec.SourceFileID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("source file %s: %w", rec.SourceFileID, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("receipt saved",
		"receipt_id", rec.ID,
		"source_file_id", rec.SourceFileID,
		"items", len(rec.Items),
	)
	return rec, nil
}

func (r *receiptRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	row := r.db.QueryRowContext(ctx, selectReceipt+` WHERE id = ?`, id.String())
	rec, err := scanReceipt(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *receiptRepo) GetBySourceFile(ctx context.Context, fileID uuid.UUID) (*entity.Receipt, error) {
	row := r.db.QueryRowContext(ctx, selectReceipt+` WHERE source_file_id = ? ORDER BY created_at DESC LIMIT 1`, fileID.String())
	rec, err := scanReceipt(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *receiptRepo) List(ctx context.Context) ([]*entity.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, selectReceipt+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rec := range out {
		if err := r.loadItems(ctx, rec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const selectReceipt = `
	SELECT id, source_file_id, merchant_name, purchased_at, total_amount, tax_amount,
		receipt_number, payment_method, currency, file_path, created_at, updated_at
	FROM receipts`

func (r *receiptRepo) loadItems(ctx context.Context, rec *entity.Receipt) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, receipt_id, description, quantity, unit_price, total_price, created_at
		FROM line_items WHERE receipt_id = ? ORDER BY created_at, id`, rec.ID.String())
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	rec.Items = []entity.LineItem{}
	for rows.Next() {
		var (
			item                entity.LineItem
			idStr, recIDStr     string
			desc                sql.NullString
			qty, unit, totalVal sql.NullFloat64
		)
		if err := rows.Scan(&idStr, &recIDStr, &desc, &qty, &unit, &totalVal, &item.CreatedAt); err != nil {
			return fmt.Errorf("scan line item: %w", err)
		}
		if item.ID, err = uuid.Parse(idStr); err != nil {
			return err
		}
		if item.ReceiptID, err = uuid.Parse(recIDStr); err != nil {
			return err
		}
		if desc.Valid {
			item.Description = &desc.String
		}
		if qty.Valid {
			item.Quantity = &qty.Float64
		}
		if unit.Valid {
			item.UnitPrice = &unit.Float64
		}
		if totalVal.Valid {
			item.TotalPrice = &totalVal.Float64
		}
		rec.Items = append(rec.Items, item)
	}
	return rows.Err()
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec                            entity.Receipt
		idStr, fileIDStr               string
		merchant, number, method, curr sql.NullString
		purchasedAt                    sql.NullTime
		total, tax                     sql.NullFloat64
	)
	err := row.Scan(&idStr, &fileIDStr, &merchant, &purchasedAt, &total, &tax,
		&number, &method, &curr, &rec.FilePath, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan receipt: %w", err)
	}
	if rec.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if rec.SourceFileID, err = uuid.Parse(fileIDStr); err != nil {
		return nil, err
	}
	if merchant.Valid {
		rec.MerchantName = &merchant.String
	}
	if purchasedAt.Valid {
		rec.PurchasedAt = &purchasedAt.Time
	}
	if total.Valid {
		rec.TotalAmount = &total.Float64
	}
	if tax.Valid {
		rec.TaxAmount = &tax.Float64
	}
	if number.Valid {
		rec.ReceiptNumber = &number.String
	}
	if method.Valid {
		rec.PaymentMethod = &method.String
	}
	if curr.Valid {
		rec.Currency = &curr.String
	}
	return &rec, nil
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
