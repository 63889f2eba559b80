package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aishwarya1-1/AutomateAccounts/internal/repository"
)

// Service is a tiny façade over the receipt repository that produces
// XLSX bytes for exports.
type Service struct {
	receiptsRepo repository.ReceiptRepository
	logger       *slog.Logger
}

func NewService(repo repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receiptsRepo: repo, logger: logger}
}

// ReceiptsXLSX returns an XLSX workbook (as bytes) with one row per
// stored receipt. Fields the pipeline could not extract stay blank.
func (s *Service) ReceiptsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.receiptsRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{
		"Purchase Date",
		"Merchant",
		"Total",
		"Tax",
		"Currency",
		"Receipt Number",
		"Payment Method",
		"Items",
		"Source File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for rowIdx, r := range recs {
		values := []any{
			formatDate(r.PurchasedAt),
			deref(r.MerchantName),
			derefFloat(r.TotalAmount),
			derefFloat(r.TaxAmount),
			deref(r.Currency),
			deref(r.ReceiptNumber),
			deref(r.PaymentMethod),
			len(r.Items),
			r.FilePath,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("receipts exported",
		"rows", len(recs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}
