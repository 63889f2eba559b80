// Package receipts implements the end-to-end flow for one uploaded
// document: validity gate, extraction pipeline, normalization, and the
// transactional write of the resulting record group.
package receipts

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
	"github.com/aishwarya1-1/AutomateAccounts/internal/normalize"
	"github.com/aishwarya1-1/AutomateAccounts/internal/repository"
)

// DocumentProcessor runs the recognize → extract pipeline for one
// document path.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) extract.Result
}

type Service struct {
	logger       *slog.Logger
	filesRepo    repository.SourceFileRepository
	receiptsRepo repository.ReceiptRepository
	processor    DocumentProcessor
}

func NewService(logger *slog.Logger, files repository.SourceFileRepository, recs repository.ReceiptRepository, proc DocumentProcessor) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:       logger,
		filesRepo:    files,
		receiptsRepo: recs,
		processor:    proc,
	}
}

// ProcessFile runs extraction for an already-validated source file and
// persists the normalized receipt. Invalid or unvalidated files are
// rejected before any recognizer work happens. Reprocessing a processed
// file returns its existing receipt.
func (s *Service) ProcessFile(ctx context.Context, fileID uuid.UUID) (*entity.Receipt, error) {
	row, err := s.filesRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !row.IsValid {
		reason := "file has not passed validation"
		if row.InvalidReason != nil {
			reason = *row.InvalidReason
		}
		s.logger.Warn("refusing to process invalid file", "file_id", fileID, "reason", reason)
		return nil, fmt.Errorf("source file %s is not valid (%s): %w", fileID, reason, common.ErrInvalidInput)
	}

	if row.IsProcessed {
		s.logger.Info("file already processed", "file_id", fileID)
		return s.receiptsRepo.GetBySourceFile(ctx, fileID)
	}

	res := s.processor.Process(ctx, row.FilePath)
	if !res.Success {
		return nil, fmt.Errorf("%s: %w", res.Error, common.ErrRecognition)
	}

	rec := normalizeResult(res, row)
	saved, err := s.receiptsRepo.SaveProcessed(ctx, rec)
	if err != nil {
		return nil, common.WrapError(err, "persist receipt")
	}

	s.logger.Info("file processed",
		"file_id", fileID,
		"receipt_id", saved.ID,
		"merchant", strOrEmpty(saved.MerchantName),
		"items", len(saved.Items),
	)
	return saved, nil
}

// normalizeResult converts the loosely-typed extraction result into the
// persisted shape. Unparseable dates and amounts degrade to nil for
// that field only; nothing here aborts the pipeline.
func normalizeResult(res extract.Result, file *entity.SourceFile) *entity.Receipt {
	rec := &entity.Receipt{
		SourceFileID: file.ID,
		FilePath:     file.FilePath,
	}

	if res.MerchantName != "" {
		rec.MerchantName = strPtr(res.MerchantName)
	}
	if t, ok := normalize.ParseDate(res.PurchasedAt); ok {
		rec.PurchasedAt = &t
	}
	rec.TotalAmount = parseFlex(res.TotalAmount)
	rec.TaxAmount = parseFlex(res.TaxAmount)
	if res.ReceiptNumber != "" {
		rec.ReceiptNumber = strPtr(res.ReceiptNumber)
	}
	if res.PaymentMethod != "" {
		rec.PaymentMethod = strPtr(res.PaymentMethod)
	}
	if res.Currency != "" {
		rec.Currency = strPtr(res.Currency)
	}

	rec.Items = make([]entity.LineItem, 0, len(res.Items))
	for _, it := range res.Items {
		item := entity.LineItem{
			Quantity:   parseFlex(it.Quantity),
			UnitPrice:  parseFlex(it.UnitPrice),
			TotalPrice: parseFlex(it.TotalPrice),
		}
		if it.Description != "" {
			item.Description = strPtr(it.Description)
		}
		rec.Items = append(rec.Items, item)
	}
	return rec
}

// GetReceipt returns a receipt with its line items.
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return s.receiptsRepo.GetByID(ctx, id)
}

// ListReceipts returns all stored receipts, newest first.
func (s *Service) ListReceipts(ctx context.Context) ([]*entity.Receipt, error) {
	return s.receiptsRepo.List(ctx)
}

// ListFiles returns all source files, newest first.
func (s *Service) ListFiles(ctx context.Context) ([]*entity.SourceFile, error) {
	return s.filesRepo.List(ctx)
}

// DeleteFile removes a source file record (its receipts and line items
// cascade) and best-effort removes the stored document from disk.
func (s *Service) DeleteFile(ctx context.Context, id uuid.UUID) error {
	row, err := s.filesRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.filesRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(row.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stored file", "file_id", id, "path", row.FilePath, "error", err)
	}
	return nil
}

func parseFlex(v extract.FlexValue) *float64 {
	if v.IsEmpty() {
		return nil
	}
	f, ok := normalize.ParseAmount(v.String())
	if !ok {
		return nil
	}
	return &f
}

func strPtr(s string) *string { return &s }

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
