// Package ingest handles uploaded documents: placement on disk under a
// collision-proof name, and structural validation before the extraction
// pipeline is allowed to run.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"

	"github.com/aishwarya1-1/AutomateAccounts/constants"
	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
	"github.com/aishwarya1-1/AutomateAccounts/internal/repository"
)

type Service struct {
	uploadDir  string
	maxSize    int64
	filesRepo  repository.SourceFileRepository
	countPages func(path string) (int, error)
	logger     *slog.Logger
}

func NewService(uploadDir string, maxSize int64, files repository.SourceFileRepository, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		uploadDir:  uploadDir,
		maxSize:    maxSize,
		filesRepo:  files,
		countPages: fitzPageCount,
		logger:     logger,
	}, nil
}

// SaveUpload stores the uploaded content under a unique sanitized name
// and records an unvalidated SourceFile. Only PDF uploads are accepted;
// the extension check happens before any bytes are written.
func (s *Service) SaveUpload(ctx context.Context, filename string, r io.Reader) (*entity.SourceFile, error) {
	if !constants.IsAllowedExt(filepath.Ext(filename)) {
		return nil, fmt.Errorf("invalid file type, only PDF files are allowed: %w", common.ErrInvalidInput)
	}

	unique := uniqueFilename(filename)
	dest := filepath.Join(s.uploadDir, unique)

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = 16 << 20
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("file exceeds %d bytes: %w", limit, common.ErrInvalidInput)
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, err
	}

	row, err := s.filesRepo.Create(ctx, unique, dest)
	if err != nil {
		_ = os.Remove(dest)
		return nil, err
	}

	s.logger.Info("upload saved", "file_id", row.ID, "filename", unique, "bytes", n)
	return row, nil
}

// Validate opens the stored document, counts its pages, and records the
// outcome on the SourceFile. An unparseable PDF marks the file invalid
// with the parser's reason; it is not an error at this layer.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error) {
	row, err := s.filesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pages, err := s.countPages(row.FilePath)
	if err != nil {
		reason := err.Error()
		s.logger.Warn("pdf validation failed", "file_id", id, "reason", reason)
		if err := s.filesRepo.MarkValidated(ctx, id, false, reason, 0); err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("pdf validated", "file_id", id, "pages", pages)
		if err := s.filesRepo.MarkValidated(ctx, id, true, "", pages); err != nil {
			return nil, err
		}
	}
	return s.filesRepo.GetByID(ctx, id)
}

func fitzPageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return pages, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename strips path components and anything outside a safe
// character set.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload.pdf"
	}
	return name
}

// uniqueFilename prefixes the sanitized name with a timestamp and a
// short random id so repeated uploads never overwrite each other.
func uniqueFilename(name string) string {
	return fmt.Sprintf("%s_%s_%s",
		time.Now().Format("20060102150405"),
		uuid.New().String()[:8],
		sanitizeFilename(name),
	)
}
