package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/aishwarya1-1/AutomateAccounts/constants"
	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/export"
	"github.com/aishwarya1-1/AutomateAccounts/internal/gemini"
	"github.com/aishwarya1-1/AutomateAccounts/internal/ingest"
	"github.com/aishwarya1-1/AutomateAccounts/internal/ocr"
	"github.com/aishwarya1-1/AutomateAccounts/internal/pipeline"
	repo "github.com/aishwarya1-1/AutomateAccounts/internal/repository"
	"github.com/aishwarya1-1/AutomateAccounts/internal/services/receipts"
)

// scanDir returns the paths of ingestible documents directly under dir,
// in directory order. Subdirectories are not descended into.
func scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !constants.IsAllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process receipts from (required)")
		out     = flag.String("out", "", "output XLSX file path (defaults to parent directory)")
		workers = flag.Int("workers", 4, "number of files processed concurrently")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "error: --dir is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "receipts.xlsx")
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := repo.Open(ctx, repo.Config{Path: cfg.Database.Path, DialTimeout: 5 * time.Second}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	filesRepo := repo.NewSourceFileRepository(db)
	receiptsRepo := repo.NewReceiptRepository(db, logger)

	ingestor, err := ingest.NewService(cfg.Upload.Dir, cfg.Upload.MaxFileSize, filesRepo, logger)
	if err != nil {
		logger.Error("failed to init upload area", "error", err)
		os.Exit(1)
	}

	recognizer := ocr.NewRecognizer(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	ai := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Temperature:     cfg.Gemini.Temperature,
		TopP:            cfg.Gemini.TopP,
		TopK:            cfg.Gemini.TopK,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		Timeout:         cfg.Gemini.Timeout,
	}, logger)
	if !ai.HasCredential() {
		logger.Warn("gemini api key not configured, extraction uses offline rules only")
	}

	svc := receipts.NewService(logger, filesRepo, receiptsRepo, pipeline.NewProcessor(logger, recognizer, ai))

	// Stage 1: ingest every PDF in the directory. Sequential on purpose so
	// upload errors surface in file order.
	logger.Info("starting ingestion", "dir", *dir)
	var ingested []uuid.UUID
	paths, err := scanDir(*dir)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open file", "path", path, "error", err)
			continue
		}
		file, err := ingestor.SaveUpload(ctx, filepath.Base(path), f)
		f.Close()
		if err != nil {
			logger.Error("failed to upload file", "path", path, "error", err)
			continue
		}
		file, err = ingestor.Validate(ctx, file.ID)
		if err != nil {
			logger.Error("failed to validate file", "file_id", file.ID, "error", err)
			continue
		}
		if !file.IsValid {
			reason := ""
			if file.InvalidReason != nil {
				reason = *file.InvalidReason
			}
			logger.Warn("skipping invalid file", "file_id", file.ID, "reason", reason)
			continue
		}
		ingested = append(ingested, file.ID)
	}
	logger.Info("ingestion complete", "scanned", len(paths), "ingested", len(ingested))

	// Stage 2: process ingested files with a bounded worker group.
	var processed, failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, fileID := range ingested {
		g.Go(func() error {
			logger.Info("processing file", "file_id", fileID)
			if _, err := svc.ProcessFile(gctx, fileID); err != nil {
				logger.Error("failed to process file", "file_id", fileID, "error", err)
				failures.Add(1)
				return nil // one bad document does not stop the batch
			}
			processed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("batch processing aborted", "error", err)
		os.Exit(1)
	}

	// Stage 3: export everything to XLSX.
	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(receiptsRepo, logger).ReceiptsXLSX(ctx)
	if err != nil {
		logger.Error("failed to export receipts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_ingested", len(ingested),
		"files_processed", processed.Load(),
		"failures", failures.Load(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files ingested: %d\n", len(ingested))
	fmt.Printf("- Files processed: %d\n", processed.Load())
	fmt.Printf("- Failures: %d\n", failures.Load())
	fmt.Printf("- Output: %s\n", *out)
}
