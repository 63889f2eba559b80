package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/ocr"
)

// runocr runs text recognition for a single PDF and prints the result.
// Useful for checking tesseract and rendering settings without touching
// the database.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <path-to-pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	recognizer := ocr.NewRecognizer(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	text, err := recognizer.Recognize(ctx, path)
	dur := time.Since(start)

	if err != nil {
		logger.Error("text recognition failed",
			"path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text recognition OK",
		"path", path,
		"bytes", len(text),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(text)
}
