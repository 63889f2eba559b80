package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/export"
	"github.com/aishwarya1-1/AutomateAccounts/internal/gemini"
	"github.com/aishwarya1-1/AutomateAccounts/internal/ingest"
	"github.com/aishwarya1-1/AutomateAccounts/internal/ocr"
	"github.com/aishwarya1-1/AutomateAccounts/internal/pipeline"
	repo "github.com/aishwarya1-1/AutomateAccounts/internal/repository"
	"github.com/aishwarya1-1/AutomateAccounts/internal/services/receipts"
)

const usage = `accounts <command> [args]

commands:
  upload <path>         copy a PDF into the upload area and validate it
  process <file-id>     run recognition and extraction for an uploaded file
  files                 list uploaded files
  receipts              list stored receipts
  show <receipt-id>     print one receipt with its line items
  delete <file-id>      remove a file and its receipt
  export <out.xlsx>     write all receipts to an XLSX workbook`

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("accounts")
	var (
		dbPath    = fs.StringLong("db", "", "database file path (overrides DB_PATH)")
		uploadDir = fs.StringLong("uploads", "", "upload directory (overrides UPLOAD_DIR)")
		verbose   = fs.BoolLong("verbose", "enable debug logging")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("ACCOUNTS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	args := fs.GetArgs()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *uploadDir != "" {
		cfg.Upload.Dir = *uploadDir
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if err := app.run(ctx, args); err != nil {
		logger.Error("command failed", "cmd", args[0], "error", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	db       func()
	ingestor *ingest.Service
	svc      *receipts.Service
	exporter *export.Service
}

func newApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app, error) {
	db, err := repo.Open(ctx, repo.Config{Path: cfg.Database.Path, DialTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	filesRepo := repo.NewSourceFileRepository(db)
	receiptsRepo := repo.NewReceiptRepository(db, logger)

	ingestor, err := ingest.NewService(cfg.Upload.Dir, cfg.Upload.MaxFileSize, filesRepo, logger)
	if err != nil {
		repo.Close(db, logger)
		return nil, fmt.Errorf("init upload area: %w", err)
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
		logger.Warn("no gemini api key configured, extraction falls back to offline rules")
	}

	processor := pipeline.NewProcessor(logger, recognizer, ai)
	svc := receipts.NewService(logger, filesRepo, receiptsRepo, processor)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       func() { repo.Close(db, logger) },
		ingestor: ingestor,
		svc:      svc,
		exporter: export.NewService(receiptsRepo, logger),
	}, nil
}

func (a *app) close() { a.db() }

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "upload":
		return a.upload(ctx, rest)
	case "process":
		return a.process(ctx, rest)
	case "files":
		return a.listFiles(ctx)
	case "receipts":
		return a.listReceipts(ctx)
	case "show":
		return a.show(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accounts upload <path>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := a.ingestor.SaveUpload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	file, err = a.ingestor.Validate(ctx, file.ID)
	if err != nil {
		return err
	}
	return printJSON(file)
}

func (a *app) process(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accounts process <file-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id %q: %w", args[0], err)
	}
	rec, err := a.svc.ProcessFile(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func (a *app) listFiles(ctx context.Context) error {
	files, err := a.svc.ListFiles(ctx)
	if err != nil {
		return err
	}
	return printJSON(files)
}

func (a *app) listReceipts(ctx context.Context) error {
	recs, err := a.svc.ListReceipts(ctx)
	if err != nil {
		return err
	}
	return printJSON(recs)
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accounts show <receipt-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid receipt id %q: %w", args[0], err)
	}
	rec, err := a.svc.GetReceipt(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accounts delete <file-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id %q: %w", args[0], err)
	}
	if err := a.svc.DeleteFile(ctx, id); err != nil {
		return err
	}
	fmt.Println("deleted", id)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accounts export <out.xlsx>")
	}
	data, err := a.exporter.ReceiptsXLSX(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", args[0])
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
