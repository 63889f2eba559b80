package ocr

import "log/slog"

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string
}

// Recognizer converts a PDF document into raw text by rendering each
// page to a raster image and running OCR on the images independently,
// in page order.
type Recognizer struct {
	cfg      Config
	runner   Runner
	renderer pageRenderer
	logger   *slog.Logger
}

func NewRecognizer(cfg Config, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Recognizer{cfg: cfg, runner: execRunner{}, renderer: fitzRenderer{log: logger}, logger: logger}
}
