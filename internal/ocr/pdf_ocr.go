package ocr

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
)

// pageRenderer rasterizes PDF pages to PNG files under dir, returning
// the image paths in page order. Stubbed in tests.
type pageRenderer interface {
	RenderPages(path string, dpi int, maxPages int, dir string) ([]string, error)
}

type fitzRenderer struct {
	log *slog.Logger
}

func (r fitzRenderer) RenderPages(path string, dpi int, maxPages int, dir string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			r.log.Warn("failed to close pdf", "path", path, "error", err)
		}
	}()

	pages := doc.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	if pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	out := make([]string, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}
		imgPath := filepath.Join(dir, fmt.Sprintf("page-%04d.png", n+1))
		f, err := os.Create(imgPath)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("encode page %d: %w", n+1, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		out = append(out, imgPath)
	}
	return out, nil
}

// Recognize renders every page of the PDF at path, OCRs each rendered
// image independently, and joins the page texts with a blank line in
// page order. No cross-page layout correction is attempted. Temporary
// rendered images are removed on every exit path. Any render or OCR
// failure collapses into a single error; no partial-page text is
// returned.
func (r *Recognizer) Recognize(ctx context.Context, path string) (string, error) {
	start := time.Now()
	r.logger.Debug("starting text recognition", "path", path, "dpi", r.cfg.DPI)

	tmpDir, err := os.MkdirTemp("", "aa-pages-*")
	if err != nil {
		return "", err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	images, err := r.renderer.RenderPages(path, r.cfg.DPI, r.cfg.MaxPages, tmpDir)
	if err != nil {
		r.logger.Error("pdf render failed", "path", path, "error", err)
		return "", fmt.Errorf("render pdf: %w", err)
	}

	var b strings.Builder
	for i, img := range images {
		txt, err := r.tesseractOCR(ctx, img)
		if err != nil {
			r.logger.Error("page ocr failed", "path", path, "page", i+1, "error", err)
			return "", fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}

	r.logger.Info("text recognition ok",
		"path", path,
		"pages", len(images),
		"bytes", b.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}

func (r *Recognizer) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", r.cfg.TesseractLang}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
