package common

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCommon(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Common Suite")
}

var _ = Describe("LoadConfig", func() {
	var cfg *Config

	JustBeforeEach(func() {
		cfg = LoadConfig()
	})

	When("no environment is set", func() {
		BeforeEach(func() {
			for _, key := range []string{"DB_PATH", "UPLOAD_DIR", "MAX_FILE_SIZE", "OCR_DPI", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TIMEOUT"} {
				GinkgoT().Setenv(key, "")
			}
		})

		It("uses the documented defaults", func() {
			Expect(cfg.Database.Path).To(Equal("receipts.db"))
			Expect(cfg.Upload.Dir).To(Equal("./uploads"))
			Expect(cfg.Upload.MaxFileSize).To(Equal(int64(16 << 20)))
			Expect(cfg.OCR.Tesseract).To(Equal("tesseract"))
			Expect(cfg.OCR.DPI).To(Equal(300))
			Expect(cfg.Gemini.Model).To(Equal("gemini-1.5-flash"))
			Expect(cfg.Gemini.Temperature).To(BeNumerically("~", 0.1, 1e-6))
			Expect(cfg.Gemini.MaxOutputTokens).To(Equal(2048))
			Expect(cfg.Gemini.Timeout).To(Equal(30 * time.Second))
		})

		It("passes validation without an API key", func() {
			Expect(cfg.Gemini.APIKey).To(BeEmpty())
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	When("the environment overrides values", func() {
		BeforeEach(func() {
			GinkgoT().Setenv("DB_PATH", "/var/lib/accounts/receipts.db")
			GinkgoT().Setenv("OCR_DPI", "150")
			GinkgoT().Setenv("GEMINI_TIMEOUT", "90s")
		})

		It("picks them up", func() {
			Expect(cfg.Database.Path).To(Equal("/var/lib/accounts/receipts.db"))
			Expect(cfg.OCR.DPI).To(Equal(150))
			Expect(cfg.Gemini.Timeout).To(Equal(90 * time.Second))
		})
	})

	When("a numeric variable is malformed", func() {
		BeforeEach(func() {
			GinkgoT().Setenv("OCR_DPI", "very high")
		})

		It("falls back to the default", func() {
			Expect(cfg.OCR.DPI).To(Equal(300))
		})
	})
})

var _ = Describe("Validate", func() {
	It("rejects an empty database path", func() {
		cfg := &Config{Upload: UploadConfig{Dir: "./uploads"}}
		err := cfg.Validate()
		Expect(err).To(MatchError(ErrInvalidInput))
	})

	It("rejects an empty upload dir", func() {
		cfg := &Config{Database: DatabaseConfig{Path: "receipts.db"}}
		Expect(cfg.Validate()).To(MatchError(ErrInvalidInput))
	})
})

var _ = Describe("AppError", func() {
	It("formats code, message, and cause", func() {
		err := NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
		Expect(err.Error()).To(Equal("CONFIG_ERROR: DB_PATH is required: invalid input"))
	})

	It("unwraps to its cause", func() {
		err := NewAppError("CONFIG_ERROR", "bad", ErrInvalidInput)
		Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
	})

	It("formats without a cause", func() {
		err := NewAppError("INTERNAL", "boom", nil)
		Expect(err.Error()).To(Equal("INTERNAL: boom"))
	})
})

var _ = Describe("WrapError", func() {
	It("returns nil for nil errors", func() {
		Expect(WrapError(nil, "context")).To(BeNil())
	})

	It("keeps the chain intact", func() {
		err := WrapError(ErrNotFound, "loading receipt")
		Expect(err).To(MatchError(ErrNotFound))
		Expect(err.Error()).To(Equal("loading receipt: resource not found"))
	})
})
