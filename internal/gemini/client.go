// Package gemini implements structured receipt extraction against the
// Gemini generateContent REST endpoint. The credential is passed in
// explicitly via Config; extraction logic never consults the process
// environment.
package gemini

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the Gemini client. Generation parameters are pinned to a
// low-variance preset so repeated extractions of the same document stay
// stable.
type Config struct {
	APIKey          string        // empty -> text mode degrades, image mode fails
	BaseURL         string        // default https://generativelanguage.googleapis.com/v1
	Model           string        // e.g., "gemini-1.5-flash"
	Temperature     float32       // default 0.1
	TopP            float32       // default 0.95
	TopK            int           // default 0
	MaxOutputTokens int           // default 2048
	Timeout         time.Duration // http client timeout
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.TopP <= 0 {
		cfg.TopP = 0.95
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// HasCredential reports whether an API key was configured.
func (c *Client) HasCredential() bool { return c.cfg.APIKey != "" }
