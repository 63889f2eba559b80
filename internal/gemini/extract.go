package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
)

// Request body shape for generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Response envelope; only the first candidate's first text part matters.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const fieldList = `- merchant_name: the store or vendor name
- total_amount: the total amount paid (numeric value only)
- purchased_at: the purchase date in YYYY-MM-DD format
- receipt_number: receipt or transaction number
- payment_method: method of payment (credit card, cash, etc.)
- tax_amount: tax amount if available
- currency: currency code or symbol
- items: an array of purchased items, each with:
  - description: item name/description
  - quantity: number of items (if available)
  - unit_price: price per unit (if available)
  - total_price: total price for this item`

// ExtractFromText extracts structured receipt fields from OCR text.
// Without a credential it returns a degraded but successful result with
// only the merchant placeholder populated: text extraction always has
// the heuristic path behind it, so a hard failure here would be noise.
// A single attempt is made; there are no retries at this layer.
func (c *Client) ExtractFromText(ctx context.Context, text string) extract.Result {
	if !c.HasCredential() {
		c.log.Warn("gemini.extract.no_api_key", "mode", "text")
		return extract.Successful(extract.Fields{
			MerchantName: "Unknown",
			Items:        []extract.LineItem{},
		})
	}

	prompt := fmt.Sprintf(`Extract the following information from this receipt OCR text.
If you cannot find specific information, return null for that field.

Return a JSON object with the following fields:
%s

Receipt text:
%s

Only respond with a JSON object, nothing else.`, fieldList, text)

	return c.generate(ctx, []part{{Text: prompt}}, "text")
}

// ExtractFromImage extracts structured receipt fields directly from
// image bytes. Unlike text mode there is no safe degraded default for
// image input, so a missing credential is a hard failure.
func (c *Client) ExtractFromImage(ctx context.Context, image []byte, mimeType string) extract.Result {
	if !c.HasCredential() {
		c.log.Warn("gemini.extract.no_api_key", "mode", "image")
		return extract.Failure("gemini api key not provided")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	prompt := fmt.Sprintf(`This is a scanned receipt. Extract the following information:
%s

Respond only with JSON.`, fieldList)

	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return c.generate(ctx, parts, "image")
}

func (c *Client) generate(ctx context.Context, parts []part, mode string) extract.Result {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("gemini.extract.start",
		"req_id", rid,
		"mode", mode,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
	)

	body := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopP:            c.cfg.TopP,
			TopK:            c.cfg.TopK,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		c.log.Error("gemini.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Failure(fmt.Sprintf("API error: %v", err))
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Error("gemini.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return extract.Failure(fmt.Sprintf("Response parsing error: %v", err))
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		c.log.Error("gemini.extract.empty_response", "req_id", rid)
		return extract.Failure("Response parsing error: no candidates in response")
	}

	payload := stripFence(resp.Candidates[0].Content.Parts[0].Text)

	if err := validatePayload(payload); err != nil {
		c.log.Error("gemini.extract.invalid_payload", "req_id", rid, "error", err)
		return extract.Failure(fmt.Sprintf("Response parsing error: %v", err))
	}

	var fields extract.Fields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		c.log.Error("gemini.extract.unmarshal_error", "req_id", rid, "error", err)
		return extract.Failure(fmt.Sprintf("Response parsing error: %v", err))
	}
	if fields.Items == nil {
		fields.Items = []extract.LineItem{}
	}

	c.log.Info("gemini.extract.ok",
		"req_id", rid,
		"merchant", fields.MerchantName,
		"total", fields.TotalAmount.String(),
		"date", fields.PurchasedAt,
		"items", len(fields.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.Successful(fields)
}

func (c *Client) post(ctx context.Context, body generateRequest) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

// stripFence removes an optional markdown code fence around the JSON
// payload, taking the first fenced block when several exist.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
