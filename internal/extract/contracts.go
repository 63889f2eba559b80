package extract

import "context"

// TextRecognizer converts a PDF document on disk into raw text,
// page by page, concatenated in page order.
type TextRecognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// TextExtractor derives structured receipt fields from raw text.
// Implementations report unavailability through Result.Success rather
// than a Go error so the orchestrator can fall through uniformly.
type TextExtractor interface {
	ExtractFromText(ctx context.Context, text string) Result
}

// Result is the structured output of an extractor. When Success is
// false, Error carries the reason and every data field is meaningless.
// When Success is true, each field is independently optional: an empty
// value means "not found", and no field implies another.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Fields
}

// Fields are the loosely-typed extracted values, pre-normalization.
// Dates are free text; monetary values may arrive from the extraction
// service as either JSON numbers or strings.
type Fields struct {
	MerchantName  string     `json:"merchant_name,omitempty"`
	TotalAmount   FlexValue  `json:"total_amount,omitempty"`
	PurchasedAt   string     `json:"purchased_at,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	TaxAmount     FlexValue  `json:"tax_amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Items         []LineItem `json:"items,omitempty"`
}

// LineItem mirrors one purchased item as reported by an extractor.
type LineItem struct {
	Description string    `json:"description,omitempty"`
	Quantity    FlexValue `json:"quantity,omitempty"`
	UnitPrice   FlexValue `json:"unit_price,omitempty"`
	TotalPrice  FlexValue `json:"total_price,omitempty"`
}

// Failure builds a failed Result with the given reason.
func Failure(reason string) Result {
	return Result{Success: false, Error: reason}
}

// Successful wraps fields in a succeeding Result.
func Successful(f Fields) Result {
	return Result{Success: true, Fields: f}
}
