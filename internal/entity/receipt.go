package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt represents a normalized receipt for data transfer between layers.
// Every extracted field is independently optional; a nil pointer means
// "not found", not failure.
type Receipt struct {
	ID            uuid.UUID  `json:"id"`
	SourceFileID  uuid.UUID  `json:"source_file_id"`
	MerchantName  *string    `json:"merchant_name,omitempty"`
	PurchasedAt   *time.Time `json:"purchased_at,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	ReceiptNumber *string    `json:"receipt_number,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	Currency      *string    `json:"currency,omitempty"`
	FilePath      string     `json:"file_path"`
	Items         []LineItem `json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LineItem is a purchased item owned by exactly one receipt. Line items
// are destroyed with their receipt. No arithmetic relation between
// quantity, unit price and total price is enforced.
type LineItem struct {
	ID          uuid.UUID `json:"id"`
	ReceiptID   uuid.UUID `json:"receipt_id"`
	Description *string   `json:"description,omitempty"`
	Quantity    *float64  `json:"quantity,omitempty"`
	UnitPrice   *float64  `json:"unit_price,omitempty"`
	TotalPrice  *float64  `json:"total_price,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
