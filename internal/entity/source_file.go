package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceFile represents an uploaded document tracked through its
// validity and processing states. A file starts unvalidated, transitions
// to valid/invalid once opened and page-counted, and is marked processed
// only together with the receipt created from it.
type SourceFile struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	FilePath      string    `json:"file_path"`
	IsValid       bool      `json:"is_valid"`
	InvalidReason *string   `json:"invalid_reason,omitempty"`
	IsProcessed   bool      `json:"is_processed"`
	PageCount     int       `json:"page_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
