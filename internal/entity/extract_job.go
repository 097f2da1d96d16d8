package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob is one audited run of the slip pipeline. The document bytes are never stored.
type ExtractJob struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Filename      string     `db:"filename" json:"filename"`
	MediaType     string     `db:"media_type" json:"media_type"`
	Format        string     `db:"format" json:"format"`
	ContentHash   string     `db:"content_hash" json:"content_hash"`
	Status        string     `db:"status" json:"status"`
	Method        *string    `db:"method" json:"method,omitempty"`
	Pages         *int64     `db:"pages" json:"pages,omitempty"`
	ExtractedText *string    `db:"extracted_text" json:"extracted_text,omitempty"`
	ExtractedJSON *string    `db:"extracted_json" json:"extracted_json,omitempty"`
	Confidence    *string    `db:"confidence" json:"confidence,omitempty"`
	Detector      *string    `db:"detector" json:"detector,omitempty"`
	NeedsReview   bool       `db:"needs_review" json:"needs_review"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}
