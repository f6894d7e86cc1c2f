package entity

import (
	"context"
	"time"

	"orderdesk/internal/core/apperror"
)

// Document is the base type for numbered business documents (orders).
type Document struct {
	BaseDocument

	// Number is the human-readable sequence number, assigned on first save
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`
}

// NewDocument creates a new Document dated today.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
