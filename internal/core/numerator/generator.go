// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "ENC")
	Prefix string

	// PadWidth is the minimum width of the numeric part (default 3)
	PadWidth int
}

// DefaultConfig returns the configuration used for orders.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 3,
	}
}

// Generator generates sequential document numbers.
//
// Numbers are derived from the most recent persisted document, so two
// concurrent creates may receive the same number. The unique index on the
// number column surfaces that collision as an error.
type Generator interface {
	// GetNextNumber returns the number following the most recent one.
	// Pattern: PREFIX + zero padded sequence (e.g., ENC008).
	GetNextNumber(ctx context.Context, cfg Config) (string, error)
}
