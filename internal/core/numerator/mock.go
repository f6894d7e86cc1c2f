package numerator

import (
	"context"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config) (string, error)
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg)
	}
	// Default: return predictable mock number
	return cfg.Prefix + "001", nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
