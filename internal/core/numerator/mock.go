// Package numerator provides domain contracts for receipt auto-numbering.
package numerator

import (
	"context"
	"time"

	"kardex/internal/core/tenant"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextNumberFunc    func(ctx context.Context, scope tenant.Scope, cfg Config, opts *Options, period time.Time) (string, error)
	SetNextNumberFunc func(ctx context.Context, scope tenant.Scope, cfg Config, period time.Time, value int64) error
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, scope tenant.Scope, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, scope, cfg, opts, period)
	}
	// Default: return predictable mock number
	return "MOCK-2026-00001", nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, scope tenant.Scope, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, scope, cfg, period, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
