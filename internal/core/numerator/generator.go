// Package numerator provides domain contracts for receipt auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"

	"kardex/internal/core/tenant"
)

// Generator generates sequential receipt numbers per tenant account.
// Pattern: PREFIX-YEAR-XXXXX (e.g., RCT-2026-00001).
type Generator interface {
	// NextNumber generates the next number for the scope's owner.
	//
	// Supports Strict (DB-level) and Cached (Memory-level) strategies.
	NextNumber(ctx context.Context, scope tenant.Scope, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, scope tenant.Scope, cfg Config, period time.Time, value int64) error
}
