package ledger

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
)

// Repository defines persistence operations for the movement ledger.
// All methods run inside the caller's transaction; nothing here commits.
type Repository interface {
	// Append persists one movement. The record is immutable once written.
	Append(ctx context.Context, scope tenant.Scope, m *Movement) error

	// AppendBatch inserts several movements in one statement (FIFO
	// deductions write one movement per batch slice).
	AppendBatch(ctx context.Context, scope tenant.Scope, ms []Movement) error

	// ListForProduct returns all movements for a product in the scope's
	// branch, newest first.
	ListForProduct(ctx context.Context, scope tenant.Scope, productID id.ID, f MovementFilter) ([]Movement, error)

	// ListForBranch returns movements across all products in the
	// scope's branch, newest first. Feeds reporting.
	ListForBranch(ctx context.Context, scope tenant.Scope, f MovementFilter) ([]Movement, error)

	// TotalStock sums all movement deltas for a product. The raw sum may
	// be negative for products with pre-batch history; callers decide
	// whether to clamp.
	TotalStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error)

	// BatchBalances groups movements with a non-null batch number by
	// (batch_number, expiry_date, location) and sums deltas per group.
	// Each group carries the timestamp of its earliest movement. With
	// includeNullExpiry false, groups without an expiry date are skipped.
	BatchBalances(ctx context.Context, scope tenant.Scope, productID id.ID, includeNullExpiry bool) ([]BatchBalance, error)

	// ExpiredBatchBalances returns positive-balance batch groups whose
	// expiry date is strictly before the given day. A nil productID
	// covers every product in the branch. Feeds the write-off engine.
	ExpiredBatchBalances(ctx context.Context, scope tenant.Scope, before time.Time, productID *id.ID) ([]BatchBalance, error)

	// LatestUnitCosts returns, per batch number, the unit cost carried
	// by the most recent positive movement of that batch. Batches whose
	// positive movements never recorded a cost are absent from the map.
	LatestUnitCosts(ctx context.Context, scope tenant.Scope, productID id.ID, batchNumbers []string) (map[string]types.Money, error)

	// MovementsBySale returns the movements linked to a sale, oldest
	// first. Used for idempotent replay and reversal.
	MovementsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Movement, error)

	// DeleteBySale removes all movements linked to a sale and returns
	// the deleted records so they can be written to the audit log.
	DeleteBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Movement, error)

	// LockProductStock serializes writers on (product, branch) for the
	// rest of the transaction. Derived balances have no row to lock, so
	// this takes a transaction-scoped advisory lock instead.
	LockProductStock(ctx context.Context, scope tenant.Scope, productID id.ID) error
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Reason   *string
	Location *string
	Limit    int
	Offset   int
}
