package sale

import (
	"context"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
)

// Repository defines persistence for sales and returns. All methods
// participate in the caller's transaction.
type Repository interface {
	// Create inserts a sale.
	Create(ctx context.Context, scope tenant.Scope, s *Sale) error

	// GetByID returns a sale, or NotFound.
	GetByID(ctx context.Context, scope tenant.Scope, saleID id.ID) (*Sale, error)

	// FindByClientSaleID returns the sale with the client idempotency
	// key in the branch, or NotFound.
	FindByClientSaleID(ctx context.Context, scope tenant.Scope, clientSaleID string) (*Sale, error)

	// List returns all sales in the branch, newest first.
	List(ctx context.Context, scope tenant.Scope) ([]Sale, error)

	// Delete removes a sale row. Reversal only.
	Delete(ctx context.Context, scope tenant.Scope, saleID id.ID) error

	// CreateReturn inserts a return record.
	CreateReturn(ctx context.Context, scope tenant.Scope, r *Return) error

	// TotalReturnedQuantity sums prior returns for a sale.
	TotalReturnedQuantity(ctx context.Context, scope tenant.Scope, saleID id.ID) (types.Quantity, error)

	// ReturnsBySale returns a sale's returns, newest first.
	ReturnsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Return, error)

	// ListReturns returns the branch's returns, newest first.
	ListReturns(ctx context.Context, scope tenant.Scope, limit int) ([]Return, error)

	// SummarizeReturns aggregates count, quantity and refund totals.
	SummarizeReturns(ctx context.Context, scope tenant.Scope) (ReturnsSummary, error)
}
