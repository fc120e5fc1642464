package credit

import (
	"context"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
)

// Repository defines persistence for creditors and their transactions.
// All methods participate in the caller's transaction.
type Repository interface {
	// FindByName returns the creditor with the exact name in the branch,
	// or NotFound.
	FindByName(ctx context.Context, scope tenant.Scope, name string) (*Creditor, error)

	// GetByID returns a creditor, or NotFound.
	GetByID(ctx context.Context, scope tenant.Scope, creditorID id.ID) (*Creditor, error)

	// List returns all creditors in the branch, newest first.
	List(ctx context.Context, scope tenant.Scope) ([]Creditor, error)

	// Create inserts a creditor.
	Create(ctx context.Context, scope tenant.Scope, c *Creditor) error

	// SetTotalDebt updates a creditor's running balance.
	SetTotalDebt(ctx context.Context, scope tenant.Scope, creditorID id.ID, totalDebt types.Money) error

	// CreateTransaction inserts one debt/payment entry.
	CreateTransaction(ctx context.Context, scope tenant.Scope, t *Transaction) error

	// TransactionsBySale returns all entries linked to a sale, oldest
	// first.
	TransactionsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Transaction, error)

	// TransactionsByCreditor returns a creditor's entries, newest first.
	TransactionsByCreditor(ctx context.Context, scope tenant.Scope, creditorID id.ID) ([]Transaction, error)

	// DeleteTransaction removes one entry.
	DeleteTransaction(ctx context.Context, scope tenant.Scope, transactionID id.ID) error
}
