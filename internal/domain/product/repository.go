package product

import (
	"context"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
)

// Repository defines persistence for the product catalog.
type Repository interface {
	// GetByID returns the product, or NotFound when it does not exist
	// within the scope.
	GetByID(ctx context.Context, scope tenant.Scope, productID id.ID) (*Product, error)

	// List returns all products in the scope's branch, newest first.
	List(ctx context.Context, scope tenant.Scope) ([]Product, error)

	// ExistsByName reports whether a product with the given normalized
	// name exists in the branch (trimmed, case-insensitive match).
	ExistsByName(ctx context.Context, scope tenant.Scope, name string) (bool, error)

	// ExistsBySKU reports whether a product with the SKU exists in the
	// branch, excluding the given product id (nil checks all).
	ExistsBySKU(ctx context.Context, scope tenant.Scope, sku string, excludeID *id.ID) (bool, error)

	// Create inserts a product.
	Create(ctx context.Context, scope tenant.Scope, p *Product) error

	// Update persists changed fields of an existing product.
	Update(ctx context.Context, scope tenant.Scope, p *Product) error

	// Delete removes a product and, via cascade, its movements.
	Delete(ctx context.Context, scope tenant.Scope, productID id.ID) error
}
