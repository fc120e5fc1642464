// Package product provides the product catalog. Products carry reference
// prices and unit metadata; their stock level is never stored here, it is
// always derived from the movement ledger.
package product

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Product is one catalog entry, scoped to a branch.
type Product struct {
	ID           id.ID  `db:"id" json:"id"`
	TenantUserID int64  `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64  `db:"branch_id" json:"branchId"`
	SKU          string `db:"sku" json:"sku"`
	Name         string `db:"name" json:"name"`

	Description *string `db:"description" json:"description,omitempty"`
	Unit        string  `db:"unit" json:"unit"`
	PackSize    *int    `db:"pack_size" json:"packSize,omitempty"`
	Category    *string `db:"category" json:"category,omitempty"`

	// ExpiryDate is a legacy product-level default; batches carry their
	// own expiry dates on the movements.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	CostPrice        *types.Money `db:"cost_price" json:"costPrice,omitempty"`
	PackCostPrice    *types.Money `db:"pack_cost_price" json:"packCostPrice,omitempty"`
	SellingPrice     *types.Money `db:"selling_price" json:"sellingPrice,omitempty"`
	PackSellingPrice *types.Money `db:"pack_selling_price" json:"packSellingPrice,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// CurrentStock is the derived ledger total, populated on reads.
	CurrentStock types.Quantity `db:"-" json:"currentStock"`
}
