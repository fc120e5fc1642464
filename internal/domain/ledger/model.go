// Package ledger implements the stock movement ledger: an append-style log
// of signed quantity deltas that is the source of truth for all stock state.
// Balances, batch views and availability are always derived by summation,
// never stored.
package ledger

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Movement is a single recorded change in quantity for one product in one
// branch. Movements are immutable once written; the only exception is sale
// reversal, which deletes the movements linked to the reversed sale.
type Movement struct {
	ID           id.ID  `db:"id" json:"id"`
	TenantUserID int64  `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64  `db:"branch_id" json:"branchId"`
	ProductID    id.ID  `db:"product_id" json:"productId"`
	SaleID       *id.ID `db:"sale_id" json:"saleId,omitempty"`

	Change types.Quantity `db:"change" json:"change"`
	Reason string         `db:"reason" json:"reason"`

	BatchNumber *string    `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`

	// Prices are snapshotted at the moment of the movement, never looked
	// up later from the product.
	UnitCostPrice    *types.Money `db:"unit_cost_price" json:"unitCostPrice,omitempty"`
	UnitSellingPrice *types.Money `db:"unit_selling_price" json:"unitSellingPrice,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BatchBalance is the derived balance of one batch of a product, grouped by
// (batch_number, expiry_date, location) over all its movements. FirstSeen
// is when the batch first entered the ledger.
type BatchBalance struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	BatchNumber string         `db:"batch_number" json:"batchNumber"`
	ExpiryDate  *time.Time     `db:"expiry_date" json:"expiryDate,omitempty"`
	Location    *string        `db:"location" json:"location,omitempty"`
	Balance     types.Quantity `db:"balance" json:"balance"`
	FirstSeen   time.Time      `db:"first_seen" json:"firstSeenDate"`
}

// Expired reports whether the batch's expiry date is strictly before the
// given day. Batches without an expiry date never expire.
func (b BatchBalance) Expired(today time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(truncateToDay(today))
}

// Allocation is one slice of a FIFO deduction: the batch the quantity was
// taken from and how much was taken. A nil Batch means the remainder came
// from un-batched stock.
type Allocation struct {
	Batch    *BatchBalance  `json:"batch,omitempty"`
	Quantity types.Quantity `json:"quantity"`
}

// truncateToDay strips the time-of-day component, keeping the date in UTC.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
