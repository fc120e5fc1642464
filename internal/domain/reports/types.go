// Package reports builds inventory analytics from the movement ledger:
// stock by location, low stock alerts, expiring batches, movement summary
// and stock value. Pure aggregation; nothing here mutates the ledger beyond
// the expiry write-off that keeps the figures honest.
package reports

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// LocationStock aggregates a location's holdings across products.
type LocationStock struct {
	Location   string         `json:"location"`
	Products   int            `json:"products"`
	TotalUnits types.Quantity `json:"totalUnits"`
	Value      types.Money    `json:"value"`
}

// LowStockAlert flags a product under the tenant's threshold.
type LowStockAlert struct {
	ProductID    id.ID          `json:"productId"`
	Name         string         `json:"name"`
	SKU          string         `json:"sku"`
	CurrentStock types.Quantity `json:"currentStock"`
	Threshold    int            `json:"threshold"`
	Category     *string        `json:"category,omitempty"`
}

// ExpiryStatus buckets how close a batch is to expiring.
type ExpiryStatus string

const (
	StatusExpired      ExpiryStatus = "expired"
	StatusExpiringSoon ExpiryStatus = "expiring_soon" // within 7 days
	StatusExpiring30   ExpiryStatus = "expiring_30"
	StatusExpiring90   ExpiryStatus = "expiring_90"
)

// ExpiringBatch is an estimate of remaining stock in a dated batch inside
// the warning window. Remaining quantity is estimated by allocating the
// product's total stock to its newest stock-in batches first.
type ExpiringBatch struct {
	ProductID    id.ID          `json:"productId"`
	ProductName  string         `json:"productName"`
	SKU          string         `json:"sku"`
	BatchNumber  *string        `json:"batchNumber,omitempty"`
	Quantity     types.Quantity `json:"quantity"`
	ExpiryDate   time.Time      `json:"expiryDate"`
	DaysToExpiry int            `json:"daysToExpiry"`
	Status       ExpiryStatus   `json:"status"`
	Location     string         `json:"location"`
}

// MovementSummary totals the last 30 days of movements by report bucket.
type MovementSummary struct {
	StockIn     types.Quantity `json:"stockIn"`
	StockOut    types.Quantity `json:"stockOut"`
	Adjustments types.Quantity `json:"adjustments"`
	Sales       types.Quantity `json:"sales"`
}

// Analytics is the full inventory analytics payload.
type Analytics struct {
	StockByLocation  []LocationStock `json:"stockByLocation"`
	LowStockAlerts   []LowStockAlert `json:"lowStockAlerts"`
	ExpiringProducts []ExpiringBatch `json:"expiringProducts"`
	MovementSummary  MovementSummary `json:"movementSummary"`
	TotalStockValue  types.Money     `json:"totalStockValue"`
	TotalProducts    int             `json:"totalProducts"`
}

// MovementEntry is one row of the branch movement log, enriched with
// product identity for display.
type MovementEntry struct {
	ID          id.ID          `json:"id"`
	ProductID   id.ID          `json:"productId"`
	ProductName string         `json:"productName"`
	ProductSKU  string         `json:"productSku"`
	Change      types.Quantity `json:"change"`
	Reason      string         `json:"reason"`
	BatchNumber *string        `json:"batchNumber,omitempty"`
	ExpiryDate  *time.Time     `json:"expiryDate,omitempty"`
	Location    string         `json:"location"`
	CreatedAt   time.Time      `json:"createdAt"`
}
