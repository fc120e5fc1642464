package dto

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
)

// RecordMovementRequest is the payload for a manual stock adjustment.
type RecordMovementRequest struct {
	Change           types.Quantity `json:"change" binding:"required"`
	Reason           string         `json:"reason" binding:"required"`
	BatchNumber      *string        `json:"batchNumber"`
	ExpiryDate       *time.Time     `json:"expiryDate"`
	Location         *string        `json:"location"`
	UnitCostPrice    *types.Money   `json:"unitCostPrice"`
	UnitSellingPrice *types.Money   `json:"unitSellingPrice"`
}

// ToInput converts the request to a service input.
func (r RecordMovementRequest) ToInput(productID id.ID) ledger.RecordMovementInput {
	return ledger.RecordMovementInput{
		ProductID:        productID,
		Change:           r.Change,
		Reason:           r.Reason,
		BatchNumber:      r.BatchNumber,
		ExpiryDate:       r.ExpiryDate,
		Location:         r.Location,
		UnitCostPrice:    r.UnitCostPrice,
		UnitSellingPrice: r.UnitSellingPrice,
	}
}

// MovementQuery narrows movement listings.
type MovementQuery struct {
	FromDate *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"toDate" time_format:"2006-01-02"`
	Reason   *string    `form:"reason"`
	Location *string    `form:"location"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// ToFilter converts the query to a repository filter.
func (q MovementQuery) ToFilter() ledger.MovementFilter {
	return ledger.MovementFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Reason:   q.Reason,
		Location: q.Location,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
}

// StockResponse reports a product's current stock level.
type StockResponse struct {
	ProductID    string         `json:"productId"`
	CurrentStock types.Quantity `json:"currentStock"`
}
