// Package sale orchestrates the point-of-sale flow: availability checks,
// FIFO stock deduction, credit integration, returns and reversal. A sale is
// one product/quantity/price line; the receipt-level grouping lives in the
// POS client, which submits lines in bulk.
package sale

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
)

// Payment methods with credit semantics. Other labels (cash, card,
// transfer) pass through without creditor involvement.
const (
	PaymentCredit  = "credit"
	PaymentPartial = "partial"
)

// Sale is one committed sale line.
type Sale struct {
	ID           id.ID `db:"id" json:"id"`
	TenantUserID int64 `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64 `db:"branch_id" json:"branchId"`
	ProductID    id.ID `db:"product_id" json:"productId"`

	Quantity     types.Quantity  `db:"quantity" json:"quantity"`
	SaleUnitType string          `db:"sale_unit_type" json:"saleUnitType"`
	PackQuantity *types.Quantity `db:"pack_quantity" json:"packQuantity,omitempty"`

	UnitPrice  types.Money `db:"unit_price" json:"unitPrice"`
	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	// ReceiptNumber is assigned from the per-account receipt sequence
	// when numbering is enabled.
	ReceiptNumber *string `db:"receipt_number" json:"receiptNumber,omitempty"`

	CustomerName         *string      `db:"customer_name" json:"customerName,omitempty"`
	PaymentMethod        string       `db:"payment_method" json:"paymentMethod"`
	AmountPaid           *types.Money `db:"amount_paid" json:"amountPaid,omitempty"`
	PartialPaymentMethod *string      `db:"partial_payment_method" json:"partialPaymentMethod,omitempty"`
	Notes                *string      `db:"notes" json:"notes,omitempty"`

	// ClientSaleID is the client-generated idempotency key for
	// offline/poor-network retries.
	ClientSaleID *string `db:"client_sale_id" json:"clientSaleId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// DeductedBatches reports which batches the quantity came from.
	// Derived, attached on create and on idempotent replay.
	DeductedBatches []ledger.Allocation `db:"-" json:"deductedBatches,omitempty"`
}

// Return is one customer return against a sale. A sale may accumulate
// several returns up to its original quantity.
type Return struct {
	ID           id.ID `db:"id" json:"id"`
	TenantUserID int64 `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64 `db:"branch_id" json:"branchId"`
	SaleID       id.ID `db:"sale_id" json:"saleId"`
	ProductID    id.ID `db:"product_id" json:"productId"`

	QuantityReturned types.Quantity `db:"quantity_returned" json:"quantityReturned"`
	RefundAmount     types.Money    `db:"refund_amount" json:"refundAmount"`
	RefundMethod     string         `db:"refund_method" json:"refundMethod"`
	Reason           *string        `db:"reason" json:"reason,omitempty"`
	Restock          bool           `db:"restock" json:"restock"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RefundToAccount routes the refund to the creditor ledger instead of cash.
const RefundToAccount = "credit_to_account"

// ReturnsSummary aggregates a branch's returns.
type ReturnsSummary struct {
	TotalReturns      int64          `db:"total_returns" json:"totalReturns"`
	TotalQuantity     types.Quantity `db:"total_quantity" json:"totalQuantityReturned"`
	TotalRefundAmount types.Money    `db:"total_refund" json:"totalRefundAmount"`
}
