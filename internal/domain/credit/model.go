// Package credit tracks customer debt: creditors and their debt/payment
// transactions. Sales on credit create debt entries; payments, refunds and
// reversals adjust the creditor's running balance.
package credit

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// TransactionType distinguishes debt entries from payments.
type TransactionType string

const (
	TypeDebt    TransactionType = "debt"
	TypePayment TransactionType = "payment"
)

// Creditor is a customer carrying debt, scoped to a branch. Creditors are
// identified by name within the branch and created on first credit sale.
type Creditor struct {
	ID           id.ID       `db:"id" json:"id"`
	TenantUserID int64       `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64       `db:"branch_id" json:"branchId"`
	Name         string      `db:"name" json:"name"`
	Phone        *string     `db:"phone" json:"phone,omitempty"`
	Email        *string     `db:"email" json:"email,omitempty"`
	TotalDebt    types.Money `db:"total_debt" json:"totalDebt"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// Transaction is one ledger entry against a creditor.
type Transaction struct {
	ID           id.ID           `db:"id" json:"id"`
	TenantUserID int64           `db:"tenant_user_id" json:"tenantUserId"`
	BranchID     int64           `db:"branch_id" json:"branchId"`
	CreditorID   id.ID           `db:"creditor_id" json:"creditorId"`
	SaleID       *id.ID          `db:"sale_id" json:"saleId,omitempty"`
	Amount       types.Money     `db:"amount" json:"amount"`
	Type         TransactionType `db:"transaction_type" json:"transactionType"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}
