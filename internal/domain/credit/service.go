package credit

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/pkg/logger"
)

// Service maintains the creditor ledger. Its mutating operations run inside
// the caller's transaction (the sale orchestrator owns the commit).
type Service struct {
	repo Repository
}

// NewService creates a credit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var phonePattern = regexp.MustCompile(`Phone: ([\d\s\-\+]+)`)

// ExtractPhone pulls a phone number out of free-text sale notes, matching
// the "Phone: ..." convention POS clients use.
func ExtractPhone(notes string) *string {
	m := phonePattern.FindStringSubmatch(notes)
	if m == nil {
		return nil
	}
	phone := strings.TrimSpace(m[1])
	if phone == "" {
		return nil
	}
	return &phone
}

// SaleDebtInput records the credit side of a sale.
type SaleDebtInput struct {
	SaleID       id.ID
	CustomerName string
	DebtAmount   types.Money

	// UpfrontPayment, when positive, adds a payment entry and reduces
	// the debt by that amount. Only full-credit sales with an upfront
	// payment set this; partial sales never do, the debt amount already
	// excludes what was paid.
	UpfrontPayment *types.Money

	ProductName string
	Quantity    types.Quantity
	Notes       *string
}

// RecordSaleDebt finds or creates the creditor by name and writes the debt
// entry for a sale, plus the optional upfront payment entry.
func (s *Service) RecordSaleDebt(ctx context.Context, scope tenant.Scope, in SaleDebtInput) (*Creditor, error) {
	creditor, err := s.findOrCreate(ctx, scope, in.CustomerName, in.Notes)
	if err != nil {
		return nil, err
	}

	saleID := in.SaleID
	debt := &Transaction{
		ID:           id.New(),
		TenantUserID: scope.ActorUserID,
		BranchID:     scope.BranchID,
		CreditorID:   creditor.ID,
		SaleID:       &saleID,
		Amount:       in.DebtAmount,
		Type:         TypeDebt,
		Notes:        in.Notes,
	}
	if err := s.repo.CreateTransaction(ctx, scope, debt); err != nil {
		return nil, fmt.Errorf("create debt transaction: %w", err)
	}
	creditor.TotalDebt = creditor.TotalDebt.Add(in.DebtAmount)

	if in.UpfrontPayment != nil && in.UpfrontPayment.IsPositive() {
		note := fmt.Sprintf("Initial payment for %s x %s", in.ProductName, in.Quantity)
		payment := &Transaction{
			ID:           id.New(),
			TenantUserID: scope.ActorUserID,
			BranchID:     scope.BranchID,
			CreditorID:   creditor.ID,
			SaleID:       &saleID,
			Amount:       *in.UpfrontPayment,
			Type:         TypePayment,
			Notes:        &note,
		}
		if err := s.repo.CreateTransaction(ctx, scope, payment); err != nil {
			return nil, fmt.Errorf("create payment transaction: %w", err)
		}
		creditor.TotalDebt = creditor.TotalDebt.Sub(*in.UpfrontPayment)
	}

	if err := s.repo.SetTotalDebt(ctx, scope, creditor.ID, creditor.TotalDebt); err != nil {
		return nil, fmt.Errorf("update creditor debt: %w", err)
	}

	logger.Info(ctx, "recorded sale debt",
		"creditor_id", creditor.ID,
		"sale_id", in.SaleID,
		"amount", in.DebtAmount,
	)
	return creditor, nil
}

func (s *Service) findOrCreate(ctx context.Context, scope tenant.Scope, name string, notes *string) (*Creditor, error) {
	creditor, err := s.repo.FindByName(ctx, scope, name)
	if err == nil {
		return creditor, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	var phone *string
	if notes != nil {
		phone = ExtractPhone(*notes)
	}
	creditor = &Creditor{
		ID:           id.New(),
		TenantUserID: scope.ActorUserID,
		BranchID:     scope.BranchID,
		Name:         name,
		Phone:        phone,
		TotalDebt:    types.Zero(),
	}
	if err := s.repo.Create(ctx, scope, creditor); err != nil {
		return nil, fmt.Errorf("create creditor: %w", err)
	}
	return creditor, nil
}

// RefundToAccount credits a return refund against the original sale's debt:
// adds a payment entry and floors the creditor balance at zero. A sale with
// no debt entry is a no-op (nothing to refund against).
func (s *Service) RefundToAccount(ctx context.Context, scope tenant.Scope, saleID id.ID, refund types.Money, reason string) error {
	txs, err := s.repo.TransactionsBySale(ctx, scope, saleID)
	if err != nil {
		return err
	}

	var debtTx *Transaction
	for i := range txs {
		if txs[i].Type == TypeDebt {
			debtTx = &txs[i]
			break
		}
	}
	if debtTx == nil {
		return nil
	}

	creditor, err := s.repo.GetByID(ctx, scope, debtTx.CreditorID)
	if err != nil {
		return err
	}

	if reason == "" {
		reason = "Customer return"
	}
	note := fmt.Sprintf("Return refund: %s", reason)
	sid := saleID
	payment := &Transaction{
		ID:           id.New(),
		TenantUserID: scope.ActorUserID,
		BranchID:     scope.BranchID,
		CreditorID:   creditor.ID,
		SaleID:       &sid,
		Amount:       refund,
		Type:         TypePayment,
		Notes:        &note,
	}
	if err := s.repo.CreateTransaction(ctx, scope, payment); err != nil {
		return fmt.Errorf("create refund transaction: %w", err)
	}

	newDebt := types.ClampNonNegative(creditor.TotalDebt.Sub(refund))
	if err := s.repo.SetTotalDebt(ctx, scope, creditor.ID, newDebt); err != nil {
		return fmt.Errorf("update creditor debt: %w", err)
	}

	logger.Info(ctx, "refunded return to account",
		"creditor_id", creditor.ID, "sale_id", saleID, "amount", refund)
	return nil
}

// UnwindSale reverses every credit entry linked to a sale: debt entries
// subtract from the creditor's balance, payments add back, and the entries
// themselves are deleted. Used by sale reversal.
func (s *Service) UnwindSale(ctx context.Context, scope tenant.Scope, saleID id.ID) error {
	txs, err := s.repo.TransactionsBySale(ctx, scope, saleID)
	if err != nil {
		return err
	}

	for _, t := range txs {
		creditor, err := s.repo.GetByID(ctx, scope, t.CreditorID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if creditor != nil {
			switch t.Type {
			case TypeDebt:
				creditor.TotalDebt = creditor.TotalDebt.Sub(t.Amount)
			case TypePayment:
				creditor.TotalDebt = creditor.TotalDebt.Add(t.Amount)
			}
			if err := s.repo.SetTotalDebt(ctx, scope, creditor.ID, creditor.TotalDebt); err != nil {
				return fmt.Errorf("update creditor debt: %w", err)
			}
		}
		if err := s.repo.DeleteTransaction(ctx, scope, t.ID); err != nil {
			return fmt.Errorf("delete credit transaction: %w", err)
		}
	}

	if len(txs) > 0 {
		logger.Info(ctx, "unwound sale credit", "sale_id", saleID, "entries", len(txs))
	}
	return nil
}

// ListCreditors returns all creditors in the branch.
func (s *Service) ListCreditors(ctx context.Context, scope tenant.Scope) ([]Creditor, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope)
}

// GetCreditor returns one creditor.
func (s *Service) GetCreditor(ctx context.Context, scope tenant.Scope, creditorID id.ID) (*Creditor, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, creditorID)
}

// ListTransactions returns a creditor's ledger entries.
func (s *Service) ListTransactions(ctx context.Context, scope tenant.Scope, creditorID id.ID) ([]Transaction, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, scope, creditorID); err != nil {
		return nil, err
	}
	return s.repo.TransactionsByCreditor(ctx, scope, creditorID)
}
