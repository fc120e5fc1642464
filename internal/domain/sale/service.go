package sale

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/tenant"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain/credit"
	"kardex/internal/domain/ledger"
	"kardex/pkg/logger"
)

// StockLedger is the slice of the ledger service the orchestrator uses.
type StockLedger interface {
	WriteOffExpired(ctx context.Context, scope tenant.Scope, productID *id.ID) (int, error)
	LockStock(ctx context.Context, scope tenant.Scope, productID id.ID) error
	AvailableStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error)
	DeductForSale(ctx context.Context, scope tenant.Scope, in ledger.DeductInput) ([]ledger.Allocation, error)
	MovementsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]ledger.Movement, error)
	DeleteSaleMovements(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]ledger.Movement, error)
	RestockReturn(ctx context.Context, scope tenant.Scope, productID, saleID id.ID, quantity types.Quantity) error
	AppendSaleReversal(ctx context.Context, scope tenant.Scope, productID id.ID, quantity types.Quantity) error
}

// CreditLedger is the slice of the credit service the orchestrator uses.
type CreditLedger interface {
	RecordSaleDebt(ctx context.Context, scope tenant.Scope, in credit.SaleDebtInput) (*credit.Creditor, error)
	RefundToAccount(ctx context.Context, scope tenant.Scope, saleID id.ID, refund types.Money, reason string) error
	UnwindSale(ctx context.Context, scope tenant.Scope, saleID id.ID) error
}

// ReversalAuditor records reversed sales and their deleted movements so the
// trail survives physical deletion. A nil auditor disables the trail.
type ReversalAuditor interface {
	RecordReversal(ctx context.Context, scope tenant.Scope, reversed *Sale, deleted []ledger.Movement) error
}

// Service orchestrates sales end to end. Every committed sale is a single
// transaction covering the sale row, its deduction movements and any credit
// entries; a failure at any step leaves no partial state.
type Service struct {
	repo     Repository
	stock    StockLedger
	credits  CreditLedger
	products ledger.ProductLookup
	txm      tx.Manager
	audit    ReversalAuditor
	receipts numerator.Generator
}

// NewService creates a sale service. A nil receipts generator disables
// receipt numbering.
func NewService(repo Repository, stock StockLedger, credits CreditLedger, products ledger.ProductLookup, txm tx.Manager, audit ReversalAuditor, receipts numerator.Generator) *Service {
	return &Service{
		repo:     repo,
		stock:    stock,
		credits:  credits,
		products: products,
		txm:      txm,
		audit:    audit,
		receipts: receipts,
	}
}

// CreateInput is one sale request.
type CreateInput struct {
	ProductID    id.ID
	Quantity     types.Quantity
	SaleUnitType string
	PackQuantity *types.Quantity
	UnitPrice    types.Money
	TotalPrice   types.Money

	CustomerName         *string
	PaymentMethod        string
	AmountPaid           *types.Money
	PartialPaymentMethod *string
	Notes                *string
	ClientSaleID         *string
}

// Create commits one sale: takes the per-product stock lock, writes off
// expired stock, checks availability, deducts FIFO by expiry, and records
// credit debt when the payment method calls for it. The lock is held before
// any balance is read so concurrent submitters cannot act on the same
// snapshot of the ledger.
//
// When the input carries a client sale id already seen in this branch, the
// previously committed sale is returned as-is and nothing is written.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (*Sale, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	creditAmount, err := creditPortion(in)
	if err != nil {
		return nil, err
	}

	var result *Sale
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stock.LockStock(ctx, scope, in.ProductID); err != nil {
			return err
		}

		pid := in.ProductID
		if _, err := s.stock.WriteOffExpired(ctx, scope, &pid); err != nil {
			return err
		}

		if in.ClientSaleID != nil && *in.ClientSaleID != "" {
			existing, err := s.repo.FindByClientSaleID(ctx, scope, *in.ClientSaleID)
			if err == nil {
				if err := s.attachDeductedBatches(ctx, scope, existing); err != nil {
					return err
				}
				result = existing
				return nil
			}
			if !apperror.IsNotFound(err) {
				return err
			}
		}

		product, err := s.products.Lookup(ctx, scope, in.ProductID)
		if err != nil {
			return err
		}

		available, err := s.stock.AvailableStock(ctx, scope, in.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity.GreaterThan(available) {
			return apperror.NewInsufficientStock(
				in.ProductID.String(), in.Quantity, types.ClampNonNegative(available))
		}

		unitType := in.SaleUnitType
		if unitType == "" {
			unitType = "piece"
		}
		sle := &Sale{
			ID:                   id.New(),
			TenantUserID:         scope.ActorUserID,
			BranchID:             scope.BranchID,
			ProductID:            in.ProductID,
			Quantity:             in.Quantity,
			SaleUnitType:         unitType,
			PackQuantity:         in.PackQuantity,
			UnitPrice:            in.UnitPrice,
			TotalPrice:           in.TotalPrice,
			CustomerName:         in.CustomerName,
			PaymentMethod:        in.PaymentMethod,
			AmountPaid:           in.AmountPaid,
			PartialPaymentMethod: in.PartialPaymentMethod,
			Notes:                in.Notes,
			ClientSaleID:         in.ClientSaleID,
		}
		if s.receipts != nil {
			number, err := s.receipts.NextNumber(ctx, scope, numerator.ReceiptConfig(), nil, time.Now())
			if err != nil {
				return fmt.Errorf("assign receipt number: %w", err)
			}
			sle.ReceiptNumber = &number
		}
		if err := s.repo.Create(ctx, scope, sle); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		plan, err := s.stock.DeductForSale(ctx, scope, ledger.DeductInput{
			ProductID:        in.ProductID,
			SaleID:           sle.ID,
			Quantity:         in.Quantity,
			UnitSellingPrice: in.UnitPrice,
			FallbackUnitCost: product.CostPrice,
		})
		if err != nil {
			return err
		}
		sle.DeductedBatches = plan

		if creditAmount.IsPositive() && in.CustomerName != nil && *in.CustomerName != "" {
			var upfront *types.Money
			if in.PaymentMethod == PaymentCredit && in.AmountPaid != nil && in.AmountPaid.IsPositive() {
				upfront = in.AmountPaid
			}
			_, err := s.credits.RecordSaleDebt(ctx, scope, credit.SaleDebtInput{
				SaleID:         sle.ID,
				CustomerName:   *in.CustomerName,
				DebtAmount:     creditAmount,
				UpfrontPayment: upfront,
				ProductName:    product.Name,
				Quantity:       in.Quantity,
				Notes:          in.Notes,
			})
			if err != nil {
				return err
			}
		}

		result = sle
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "committed sale",
		"sale_id", result.ID,
		"product_id", result.ProductID,
		"quantity", result.Quantity,
		"payment_method", result.PaymentMethod,
	)
	return result, nil
}

func validateCreate(in CreateInput) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewValidation("Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return apperror.NewValidation("Unit price must not be negative")
	}
	if in.TotalPrice.IsNegative() {
		return apperror.NewValidation("Total price must not be negative")
	}
	if in.PaymentMethod == "" {
		return apperror.NewValidation("Payment method is required")
	}
	return nil
}

// creditPortion computes how much of the sale becomes creditor debt.
//
// Full credit: the whole total (an upfront payment is handled separately as
// a payment entry). Partial: total minus the upfront amount, which must be
// a real partial payment; paying the full total under "partial" is a client
// error the server refuses rather than guessing intent.
func creditPortion(in CreateInput) (types.Money, error) {
	switch in.PaymentMethod {
	case PaymentCredit:
		return in.TotalPrice, nil
	case PaymentPartial:
		if in.AmountPaid == nil || !in.AmountPaid.IsPositive() {
			return types.Zero(), nil
		}
		outstanding := in.TotalPrice.Sub(*in.AmountPaid)
		if !outstanding.IsPositive() {
			return types.Zero(), apperror.NewConflict(
				"Amount paid should be less than total price for partial payments")
		}
		return outstanding, nil
	default:
		return types.Zero(), nil
	}
}

// attachDeductedBatches rebuilds the allocation report from the movements
// linked to an already committed sale (idempotent replay path).
func (s *Service) attachDeductedBatches(ctx context.Context, scope tenant.Scope, sle *Sale) error {
	movements, err := s.stock.MovementsBySale(ctx, scope, sle.ID)
	if err != nil {
		return err
	}
	for _, m := range movements {
		if m.Reason != ledger.ReasonSale {
			continue
		}
		a := ledger.Allocation{Quantity: m.Change.Neg()}
		if m.BatchNumber != nil {
			a.Batch = &ledger.BatchBalance{
				ProductID:   m.ProductID,
				BatchNumber: *m.BatchNumber,
				ExpiryDate:  m.ExpiryDate,
				Location:    m.Location,
			}
		}
		sle.DeductedBatches = append(sle.DeductedBatches, a)
	}
	return nil
}

// CreateBulk commits several sales sequentially (POS checkout batches).
// Each item is its own transaction; the first failure stops the run and
// reports the failing index, leaving earlier items committed.
func (s *Service) CreateBulk(ctx context.Context, scope tenant.Scope, items []CreateInput) ([]Sale, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("No sales provided")
	}

	created := make([]Sale, 0, len(items))
	for i, in := range items {
		sle, err := s.Create(ctx, scope, in)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return created, appErr.WithDetail("item_index", i)
			}
			return created, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, *sle)
	}
	return created, nil
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, saleID id.ID) (*Sale, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	sle, err := s.repo.GetByID(ctx, scope, saleID)
	if err != nil {
		return nil, err
	}
	if err := s.attachDeductedBatches(ctx, scope, sle); err != nil {
		return nil, err
	}
	return sle, nil
}

// List returns the branch's sales, newest first.
func (s *Service) List(ctx context.Context, scope tenant.Scope) ([]Sale, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope)
}

// Reverse deletes a sale, restores its stock and unwinds its credit
// entries, all in one transaction.
//
// The sale's linked movements are physically deleted, which reverts the
// original deduction batch-for-batch. Sales whose movements predate sale
// linking get a single compensating movement instead. The deleted rows are
// handed to the auditor before the transaction commits.
func (s *Service) Reverse(ctx context.Context, scope tenant.Scope, saleID id.ID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sle, err := s.repo.GetByID(ctx, scope, saleID)
		if err != nil {
			return err
		}

		deleted, err := s.stock.DeleteSaleMovements(ctx, scope, saleID)
		if err != nil {
			return err
		}
		if len(deleted) == 0 {
			if err := s.stock.AppendSaleReversal(ctx, scope, sle.ProductID, sle.Quantity); err != nil {
				return err
			}
		}

		if sle.PaymentMethod == PaymentCredit || sle.PaymentMethod == PaymentPartial {
			if err := s.credits.UnwindSale(ctx, scope, saleID); err != nil {
				return err
			}
		}

		if s.audit != nil {
			if err := s.audit.RecordReversal(ctx, scope, sle, deleted); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, scope, saleID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "reversed sale", "sale_id", saleID)
	return nil
}
