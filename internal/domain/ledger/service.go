package ledger

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/pkg/logger"
)

// ProductInfo is the slice of product state the ledger needs: batch numbers
// embed the SKU, and the product's cost price is the fallback when a batch
// never recorded one.
type ProductInfo struct {
	ID        id.ID
	SKU       string
	Name      string
	CostPrice *types.Money
}

// ProductLookup resolves products without importing the product package.
type ProductLookup interface {
	Lookup(ctx context.Context, scope tenant.Scope, productID id.ID) (ProductInfo, error)
}

// SettingsProvider exposes the tenant settings the ledger cares about.
type SettingsProvider interface {
	// UsesExpiryTracking reports whether the tenant records expiry dates
	// on incoming stock. When true, "new stock" movements must carry one.
	UsesExpiryTracking(ctx context.Context, scope tenant.Scope) (bool, error)
}

// StockInvalidator drops cached stock figures after a write. Invalidation
// failures are logged, never surfaced; the cache is a read-through layer.
type StockInvalidator interface {
	InvalidateProduct(ctx context.Context, scope tenant.Scope, productID id.ID) error
}

// Service implements ledger operations: manual movement recording, derived
// stock queries, expiry write-off and FIFO sale deduction.
type Service struct {
	repo       Repository
	products   ProductLookup
	settings   SettingsProvider
	txm        tx.Manager
	invalidate StockInvalidator
}

// NewService creates a ledger service.
func NewService(repo Repository, products ProductLookup, settings SettingsProvider, txm tx.Manager, invalidate StockInvalidator) *Service {
	return &Service{
		repo:       repo,
		products:   products,
		settings:   settings,
		txm:        txm,
		invalidate: invalidate,
	}
}

// RecordMovementInput is a manual stock movement request.
type RecordMovementInput struct {
	ProductID        id.ID
	Change           types.Quantity
	Reason           string
	BatchNumber      *string
	ExpiryDate       *time.Time
	Location         *string
	UnitCostPrice    *types.Money
	UnitSellingPrice *types.Money
}

// RecordMovement validates and appends one manual movement.
//
// The product's stock lock is taken before anything else, then expired
// batches are written off so the availability check for negative movements
// never counts stale stock. Positive movements get a fresh generated batch
// number; the submitted expiry date applies to that new batch only and is
// never inherited from the product.
func (s *Service) RecordMovement(ctx context.Context, scope tenant.Scope, in RecordMovementInput) (*Movement, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if in.Change.IsZero() {
		return nil, apperror.NewValidation("Change must not be zero")
	}

	reason, err := ParseReason(in.Reason)
	if err != nil {
		return nil, err
	}
	if reason.SystemOnly() {
		return nil, apperror.NewValidation(
			fmt.Sprintf("%s movements are system-generated and cannot be recorded manually", reason.Raw))
	}
	if err := reason.ValidateChange(in.Change); err != nil {
		return nil, err
	}

	var created *Movement
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockProductStock(ctx, scope, in.ProductID); err != nil {
			return err
		}

		pid := in.ProductID
		if _, err := s.WriteOffExpired(ctx, scope, &pid); err != nil {
			return err
		}

		product, err := s.products.Lookup(ctx, scope, in.ProductID)
		if err != nil {
			return err
		}

		if reason.Kind == KindNewStock && in.ExpiryDate == nil {
			tracking, err := s.settings.UsesExpiryTracking(ctx, scope)
			if err != nil {
				return err
			}
			if tracking {
				return apperror.NewValidation("Expiry date is required for New Stock")
			}
		}

		if in.Change.IsNegative() {
			available, err := s.repo.TotalStock(ctx, scope, in.ProductID)
			if err != nil {
				return err
			}
			if in.Change.Neg().GreaterThan(available) {
				return apperror.NewInsufficientStock(
					in.ProductID.String(), in.Change.Neg(), types.ClampNonNegative(available))
			}
		}

		batchNumber := in.BatchNumber
		if in.Change.IsPositive() {
			// Stock-in always opens a fresh batch so each batch keeps
			// its own expiry date.
			bn := generateBatchNumber(product.SKU, time.Now())
			batchNumber = &bn
		}

		m := Movement{
			ID:               id.New(),
			TenantUserID:     scope.ActorUserID,
			BranchID:         scope.BranchID,
			ProductID:        in.ProductID,
			Change:           in.Change,
			Reason:           reason.Raw,
			BatchNumber:      batchNumber,
			ExpiryDate:       in.ExpiryDate,
			Location:         in.Location,
			UnitCostPrice:    in.UnitCostPrice,
			UnitSellingPrice: in.UnitSellingPrice,
		}
		if err := s.repo.Append(ctx, scope, &m); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		created = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStock(ctx, scope, in.ProductID)

	logger.Info(ctx, "recorded stock movement",
		"product_id", in.ProductID,
		"change", in.Change,
		"reason", reason.Raw,
	)
	return created, nil
}

// ListMovements returns a product's movement history, newest first.
func (s *Service) ListMovements(ctx context.Context, scope tenant.Scope, productID id.ID, f MovementFilter) ([]Movement, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.Lookup(ctx, scope, productID); err != nil {
		return nil, err
	}
	return s.repo.ListForProduct(ctx, scope, productID, f)
}

// CurrentStock returns the derived stock total for a product, after writing
// off any expired batches. The figure is clamped at zero for display.
func (s *Service) CurrentStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error) {
	if err := scope.Validate(); err != nil {
		return types.Zero(), err
	}

	var total types.Quantity
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		pid := productID
		if _, err := s.WriteOffExpired(ctx, scope, &pid); err != nil {
			return err
		}
		raw, err := s.repo.TotalStock(ctx, scope, productID)
		if err != nil {
			return err
		}
		total = types.ClampNonNegative(raw)
		return nil
	})
	if err != nil {
		return types.Zero(), err
	}
	return total, nil
}

// LockStock serializes stock writers on the product for the rest of the
// caller's transaction.
func (s *Service) LockStock(ctx context.Context, scope tenant.Scope, productID id.ID) error {
	return s.repo.LockProductStock(ctx, scope, productID)
}

// AvailableStock returns the raw movement sum for a product, unclamped.
// Availability checks compare against this figure; use CurrentStock for
// anything user-facing.
func (s *Service) AvailableStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error) {
	return s.repo.TotalStock(ctx, scope, productID)
}

// BatchBalances returns the product's per-batch balances. With
// includeNullExpiry false, batches that never recorded an expiry date are
// left out.
func (s *Service) BatchBalances(ctx context.Context, scope tenant.Scope, productID id.ID, includeNullExpiry bool) ([]BatchBalance, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.BatchBalances(ctx, scope, productID, includeNullExpiry)
}

// DeductInput describes a FIFO sale deduction.
type DeductInput struct {
	ProductID        id.ID
	SaleID           id.ID
	Quantity         types.Quantity
	UnitSellingPrice types.Money

	// FallbackUnitCost is used for slices whose batch never recorded a
	// cost, and for the un-batched remainder. Usually the product's
	// current cost price.
	FallbackUnitCost *types.Money
}

// DeductForSale writes the FIFO deduction movements for a sale and returns
// the allocation plan. Must run inside the sale's transaction, after the
// caller has taken the product stock lock and verified availability.
func (s *Service) DeductForSale(ctx context.Context, scope tenant.Scope, in DeductInput) ([]Allocation, error) {
	balances, err := s.repo.BatchBalances(ctx, scope, in.ProductID, true)
	if err != nil {
		return nil, fmt.Errorf("batch balances: %w", err)
	}

	plan := Allocate(balances, in.Quantity, time.Now())

	var batchNumbers []string
	for _, a := range plan {
		if a.Batch != nil {
			batchNumbers = append(batchNumbers, a.Batch.BatchNumber)
		}
	}
	costs := map[string]types.Money{}
	if len(batchNumbers) > 0 {
		costs, err = s.repo.LatestUnitCosts(ctx, scope, in.ProductID, batchNumbers)
		if err != nil {
			return nil, fmt.Errorf("latest unit costs: %w", err)
		}
	}

	saleID := in.SaleID
	sellingPrice := in.UnitSellingPrice
	movements := make([]Movement, 0, len(plan))
	for _, a := range plan {
		m := Movement{
			ID:               id.New(),
			TenantUserID:     scope.ActorUserID,
			BranchID:         scope.BranchID,
			ProductID:        in.ProductID,
			SaleID:           &saleID,
			Change:           a.Quantity.Neg(),
			Reason:           ReasonSale,
			UnitCostPrice:    in.FallbackUnitCost,
			UnitSellingPrice: &sellingPrice,
		}

		if a.Batch != nil {
			bn := a.Batch.BatchNumber
			m.BatchNumber = &bn
			m.ExpiryDate = a.Batch.ExpiryDate
			m.Location = a.Batch.Location
			if c, ok := costs[bn]; ok {
				m.UnitCostPrice = &c
			}
		}
		if m.Location == nil {
			loc := DefaultLocation
			m.Location = &loc
		}

		movements = append(movements, m)
	}

	if err := s.repo.AppendBatch(ctx, scope, movements); err != nil {
		return nil, fmt.Errorf("append sale movements: %w", err)
	}

	s.invalidateStock(ctx, scope, in.ProductID)
	return plan, nil
}

// MovementsBySale returns the movements linked to a sale, oldest first.
func (s *Service) MovementsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Movement, error) {
	return s.repo.MovementsBySale(ctx, scope, saleID)
}

// DeleteSaleMovements removes the movements linked to a sale, reverting its
// deduction exactly. Returns the deleted records for the audit trail. Must
// run inside the reversal's transaction.
func (s *Service) DeleteSaleMovements(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Movement, error) {
	deleted, err := s.repo.DeleteBySale(ctx, scope, saleID)
	if err != nil {
		return nil, fmt.Errorf("delete sale movements: %w", err)
	}
	for _, m := range deleted {
		s.invalidateStock(ctx, scope, m.ProductID)
	}
	return deleted, nil
}

// RestockReturn puts returned units back on the shelf with one positive
// movement linked to the original sale. Returned stock carries no batch;
// its expiry history was lost when it left the store.
func (s *Service) RestockReturn(ctx context.Context, scope tenant.Scope, productID, saleID id.ID, quantity types.Quantity) error {
	loc := DefaultLocation
	sid := saleID
	m := Movement{
		ID:           id.New(),
		TenantUserID: scope.ActorUserID,
		BranchID:     scope.BranchID,
		ProductID:    productID,
		SaleID:       &sid,
		Change:       quantity,
		Reason:       ReasonCustomerReturn,
		Location:     &loc,
	}
	if err := s.repo.Append(ctx, scope, &m); err != nil {
		return fmt.Errorf("append return movement: %w", err)
	}
	s.invalidateStock(ctx, scope, productID)
	return nil
}

// AppendSaleReversal restores stock for sales whose movements predate sale
// linking: one positive movement with no sale reference.
func (s *Service) AppendSaleReversal(ctx context.Context, scope tenant.Scope, productID id.ID, quantity types.Quantity) error {
	loc := DefaultLocation
	m := Movement{
		ID:           id.New(),
		TenantUserID: scope.ActorUserID,
		BranchID:     scope.BranchID,
		ProductID:    productID,
		Change:       quantity,
		Reason:       ReasonSaleReversal,
		Location:     &loc,
	}
	if err := s.repo.Append(ctx, scope, &m); err != nil {
		return fmt.Errorf("append reversal movement: %w", err)
	}
	s.invalidateStock(ctx, scope, productID)
	return nil
}

func (s *Service) invalidateStock(ctx context.Context, scope tenant.Scope, productID id.ID) {
	if s.invalidate == nil {
		return
	}
	if err := s.invalidate.InvalidateProduct(ctx, scope, productID); err != nil {
		logger.Warn(ctx, "stock cache invalidation failed",
			"product_id", productID, "error", err)
	}
}

// generateBatchNumber builds a batch label from the product SKU and a
// second-resolution timestamp.
func generateBatchNumber(sku string, now time.Time) string {
	return fmt.Sprintf("BATCH-%s-%s", sku, now.Format("20060102150405"))
}
