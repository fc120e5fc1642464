package sale

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/pkg/logger"
)

// ReturnInput is one customer return request.
type ReturnInput struct {
	SaleID           id.ID
	QuantityReturned types.Quantity
	RefundAmount     types.Money
	RefundMethod     string
	Reason           *string
	Restock          bool
}

// CreateReturn processes a customer return: validates the cumulative bound
// against the original quantity, records the return, restocks when asked,
// and credits the refund against the sale's debt when the refund method is
// credit-to-account on a credit sale.
func (s *Service) CreateReturn(ctx context.Context, scope tenant.Scope, in ReturnInput) (*Return, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if !in.QuantityReturned.IsPositive() {
		return nil, apperror.NewValidation("Return quantity must be positive")
	}
	if in.RefundAmount.IsNegative() {
		return nil, apperror.NewValidation("Refund amount must not be negative")
	}

	var created *Return
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sle, err := s.repo.GetByID(ctx, scope, in.SaleID)
		if err != nil {
			return err
		}

		alreadyReturned, err := s.repo.TotalReturnedQuantity(ctx, scope, in.SaleID)
		if err != nil {
			return err
		}
		remaining := sle.Quantity.Sub(alreadyReturned)
		if in.QuantityReturned.GreaterThan(remaining) {
			return apperror.NewReturnExceeded(remaining, alreadyReturned)
		}

		r := &Return{
			ID:               id.New(),
			TenantUserID:     scope.ActorUserID,
			BranchID:         scope.BranchID,
			SaleID:           in.SaleID,
			ProductID:        sle.ProductID,
			QuantityReturned: in.QuantityReturned,
			RefundAmount:     in.RefundAmount,
			RefundMethod:     in.RefundMethod,
			Reason:           in.Reason,
			Restock:          in.Restock,
		}
		if err := s.repo.CreateReturn(ctx, scope, r); err != nil {
			return err
		}

		if in.Restock {
			if err := s.stock.RestockReturn(ctx, scope, sle.ProductID, sle.ID, in.QuantityReturned); err != nil {
				return err
			}
		}

		if sle.PaymentMethod == PaymentCredit && in.RefundMethod == RefundToAccount {
			reason := ""
			if in.Reason != nil {
				reason = *in.Reason
			}
			if err := s.credits.RefundToAccount(ctx, scope, sle.ID, in.RefundAmount, reason); err != nil {
				return err
			}
		}

		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "processed return",
		"sale_id", in.SaleID,
		"quantity", in.QuantityReturned,
		"restock", in.Restock,
	)
	return created, nil
}

// ListReturns returns the branch's returns, newest first.
func (s *Service) ListReturns(ctx context.Context, scope tenant.Scope, limit int) ([]Return, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListReturns(ctx, scope, limit)
}

// ReturnsForSale returns all returns recorded against one sale.
func (s *Service) ReturnsForSale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]Return, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, scope, saleID); err != nil {
		return nil, err
	}
	return s.repo.ReturnsBySale(ctx, scope, saleID)
}

// SummarizeReturns aggregates the branch's return count, quantity and
// refund totals.
func (s *Service) SummarizeReturns(ctx context.Context, scope tenant.Scope) (ReturnsSummary, error) {
	if err := scope.Validate(); err != nil {
		return ReturnsSummary{}, err
	}
	return s.repo.SummarizeReturns(ctx, scope)
}
