package ledger

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/pkg/logger"
)

// WriteOffExpired purges batches whose expiry date has passed but which
// still show a positive balance, by appending one compensating movement
// per batch with delta = -balance and reason "Expired". The movement
// carries the batch's last-known unit cost so loss reporting stays
// accurate.
//
// A first unlocked scan only picks the products to visit; the balances
// that drive the compensating movements are re-read after the product's
// stock lock is held, so two transactions can never both see the same
// positive balance. A nil productID covers the whole branch.
//
// Idempotent: a later run sees balance = 0 for every batch an earlier run
// touched and writes nothing. Reuses the caller's transaction when there
// is one.
//
// Returns the number of write-off movements created.
func (s *Service) WriteOffExpired(ctx context.Context, scope tenant.Scope, productID *id.ID) (int, error) {
	today := truncateToDay(time.Now())

	created := 0
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		candidates, err := s.repo.ExpiredBatchBalances(ctx, scope, today, productID)
		if err != nil {
			return fmt.Errorf("expired batch balances: %w", err)
		}

		seen := map[id.ID]bool{}
		for _, g := range candidates {
			if !g.Balance.IsPositive() || seen[g.ProductID] {
				continue
			}
			seen[g.ProductID] = true

			n, err := s.writeOffProduct(ctx, scope, g.ProductID, today)
			if err != nil {
				return err
			}
			created += n
		}
		return nil
	})
	if err != nil {
		return created, err
	}

	if created > 0 {
		logger.Info(ctx, "wrote off expired batches", "count", created)
	}
	return created, nil
}

// writeOffProduct locks one product's stock, re-reads its expired balances
// and appends the compensating movements. A batch a concurrent transaction
// already wrote off shows up here with balance zero and is skipped.
func (s *Service) writeOffProduct(ctx context.Context, scope tenant.Scope, productID id.ID, today time.Time) (int, error) {
	if err := s.repo.LockProductStock(ctx, scope, productID); err != nil {
		return 0, err
	}

	groups, err := s.repo.ExpiredBatchBalances(ctx, scope, today, &productID)
	if err != nil {
		return 0, fmt.Errorf("expired batch balances: %w", err)
	}

	created := 0
	for _, g := range groups {
		if !g.Balance.IsPositive() {
			continue
		}

		var unitCost *types.Money
		costs, err := s.repo.LatestUnitCosts(ctx, scope, g.ProductID, []string{g.BatchNumber})
		if err != nil {
			return created, fmt.Errorf("latest unit cost for %s: %w", g.BatchNumber, err)
		}
		if c, ok := costs[g.BatchNumber]; ok {
			unitCost = &c
		}

		location := g.Location
		if location == nil {
			loc := DefaultLocation
			location = &loc
		}

		batchNumber := g.BatchNumber
		expiry := g.ExpiryDate
		m := Movement{
			ID:            id.New(),
			TenantUserID:  scope.ActorUserID,
			BranchID:      scope.BranchID,
			ProductID:     g.ProductID,
			Change:        g.Balance.Neg(),
			Reason:        ReasonExpired,
			BatchNumber:   &batchNumber,
			ExpiryDate:    expiry,
			Location:      location,
			UnitCostPrice: unitCost,
		}
		if err := s.repo.Append(ctx, scope, &m); err != nil {
			return created, fmt.Errorf("append write-off for %s: %w", g.BatchNumber, err)
		}
		created++

		s.invalidateStock(ctx, scope, g.ProductID)
	}
	return created, nil
}
