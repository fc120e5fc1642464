package reports

import (
	"context"
	"sort"
	"time"

	"kardex/internal/core/tenant"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/product"
	"kardex/internal/domain/settings"
)

// StockCache serves cached analytics payloads. Optional; a nil cache means
// every request recomputes.
type StockCache interface {
	GetAnalytics(ctx context.Context, scope tenant.Scope) (*Analytics, bool)
	SetAnalytics(ctx context.Context, scope tenant.Scope, a *Analytics)
}

// Service computes inventory analytics.
type Service struct {
	movements ledger.Repository
	products  product.Repository
	settings  *settings.Service
	stock     *ledger.Service
	txm       tx.Manager
	cache     StockCache
}

// NewService creates a reports service.
func NewService(movements ledger.Repository, products product.Repository, set *settings.Service, stock *ledger.Service, txm tx.Manager, cache StockCache) *Service {
	return &Service{
		movements: movements,
		products:  products,
		settings:  set,
		stock:     stock,
		txm:       txm,
		cache:     cache,
	}
}

// Analytics computes the branch's inventory analytics. Expired batches are
// written off first so totals and values never count stale stock.
func (s *Service) Analytics(ctx context.Context, scope tenant.Scope) (*Analytics, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetAnalytics(ctx, scope); ok {
			return cached, nil
		}
	}

	cfg, err := s.settings.Get(ctx, scope)
	if err != nil {
		return nil, err
	}

	var out *Analytics
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stock.WriteOffExpired(ctx, scope, nil); err != nil {
			return err
		}

		products, err := s.products.List(ctx, scope)
		if err != nil {
			return err
		}

		out = &Analytics{
			MovementSummary: MovementSummary{
				StockIn:     types.Zero(),
				StockOut:    types.Zero(),
				Adjustments: types.Zero(),
				Sales:       types.Zero(),
			},
			TotalStockValue: types.Zero(),
			TotalProducts:   len(products),
		}
		byLocation := map[string]*LocationStock{}
		today := truncateToDay(time.Now())

		for _, p := range products {
			movements, err := s.movements.ListForProduct(ctx, scope, p.ID, ledger.MovementFilter{})
			if err != nil {
				return err
			}

			totalStock := types.Zero()
			locationStock := map[string]types.Quantity{}
			for _, m := range movements {
				totalStock = totalStock.Add(m.Change)
				loc := ledger.DefaultLocation
				if m.Location != nil {
					loc = *m.Location
				}
				locationStock[loc] = locationStock[loc].Add(m.Change)
			}

			if p.CostPrice != nil && totalStock.IsPositive() {
				out.TotalStockValue = out.TotalStockValue.Add(p.CostPrice.Mul(totalStock))
			}

			if totalStock.LessThan(types.NewFromInt(int64(cfg.LowStockThreshold))) {
				out.LowStockAlerts = append(out.LowStockAlerts, LowStockAlert{
					ProductID:    p.ID,
					Name:         p.Name,
					SKU:          p.SKU,
					CurrentStock: totalStock,
					Threshold:    cfg.LowStockThreshold,
					Category:     p.Category,
				})
			}

			if totalStock.IsPositive() {
				out.ExpiringProducts = append(out.ExpiringProducts,
					expiringBatches(p, movements, totalStock, today, cfg.ExpiryWarningDays)...)
			}

			for loc, qty := range locationStock {
				entry, ok := byLocation[loc]
				if !ok {
					entry = &LocationStock{
						Location:   loc,
						TotalUnits: types.Zero(),
						Value:      types.Zero(),
					}
					byLocation[loc] = entry
				}
				entry.Products++
				entry.TotalUnits = entry.TotalUnits.Add(qty)
				if p.CostPrice != nil {
					entry.Value = entry.Value.Add(p.CostPrice.Mul(qty))
				}
			}
		}

		locations := make([]string, 0, len(byLocation))
		for loc := range byLocation {
			locations = append(locations, loc)
		}
		sort.Strings(locations)
		for _, loc := range locations {
			out.StockByLocation = append(out.StockByLocation, *byLocation[loc])
		}

		sort.SliceStable(out.ExpiringProducts, func(i, j int) bool {
			return out.ExpiringProducts[i].DaysToExpiry < out.ExpiringProducts[j].DaysToExpiry
		})

		summary, err := s.movementSummary(ctx, scope)
		if err != nil {
			return err
		}
		out.MovementSummary = summary
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetAnalytics(ctx, scope, out)
	}
	return out, nil
}

// expiringBatches estimates remaining stock per dated batch by allocating
// the product's total to its newest stock-in movements first, and keeps
// the ones inside the warning window.
func expiringBatches(p product.Product, movements []ledger.Movement, totalStock types.Quantity, today time.Time, warningDays int) []ExpiringBatch {
	var positives []ledger.Movement
	for _, m := range movements {
		if m.Change.IsPositive() && m.ExpiryDate != nil {
			positives = append(positives, m)
		}
	}
	sort.SliceStable(positives, func(i, j int) bool {
		return positives[i].CreatedAt.After(positives[j].CreatedAt)
	})

	var out []ExpiringBatch
	remaining := totalStock
	for _, m := range positives {
		if !remaining.IsPositive() {
			break
		}
		batchRemaining := m.Change
		if batchRemaining.GreaterThan(remaining) {
			batchRemaining = remaining
		}
		remaining = remaining.Sub(batchRemaining)

		days := int(m.ExpiryDate.Sub(today).Hours() / 24)
		if days > warningDays || !batchRemaining.IsPositive() {
			continue
		}

		loc := ledger.DefaultLocation
		if m.Location != nil {
			loc = *m.Location
		}
		out = append(out, ExpiringBatch{
			ProductID:    p.ID,
			ProductName:  p.Name,
			SKU:          p.SKU,
			BatchNumber:  m.BatchNumber,
			Quantity:     batchRemaining,
			ExpiryDate:   *m.ExpiryDate,
			DaysToExpiry: days,
			Status:       expiryStatus(days),
			Location:     loc,
		})
	}
	return out
}

func expiryStatus(daysToExpiry int) ExpiryStatus {
	switch {
	case daysToExpiry < 0:
		return StatusExpired
	case daysToExpiry <= 7:
		return StatusExpiringSoon
	case daysToExpiry <= 30:
		return StatusExpiring30
	default:
		return StatusExpiring90
	}
}

// movementSummary buckets the last 30 days of movements with the reason
// classifier.
func (s *Service) movementSummary(ctx context.Context, scope tenant.Scope) (MovementSummary, error) {
	since := time.Now().AddDate(0, 0, -30)
	recent, err := s.movements.ListForBranch(ctx, scope, ledger.MovementFilter{FromDate: &since})
	if err != nil {
		return MovementSummary{}, err
	}

	summary := MovementSummary{
		StockIn:     types.Zero(),
		StockOut:    types.Zero(),
		Adjustments: types.Zero(),
		Sales:       types.Zero(),
	}
	for _, m := range recent {
		reason, err := ledger.ParseReason(m.Reason)
		if err != nil {
			continue
		}
		switch ledger.Classify(reason, m.Change) {
		case ledger.BucketSales:
			summary.Sales = summary.Sales.Add(m.Change.Abs())
		case ledger.BucketAdjustments:
			summary.Adjustments = summary.Adjustments.Add(m.Change.Abs())
		case ledger.BucketStockIn:
			summary.StockIn = summary.StockIn.Add(m.Change.Abs())
		case ledger.BucketStockOut:
			summary.StockOut = summary.StockOut.Add(m.Change.Abs())
		}
	}
	return summary, nil
}

// MovementFilter narrows the branch movement log.
type MovementFilter struct {
	Location *string
	Reason   *string
	Days     int
}

// Movements returns the branch movement log for the last N days, enriched
// with product identity.
func (s *Service) Movements(ctx context.Context, scope tenant.Scope, f MovementFilter) ([]MovementEntry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	days := f.Days
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	movements, err := s.movements.ListForBranch(ctx, scope, ledger.MovementFilter{
		FromDate: &since,
		Reason:   f.Reason,
		Location: f.Location,
	})
	if err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	byID := map[string]product.Product{}
	for _, p := range products {
		byID[p.ID.String()] = p
	}

	out := make([]MovementEntry, 0, len(movements))
	for _, m := range movements {
		name, sku := "Unknown", "N/A"
		if p, ok := byID[m.ProductID.String()]; ok {
			name, sku = p.Name, p.SKU
		}
		loc := ledger.DefaultLocation
		if m.Location != nil {
			loc = *m.Location
		}
		out = append(out, MovementEntry{
			ID:          m.ID,
			ProductID:   m.ProductID,
			ProductName: name,
			ProductSKU:  sku,
			Change:      m.Change,
			Reason:      m.Reason,
			BatchNumber: m.BatchNumber,
			ExpiryDate:  m.ExpiryDate,
			Location:    loc,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
