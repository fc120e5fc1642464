package reports

import (
	"context"
	"testing"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/product"
	"kardex/internal/domain/settings"
)

// Mock objects

type memLedger struct {
	movements []ledger.Movement
}

func (r *memLedger) Append(_ context.Context, _ tenant.Scope, m *ledger.Movement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memLedger) AppendBatch(ctx context.Context, scope tenant.Scope, ms []ledger.Movement) error {
	for i := range ms {
		if err := r.Append(ctx, scope, &ms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memLedger) ListForProduct(_ context.Context, scope tenant.Scope, productID id.ID, _ ledger.MovementFilter) ([]ledger.Movement, error) {
	var out []ledger.Movement
	for _, m := range r.movements {
		if m.ProductID == productID && m.BranchID == scope.BranchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memLedger) ListForBranch(_ context.Context, scope tenant.Scope, f ledger.MovementFilter) ([]ledger.Movement, error) {
	var out []ledger.Movement
	for _, m := range r.movements {
		if m.BranchID != scope.BranchID {
			continue
		}
		if f.FromDate != nil && m.CreatedAt.Before(*f.FromDate) {
			continue
		}
		if f.Reason != nil && m.Reason != *f.Reason {
			continue
		}
		if f.Location != nil && (m.Location == nil || *m.Location != *f.Location) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memLedger) TotalStock(_ context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error) {
	total := types.Zero()
	for _, m := range r.movements {
		if m.ProductID == productID && m.BranchID == scope.BranchID {
			total = total.Add(m.Change)
		}
	}
	return total, nil
}

func (r *memLedger) BatchBalances(_ context.Context, _ tenant.Scope, _ id.ID, _ bool) ([]ledger.BatchBalance, error) {
	return nil, nil
}

func (r *memLedger) ExpiredBatchBalances(_ context.Context, scope tenant.Scope, before time.Time, productID *id.ID) ([]ledger.BatchBalance, error) {
	type key struct {
		product  id.ID
		batch    string
		location string
	}
	sums := map[key]*ledger.BatchBalance{}
	var order []key
	for _, m := range r.movements {
		if m.BranchID != scope.BranchID || m.BatchNumber == nil || m.ExpiryDate == nil {
			continue
		}
		if productID != nil && m.ProductID != *productID {
			continue
		}
		if !m.ExpiryDate.Before(before) {
			continue
		}
		k := key{product: m.ProductID, batch: *m.BatchNumber, location: locationOf(m)}
		g, ok := sums[k]
		if !ok {
			loc := locationOf(m)
			g = &ledger.BatchBalance{
				ProductID:   m.ProductID,
				BatchNumber: *m.BatchNumber,
				ExpiryDate:  m.ExpiryDate,
				Location:    &loc,
				Balance:     types.Zero(),
			}
			sums[k] = g
			order = append(order, k)
		}
		g.Balance = g.Balance.Add(m.Change)
	}
	var out []ledger.BatchBalance
	for _, k := range order {
		if sums[k].Balance.IsPositive() {
			out = append(out, *sums[k])
		}
	}
	return out, nil
}

func locationOf(m ledger.Movement) string {
	if m.Location != nil {
		return *m.Location
	}
	return ledger.DefaultLocation
}

func (r *memLedger) LatestUnitCosts(_ context.Context, scope tenant.Scope, productID id.ID, batchNumbers []string) (map[string]types.Money, error) {
	out := map[string]types.Money{}
	for _, b := range batchNumbers {
		for _, m := range r.movements {
			if m.ProductID == productID && m.BranchID == scope.BranchID &&
				m.BatchNumber != nil && *m.BatchNumber == b &&
				m.Change.IsPositive() && m.UnitCostPrice != nil {
				out[b] = *m.UnitCostPrice
			}
		}
	}
	return out, nil
}

func (r *memLedger) MovementsBySale(_ context.Context, _ tenant.Scope, _ id.ID) ([]ledger.Movement, error) {
	return nil, nil
}

func (r *memLedger) DeleteBySale(_ context.Context, _ tenant.Scope, _ id.ID) ([]ledger.Movement, error) {
	return nil, nil
}

func (r *memLedger) LockProductStock(_ context.Context, _ tenant.Scope, _ id.ID) error {
	return nil
}

type memProducts struct {
	products []product.Product
}

func (r *memProducts) GetByID(_ context.Context, _ tenant.Scope, productID id.ID) (*product.Product, error) {
	for _, p := range r.products {
		if p.ID == productID {
			found := p
			return &found, nil
		}
	}
	return nil, apperror.NewNotFound("product", productID)
}

func (r *memProducts) List(_ context.Context, _ tenant.Scope) ([]product.Product, error) {
	return r.products, nil
}

func (r *memProducts) ExistsByName(_ context.Context, _ tenant.Scope, _ string) (bool, error) {
	return false, nil
}

func (r *memProducts) ExistsBySKU(_ context.Context, _ tenant.Scope, _ string, _ *id.ID) (bool, error) {
	return false, nil
}

func (r *memProducts) Create(_ context.Context, _ tenant.Scope, _ *product.Product) error { return nil }
func (r *memProducts) Update(_ context.Context, _ tenant.Scope, _ *product.Product) error { return nil }
func (r *memProducts) Delete(_ context.Context, _ tenant.Scope, _ id.ID) error            { return nil }

type memSettings struct {
	stored *settings.Settings
}

func (r *memSettings) GetByOwner(_ context.Context, ownerUserID int64) (settings.Settings, error) {
	if r.stored == nil {
		return settings.Settings{}, apperror.NewNotFound("settings", ownerUserID)
	}
	return *r.stored, nil
}

func (r *memSettings) Upsert(_ context.Context, s settings.Settings) error {
	r.stored = &s
	return nil
}

type lookupFromRepo struct {
	products []product.Product
}

func (l *lookupFromRepo) Lookup(_ context.Context, _ tenant.Scope, productID id.ID) (ledger.ProductInfo, error) {
	for _, p := range l.products {
		if p.ID == productID {
			return ledger.ProductInfo{ID: p.ID, SKU: p.SKU, Name: p.Name, CostPrice: p.CostPrice}, nil
		}
	}
	return ledger.ProductInfo{}, apperror.NewNotFound("product", productID)
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Helpers

func testScope() tenant.Scope {
	return tenant.Scope{UserIDs: []int64{1}, ActorUserID: 1, OwnerUserID: 1, BranchID: 5}
}

func qty(s string) types.Quantity { return types.MustFromString(s) }

func moneyPtr(s string) *types.Money {
	m := types.MustFromString(s)
	return &m
}

func strPtr(s string) *string { return &s }

func datePtr(days int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, days).Truncate(24 * time.Hour)
	return &t
}

type fixture struct {
	repo     *memLedger
	products *memProducts
	svc      *Service
	scope    tenant.Scope
}

func newFixture(products []product.Product) *fixture {
	repo := &memLedger{}
	prodRepo := &memProducts{products: products}
	set := settings.NewService(&memSettings{})
	stock := ledger.NewService(repo, &lookupFromRepo{products: products}, set, passTx{}, nil)
	svc := NewService(repo, prodRepo, set, stock, passTx{}, nil)
	return &fixture{repo: repo, products: prodRepo, svc: svc, scope: testScope()}
}

func (f *fixture) addMovement(p product.Product, change string, reason string, ageDays int, opts func(*ledger.Movement)) {
	m := ledger.Movement{
		ID:           id.New(),
		TenantUserID: f.scope.ActorUserID,
		BranchID:     f.scope.BranchID,
		ProductID:    p.ID,
		Change:       qty(change),
		Reason:       reason,
		CreatedAt:    time.Now().Add(-time.Duration(ageDays) * 24 * time.Hour),
	}
	if opts != nil {
		opts(&m)
	}
	f.repo.movements = append(f.repo.movements, m)
}

func testProduct(name, sku, cost string) product.Product {
	return product.Product{ID: id.New(), Name: name, SKU: sku, CostPrice: moneyPtr(cost)}
}

// Tests

func TestAnalyticsStockValueAndLocations(t *testing.T) {
	p1 := testProduct("Paracetamol", "PARA", "2.50")
	p2 := testProduct("Bandages", "BAND", "1.00")
	f := newFixture([]product.Product{p1, p2})

	f.addMovement(p1, "10", "New Stock", 5, func(m *ledger.Movement) {
		m.Location = strPtr("Main Store")
	})
	f.addMovement(p1, "4", "New Stock", 3, func(m *ledger.Movement) {
		m.Location = strPtr("Shelf A")
	})
	f.addMovement(p2, "20", "New Stock", 2, nil)

	a, err := f.svc.Analytics(context.Background(), f.scope)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	// 14 * 2.50 + 20 * 1.00
	if !a.TotalStockValue.Equal(qty("55")) {
		t.Errorf("total stock value = %s, want 55", a.TotalStockValue)
	}
	if a.TotalProducts != 2 {
		t.Errorf("total products = %d, want 2", a.TotalProducts)
	}
	if len(a.StockByLocation) != 2 {
		t.Fatalf("locations = %d, want 2", len(a.StockByLocation))
	}
	// Sorted by location name.
	if a.StockByLocation[0].Location != "Main Store" || a.StockByLocation[1].Location != "Shelf A" {
		t.Errorf("locations = %q, %q", a.StockByLocation[0].Location, a.StockByLocation[1].Location)
	}
	// Movement with nil location lands in Main Store.
	if !a.StockByLocation[0].TotalUnits.Equal(qty("30")) {
		t.Errorf("Main Store units = %s, want 30", a.StockByLocation[0].TotalUnits)
	}
}

func TestAnalyticsLowStockAlert(t *testing.T) {
	low := testProduct("Syringes", "SYR", "0.30")
	ok := testProduct("Gloves", "GLV", "0.10")
	f := newFixture([]product.Product{low, ok})

	f.addMovement(low, "3", "New Stock", 1, nil)
	f.addMovement(ok, "50", "New Stock", 1, nil)

	a, err := f.svc.Analytics(context.Background(), f.scope)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if len(a.LowStockAlerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(a.LowStockAlerts))
	}
	alert := a.LowStockAlerts[0]
	if alert.SKU != "SYR" || !alert.CurrentStock.Equal(qty("3")) || alert.Threshold != 10 {
		t.Errorf("alert = %+v", alert)
	}
}

func TestAnalyticsExpiringBatches(t *testing.T) {
	p := testProduct("Insulin", "INS", "12.00")
	f := newFixture([]product.Product{p})

	f.addMovement(p, "6", "New Stock", 10, func(m *ledger.Movement) {
		m.BatchNumber = strPtr("B-SOON")
		m.ExpiryDate = datePtr(5)
	})
	f.addMovement(p, "6", "New Stock", 8, func(m *ledger.Movement) {
		m.BatchNumber = strPtr("B-LATER")
		m.ExpiryDate = datePtr(200)
	})

	a, err := f.svc.Analytics(context.Background(), f.scope)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if len(a.ExpiringProducts) != 1 {
		t.Fatalf("expiring = %d, want 1 (far batch outside warning window)", len(a.ExpiringProducts))
	}
	e := a.ExpiringProducts[0]
	if e.BatchNumber == nil || *e.BatchNumber != "B-SOON" {
		t.Errorf("batch = %v, want B-SOON", e.BatchNumber)
	}
	if e.Status != StatusExpiringSoon {
		t.Errorf("status = %s, want %s", e.Status, StatusExpiringSoon)
	}
}

func TestAnalyticsWritesOffExpiredFirst(t *testing.T) {
	p := testProduct("Milk", "MILK", "1.50")
	f := newFixture([]product.Product{p})

	f.addMovement(p, "8", "New Stock", 30, func(m *ledger.Movement) {
		m.BatchNumber = strPtr("OLD")
		m.ExpiryDate = datePtr(-2)
		m.UnitCostPrice = moneyPtr("1.50")
	})

	a, err := f.svc.Analytics(context.Background(), f.scope)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	// Expired stock written off before aggregation; nothing left to value.
	if !a.TotalStockValue.IsZero() {
		t.Errorf("total stock value = %s, want 0", a.TotalStockValue)
	}
	var sawWriteOff bool
	for _, m := range f.repo.movements {
		if m.Reason == ledger.ReasonExpired && m.Change.Equal(qty("-8")) {
			sawWriteOff = true
		}
	}
	if !sawWriteOff {
		t.Error("expected an Expired write-off movement")
	}
}

func TestAnalyticsMovementSummaryBuckets(t *testing.T) {
	p := testProduct("Rice", "RICE", "0.80")
	f := newFixture([]product.Product{p})

	f.addMovement(p, "100", "New Stock", 3, nil)
	f.addMovement(p, "-5", "Damaged", 2, nil)
	f.addMovement(p, "-10", "Sale", 1, nil)
	f.addMovement(p, "2", "Stock Count", 1, nil)
	// Outside the 30 day window.
	f.addMovement(p, "500", "New Stock", 40, nil)

	a, err := f.svc.Analytics(context.Background(), f.scope)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	s := a.MovementSummary
	if !s.StockIn.Equal(qty("100")) {
		t.Errorf("stock in = %s, want 100", s.StockIn)
	}
	if !s.StockOut.Equal(qty("5")) {
		t.Errorf("stock out = %s, want 5", s.StockOut)
	}
	if !s.Sales.Equal(qty("10")) {
		t.Errorf("sales = %s, want 10", s.Sales)
	}
	if !s.Adjustments.Equal(qty("2")) {
		t.Errorf("adjustments = %s, want 2", s.Adjustments)
	}
}

func TestMovementsFiltersAndEnriches(t *testing.T) {
	p := testProduct("Sugar", "SUG", "0.60")
	f := newFixture([]product.Product{p})

	f.addMovement(p, "10", "New Stock", 2, func(m *ledger.Movement) {
		m.Location = strPtr("Back Room")
	})
	f.addMovement(p, "-3", "Damaged", 1, nil)

	all, err := f.svc.Movements(context.Background(), f.scope, MovementFilter{})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("movements = %d, want 2", len(all))
	}
	for _, e := range all {
		if e.ProductName != "Sugar" || e.ProductSKU != "SUG" {
			t.Errorf("entry not enriched: %+v", e)
		}
	}

	back, err := f.svc.Movements(context.Background(), f.scope, MovementFilter{Location: strPtr("Back Room")})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(back) != 1 || back[0].Location != "Back Room" {
		t.Errorf("location filter returned %d entries", len(back))
	}

	damaged, err := f.svc.Movements(context.Background(), f.scope, MovementFilter{Reason: strPtr("Damaged")})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(damaged) != 1 || damaged[0].Reason != "Damaged" {
		t.Errorf("reason filter returned %d entries", len(damaged))
	}
}

func TestMovementsUnknownProductFallback(t *testing.T) {
	ghost := testProduct("Deleted", "GONE", "1.00")
	f := newFixture(nil)

	f.addMovement(ghost, "5", "New Stock", 1, nil)

	entries, err := f.svc.Movements(context.Background(), f.scope, MovementFilter{})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ProductName != "Unknown" || entries[0].ProductSKU != "N/A" {
		t.Errorf("fallback identity = %q/%q", entries[0].ProductName, entries[0].ProductSKU)
	}
}
