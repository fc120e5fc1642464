package sale

import (
	"context"
	"testing"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/internal/domain/credit"
	"kardex/internal/domain/ledger"
)

// Mock objects

type memRepo struct {
	sales   map[id.ID]*Sale
	returns []Return
	order   []id.ID
}

func newMemRepo() *memRepo {
	return &memRepo{sales: map[id.ID]*Sale{}}
}

func (r *memRepo) Create(_ context.Context, _ tenant.Scope, s *Sale) error {
	copied := *s
	r.sales[s.ID] = &copied
	r.order = append(r.order, s.ID)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, _ tenant.Scope, saleID id.ID) (*Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	copied := *s
	return &copied, nil
}

func (r *memRepo) FindByClientSaleID(_ context.Context, _ tenant.Scope, clientSaleID string) (*Sale, error) {
	for _, s := range r.sales {
		if s.ClientSaleID != nil && *s.ClientSaleID == clientSaleID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("sale", clientSaleID)
}

func (r *memRepo) List(_ context.Context, _ tenant.Scope) ([]Sale, error) {
	out := make([]Sale, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if s, ok := r.sales[r.order[i]]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, _ tenant.Scope, saleID id.ID) error {
	delete(r.sales, saleID)
	return nil
}

func (r *memRepo) CreateReturn(_ context.Context, _ tenant.Scope, ret *Return) error {
	r.returns = append(r.returns, *ret)
	return nil
}

func (r *memRepo) TotalReturnedQuantity(_ context.Context, _ tenant.Scope, saleID id.ID) (types.Quantity, error) {
	total := types.Zero()
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			total = total.Add(ret.QuantityReturned)
		}
	}
	return total, nil
}

func (r *memRepo) ReturnsBySale(_ context.Context, _ tenant.Scope, saleID id.ID) ([]Return, error) {
	var out []Return
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (r *memRepo) ListReturns(_ context.Context, _ tenant.Scope, limit int) ([]Return, error) {
	if len(r.returns) > limit {
		return r.returns[:limit], nil
	}
	return r.returns, nil
}

func (r *memRepo) SummarizeReturns(_ context.Context, _ tenant.Scope) (ReturnsSummary, error) {
	sum := ReturnsSummary{TotalQuantity: types.Zero(), TotalRefundAmount: types.Zero()}
	for _, ret := range r.returns {
		sum.TotalReturns++
		sum.TotalQuantity = sum.TotalQuantity.Add(ret.QuantityReturned)
		sum.TotalRefundAmount = sum.TotalRefundAmount.Add(ret.RefundAmount)
	}
	return sum, nil
}

// fakeStock tracks a single product's stock as a plain number and records
// every ledger write the orchestrator asks for. calls keeps the order of
// read and lock operations for sequencing assertions.
type fakeStock struct {
	available types.Quantity
	deducted  map[id.ID][]ledger.Movement
	reversals []types.Quantity
	restocked []types.Quantity
	calls     []string
}

func newFakeStock(available string) *fakeStock {
	return &fakeStock{
		available: types.MustFromString(available),
		deducted:  map[id.ID][]ledger.Movement{},
	}
}

func (f *fakeStock) WriteOffExpired(context.Context, tenant.Scope, *id.ID) (int, error) {
	f.calls = append(f.calls, "WriteOffExpired")
	return 0, nil
}

func (f *fakeStock) LockStock(context.Context, tenant.Scope, id.ID) error {
	f.calls = append(f.calls, "LockStock")
	return nil
}

func (f *fakeStock) AvailableStock(context.Context, tenant.Scope, id.ID) (types.Quantity, error) {
	f.calls = append(f.calls, "AvailableStock")
	return f.available, nil
}

func (f *fakeStock) DeductForSale(_ context.Context, scope tenant.Scope, in ledger.DeductInput) ([]ledger.Allocation, error) {
	saleID := in.SaleID
	bn := "B1"
	m := ledger.Movement{
		ID:          id.New(),
		BranchID:    scope.BranchID,
		ProductID:   in.ProductID,
		SaleID:      &saleID,
		Change:      in.Quantity.Neg(),
		Reason:      ledger.ReasonSale,
		BatchNumber: &bn,
	}
	f.deducted[in.SaleID] = append(f.deducted[in.SaleID], m)
	f.available = f.available.Sub(in.Quantity)
	return []ledger.Allocation{{Batch: &ledger.BatchBalance{BatchNumber: bn}, Quantity: in.Quantity}}, nil
}

func (f *fakeStock) MovementsBySale(_ context.Context, _ tenant.Scope, saleID id.ID) ([]ledger.Movement, error) {
	return f.deducted[saleID], nil
}

func (f *fakeStock) DeleteSaleMovements(_ context.Context, _ tenant.Scope, saleID id.ID) ([]ledger.Movement, error) {
	deleted := f.deducted[saleID]
	delete(f.deducted, saleID)
	for _, m := range deleted {
		f.available = f.available.Sub(m.Change)
	}
	return deleted, nil
}

func (f *fakeStock) RestockReturn(_ context.Context, _ tenant.Scope, _, _ id.ID, quantity types.Quantity) error {
	f.available = f.available.Add(quantity)
	f.restocked = append(f.restocked, quantity)
	return nil
}

func (f *fakeStock) AppendSaleReversal(_ context.Context, _ tenant.Scope, _ id.ID, quantity types.Quantity) error {
	f.available = f.available.Add(quantity)
	f.reversals = append(f.reversals, quantity)
	return nil
}

// fakeCredits implements CreditLedger with one creditor balance.
type fakeCredits struct {
	debts   []credit.SaleDebtInput
	refunds []types.Money
	unwound []id.ID
	balance types.Money
}

func newFakeCredits() *fakeCredits {
	return &fakeCredits{balance: types.Zero()}
}

func (f *fakeCredits) RecordSaleDebt(_ context.Context, _ tenant.Scope, in credit.SaleDebtInput) (*credit.Creditor, error) {
	f.debts = append(f.debts, in)
	f.balance = f.balance.Add(in.DebtAmount)
	if in.UpfrontPayment != nil {
		f.balance = f.balance.Sub(*in.UpfrontPayment)
	}
	return &credit.Creditor{ID: id.New(), Name: in.CustomerName, TotalDebt: f.balance}, nil
}

func (f *fakeCredits) RefundToAccount(_ context.Context, _ tenant.Scope, _ id.ID, refund types.Money, _ string) error {
	f.refunds = append(f.refunds, refund)
	f.balance = types.ClampNonNegative(f.balance.Sub(refund))
	return nil
}

func (f *fakeCredits) UnwindSale(_ context.Context, _ tenant.Scope, saleID id.ID) error {
	f.unwound = append(f.unwound, saleID)
	return nil
}

type fakeProducts struct {
	info ledger.ProductInfo
}

func (f *fakeProducts) Lookup(context.Context, tenant.Scope, id.ID) (ledger.ProductInfo, error) {
	return f.info, nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func testScope() tenant.Scope {
	return tenant.Scope{UserIDs: []int64{1}, ActorUserID: 1, OwnerUserID: 1, BranchID: 3}
}

func money(s string) types.Money { return types.MustFromString(s) }

type fixture struct {
	svc     *Service
	repo    *memRepo
	stock   *fakeStock
	credits *fakeCredits
	pid     id.ID
}

func newFixture(available string) *fixture {
	pid := id.New()
	cost := money("2.00")
	repo := newMemRepo()
	stock := newFakeStock(available)
	credits := newFakeCredits()
	products := &fakeProducts{info: ledger.ProductInfo{ID: pid, SKU: "S1", Name: "Amoxicillin", CostPrice: &cost}}
	svc := NewService(repo, stock, credits, products, passTx{}, nil, &numerator.MockGenerator{})
	return &fixture{svc: svc, repo: repo, stock: stock, credits: credits, pid: pid}
}

func strPtr(s string) *string { return &s }

func baseInput(f *fixture, qty, unit, total string) CreateInput {
	return CreateInput{
		ProductID:     f.pid,
		Quantity:      money(qty),
		UnitPrice:     money(unit),
		TotalPrice:    money(total),
		PaymentMethod: "cash",
	}
}

func TestCreateRejectsOversell(t *testing.T) {
	f := newFixture("3")
	_, err := f.svc.Create(context.Background(), testScope(), baseInput(f, "5", "10", "50"))
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(f.repo.sales) != 0 {
		t.Errorf("sale must not be persisted on shortage")
	}
}

func TestCreateDeductsAndReports(t *testing.T) {
	f := newFixture("10")
	sle, err := f.svc.Create(context.Background(), testScope(), baseInput(f, "4", "10", "40"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sle.DeductedBatches) != 1 || !sle.DeductedBatches[0].Quantity.Equal(money("4")) {
		t.Errorf("deducted batches = %+v", sle.DeductedBatches)
	}
	if !f.stock.available.Equal(money("6")) {
		t.Errorf("available after sale = %s, want 6", f.stock.available)
	}
	if sle.ReceiptNumber == nil || *sle.ReceiptNumber != "MOCK-2026-00001" {
		t.Errorf("receipt number = %v, want MOCK-2026-00001", sle.ReceiptNumber)
	}
}

func TestCreateLocksStockBeforeAnyBalanceRead(t *testing.T) {
	f := newFixture("10")
	if _, err := f.svc.Create(context.Background(), testScope(), baseInput(f, "4", "10", "40")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"LockStock", "WriteOffExpired", "AvailableStock"}
	if len(f.stock.calls) != len(want) {
		t.Fatalf("stock calls = %v, want %v", f.stock.calls, want)
	}
	for i, name := range want {
		if f.stock.calls[i] != name {
			t.Fatalf("stock calls = %v, want %v", f.stock.calls, want)
		}
	}
}

func TestCreateIdempotentRetry(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "4", "10", "40")
	in.ClientSaleID = strPtr("pos-123")

	first, err := f.svc.Create(context.Background(), testScope(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.Create(context.Background(), testScope(), in)
	if err != nil {
		t.Fatalf("retry must not fail: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry returned a different sale: %s vs %s", second.ID, first.ID)
	}
	if len(f.repo.sales) != 1 {
		t.Errorf("retry created a second sale")
	}
	if !f.stock.available.Equal(money("6")) {
		t.Errorf("retry deducted stock again: available = %s", f.stock.available)
	}
	if len(second.DeductedBatches) != 1 {
		t.Errorf("replay must report the original deduction, got %+v", second.DeductedBatches)
	}
}

func TestCreateFullCreditRecordsWholeTotal(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "2", "50", "100")
	in.PaymentMethod = PaymentCredit
	in.CustomerName = strPtr("Ada")

	if _, err := f.svc.Create(context.Background(), testScope(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.credits.debts) != 1 {
		t.Fatalf("expected 1 debt entry, got %d", len(f.credits.debts))
	}
	d := f.credits.debts[0]
	if !d.DebtAmount.Equal(money("100")) {
		t.Errorf("debt = %s, want 100", d.DebtAmount)
	}
	if d.UpfrontPayment != nil {
		t.Errorf("no upfront payment was given")
	}
}

func TestCreateFullCreditWithUpfrontPayment(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "2", "50", "100")
	in.PaymentMethod = PaymentCredit
	in.CustomerName = strPtr("Ada")
	paid := money("30")
	in.AmountPaid = &paid

	if _, err := f.svc.Create(context.Background(), testScope(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := f.credits.debts[0]
	if !d.DebtAmount.Equal(money("100")) {
		t.Errorf("debt = %s, want full total 100", d.DebtAmount)
	}
	if d.UpfrontPayment == nil || !d.UpfrontPayment.Equal(money("30")) {
		t.Errorf("upfront = %v, want 30", d.UpfrontPayment)
	}
	if !f.credits.balance.Equal(money("70")) {
		t.Errorf("creditor balance = %s, want 70", f.credits.balance)
	}
}

func TestCreatePartialRecordsOutstandingOnly(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "2", "50", "100")
	in.PaymentMethod = PaymentPartial
	in.CustomerName = strPtr("Ada")
	paid := money("40")
	in.AmountPaid = &paid

	if _, err := f.svc.Create(context.Background(), testScope(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := f.credits.debts[0]
	if !d.DebtAmount.Equal(money("60")) {
		t.Errorf("debt = %s, want 60 (unpaid portion only)", d.DebtAmount)
	}
	// No separate payment entry: that would subtract the upfront twice.
	if d.UpfrontPayment != nil {
		t.Errorf("partial sale must not create a payment entry")
	}
	if !f.credits.balance.Equal(money("60")) {
		t.Errorf("creditor balance = %s, want 60", f.credits.balance)
	}
}

func TestCreatePartialOverpaymentConflicts(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "2", "50", "100")
	in.PaymentMethod = PaymentPartial
	in.CustomerName = strPtr("Ada")
	paid := money("100")
	in.AmountPaid = &paid

	_, err := f.svc.Create(context.Background(), testScope(), in)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.repo.sales) != 0 {
		t.Errorf("conflicting sale must not be persisted")
	}
}

func TestCreateBulkReportsFailingIndex(t *testing.T) {
	f := newFixture("5")
	items := []CreateInput{
		baseInput(f, "2", "10", "20"),
		baseInput(f, "2", "10", "20"),
		baseInput(f, "2", "10", "20"), // only 1 left
	}

	created, err := f.svc.CreateBulk(context.Background(), testScope(), items)
	if err == nil {
		t.Fatal("expected third item to fail")
	}
	if len(created) != 2 {
		t.Errorf("committed %d items before the failure, want 2", len(created))
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if idx, ok := appErr.Details["item_index"]; !ok || idx != 2 {
		t.Errorf("item_index = %v, want 2", idx)
	}
}

func TestReturnCumulativeBound(t *testing.T) {
	f := newFixture("10")
	sle, err := f.svc.Create(context.Background(), testScope(), baseInput(f, "5", "10", "50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ret := func(qty string) error {
		_, err := f.svc.CreateReturn(context.Background(), testScope(), ReturnInput{
			SaleID:           sle.ID,
			QuantityReturned: money(qty),
			RefundAmount:     money("0"),
			RefundMethod:     "cash",
			Restock:          false,
		})
		return err
	}

	if err := ret("3"); err != nil {
		t.Fatalf("first return: %v", err)
	}
	if err := ret("2"); err != nil {
		t.Fatalf("second return up to the bound: %v", err)
	}
	err = ret("1")
	if err == nil {
		t.Fatal("return past the sold quantity must fail")
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr.Code != apperror.CodeReturnExceeded {
		t.Errorf("code = %s, want %s", appErr.Code, apperror.CodeReturnExceeded)
	}
}

func TestReturnRestockAndCreditRefund(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "5", "10", "50")
	in.PaymentMethod = PaymentCredit
	in.CustomerName = strPtr("Ada")
	sle, err := f.svc.Create(context.Background(), testScope(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.CreateReturn(context.Background(), testScope(), ReturnInput{
		SaleID:           sle.ID,
		QuantityReturned: money("2"),
		RefundAmount:     money("20"),
		RefundMethod:     RefundToAccount,
		Restock:          true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.stock.restocked) != 1 || !f.stock.restocked[0].Equal(money("2")) {
		t.Errorf("restock movements = %+v, want one of 2", f.stock.restocked)
	}
	if len(f.credits.refunds) != 1 || !f.credits.refunds[0].Equal(money("20")) {
		t.Errorf("refunds = %+v, want one of 20", f.credits.refunds)
	}
	if !f.credits.balance.Equal(money("30")) {
		t.Errorf("creditor balance = %s, want 30", f.credits.balance)
	}
}

func TestReturnCashRefundSkipsCreditor(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "5", "10", "50")
	in.PaymentMethod = PaymentCredit
	in.CustomerName = strPtr("Ada")
	sle, _ := f.svc.Create(context.Background(), testScope(), in)

	_, err := f.svc.CreateReturn(context.Background(), testScope(), ReturnInput{
		SaleID:           sle.ID,
		QuantityReturned: money("1"),
		RefundAmount:     money("10"),
		RefundMethod:     "cash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.credits.refunds) != 0 {
		t.Errorf("cash refund must not touch the creditor ledger")
	}
}

func TestReverseDeletesMovementsAndUnwindsCredit(t *testing.T) {
	f := newFixture("10")
	in := baseInput(f, "4", "10", "40")
	in.PaymentMethod = PaymentCredit
	in.CustomerName = strPtr("Ada")
	sle, err := f.svc.Create(context.Background(), testScope(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.stock.available.Equal(money("6")) {
		t.Fatalf("precondition: available = %s", f.stock.available)
	}

	if err := f.svc.Reverse(context.Background(), testScope(), sle.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.stock.available.Equal(money("10")) {
		t.Errorf("stock after reversal = %s, want 10", f.stock.available)
	}
	if len(f.stock.reversals) != 0 {
		t.Errorf("linked movements existed; no fallback movement expected")
	}
	if len(f.credits.unwound) != 1 || f.credits.unwound[0] != sle.ID {
		t.Errorf("credit entries not unwound: %+v", f.credits.unwound)
	}
	if _, err := f.repo.GetByID(context.Background(), testScope(), sle.ID); !apperror.IsNotFound(err) {
		t.Errorf("sale row must be gone, got %v", err)
	}
}

func TestReverseLegacySaleUsesFallbackMovement(t *testing.T) {
	f := newFixture("10")
	// Seed a sale with no linked movements (predates sale linking).
	legacy := &Sale{
		ID:            id.New(),
		TenantUserID:  1,
		BranchID:      3,
		ProductID:     f.pid,
		Quantity:      money("4"),
		UnitPrice:     money("10"),
		TotalPrice:    money("40"),
		PaymentMethod: "cash",
	}
	_ = f.repo.Create(context.Background(), testScope(), legacy)

	if err := f.svc.Reverse(context.Background(), testScope(), legacy.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.stock.reversals) != 1 || !f.stock.reversals[0].Equal(money("4")) {
		t.Errorf("expected one fallback reversal of 4, got %+v", f.stock.reversals)
	}
}
