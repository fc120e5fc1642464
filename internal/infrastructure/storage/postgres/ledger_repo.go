package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
)

const movementsTable = "stock_movements"

var movementColumns = ExtractDBColumns[ledger.Movement]()

// LedgerRepo implements ledger.Repository on the stock_movements table.
// Balances are never stored; every read aggregates over the log.
type LedgerRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new movement ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// scoped restricts a query to the tenant's rows in the active branch.
func scoped(q squirrel.SelectBuilder, scope tenant.Scope) squirrel.SelectBuilder {
	return q.Where(squirrel.Eq{
		"tenant_user_id": scope.UserIDs,
		"branch_id":      scope.BranchID,
	})
}

func (r *LedgerRepo) Append(ctx context.Context, scope tenant.Scope, m *ledger.Movement) error {
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.TenantUserID = scope.ActorUserID
	m.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.TenantUserID, m.BranchID, m.ProductID, m.SaleID,
			m.Change, m.Reason,
			m.BatchNumber, m.ExpiryDate, m.Location,
			m.UnitCostPrice, m.UnitSellingPrice, m.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *LedgerRepo) AppendBatch(ctx context.Context, scope tenant.Scope, ms []ledger.Movement) error {
	if len(ms) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		if id.IsNil(m.ID) {
			m.ID = id.New()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.TenantUserID = scope.ActorUserID
		m.BranchID = scope.BranchID
		rows = append(rows, []any{
			m.ID, m.TenantUserID, m.BranchID, m.ProductID, m.SaleID,
			m.Change, m.Reason,
			m.BatchNumber, m.ExpiryDate, m.Location,
			m.UnitCostPrice, m.UnitSellingPrice, m.CreatedAt,
		})
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListForProduct(ctx context.Context, scope tenant.Scope, productID id.ID, f ledger.MovementFilter) ([]ledger.Movement, error) {
	q := scoped(r.builder.Select(movementColumns...).From(movementsTable), scope).
		Where(squirrel.Eq{"product_id": productID})
	q = applyMovementFilter(q, f)

	sql, args, err := q.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

func (r *LedgerRepo) ListForBranch(ctx context.Context, scope tenant.Scope, f ledger.MovementFilter) ([]ledger.Movement, error) {
	q := scoped(r.builder.Select(movementColumns...).From(movementsTable), scope)
	q = applyMovementFilter(q, f)

	sql, args, err := q.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

func applyMovementFilter(q squirrel.SelectBuilder, f ledger.MovementFilter) squirrel.SelectBuilder {
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}
	if f.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *f.Reason})
	}
	if f.Location != nil {
		q = q.Where(squirrel.Eq{"location": *f.Location})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

func (r *LedgerRepo) TotalStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, error) {
	sql, args, err := scoped(
		r.builder.Select("COALESCE(SUM(change), 0)").From(movementsTable), scope).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total types.Quantity
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}

func (r *LedgerRepo) BatchBalances(ctx context.Context, scope tenant.Scope, productID id.ID, includeNullExpiry bool) ([]ledger.BatchBalance, error) {
	q := scoped(
		r.builder.Select(
			"product_id", "batch_number", "expiry_date", "location",
			"SUM(change) AS balance",
			"MIN(created_at) AS first_seen",
		).From(movementsTable), scope).
		Where(squirrel.Eq{"product_id": productID}).
		Where("batch_number IS NOT NULL")
	if !includeNullExpiry {
		q = q.Where("expiry_date IS NOT NULL")
	}

	sql, args, err := q.
		GroupBy("product_id", "batch_number", "expiry_date", "location").
		OrderBy("expiry_date NULLS LAST", "batch_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []ledger.BatchBalance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select batch balances: %w", err)
	}
	return balances, nil
}

func (r *LedgerRepo) ExpiredBatchBalances(ctx context.Context, scope tenant.Scope, before time.Time, productID *id.ID) ([]ledger.BatchBalance, error) {
	q := scoped(
		r.builder.Select(
			"product_id", "batch_number", "expiry_date", "location",
			"SUM(change) AS balance",
			"MIN(created_at) AS first_seen",
		).From(movementsTable), scope).
		Where("batch_number IS NOT NULL").
		Where(squirrel.Lt{"expiry_date": before})
	if productID != nil {
		q = q.Where(squirrel.Eq{"product_id": *productID})
	}

	sql, args, err := q.
		GroupBy("product_id", "batch_number", "expiry_date", "location").
		Having("SUM(change) > 0").
		OrderBy("expiry_date", "batch_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []ledger.BatchBalance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select expired balances: %w", err)
	}
	return balances, nil
}

func (r *LedgerRepo) LatestUnitCosts(ctx context.Context, scope tenant.Scope, productID id.ID, batchNumbers []string) (map[string]types.Money, error) {
	if len(batchNumbers) == 0 {
		return map[string]types.Money{}, nil
	}

	sql, args, err := scoped(
		r.builder.Select("DISTINCT ON (batch_number) batch_number", "unit_cost_price").
			From(movementsTable), scope).
		Where(squirrel.Eq{"product_id": productID, "batch_number": batchNumbers}).
		Where(squirrel.Gt{"change": 0}).
		Where("unit_cost_price IS NOT NULL").
		OrderBy("batch_number", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select unit costs: %w", err)
	}
	defer rows.Close()

	costs := make(map[string]types.Money, len(batchNumbers))
	for rows.Next() {
		var batch string
		var cost types.Money
		if err := rows.Scan(&batch, &cost); err != nil {
			return nil, fmt.Errorf("scan unit cost: %w", err)
		}
		costs[batch] = cost
	}
	return costs, rows.Err()
}

func (r *LedgerRepo) MovementsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]ledger.Movement, error) {
	sql, args, err := scoped(r.builder.Select(movementColumns...).From(movementsTable), scope).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale movements: %w", err)
	}
	return movements, nil
}

func (r *LedgerRepo) DeleteBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]ledger.Movement, error) {
	// RETURNING feeds the reversal audit trail.
	deleted, err := r.MovementsBySale(ctx, scope, saleID)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
			"sale_id":        saleID,
		}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("delete sale movements: %w", err)
	}
	return deleted, nil
}

func (r *LedgerRepo) LockProductStock(ctx context.Context, scope tenant.Scope, productID id.ID) error {
	// Derived balances have no row to lock, so writers serialize on a
	// transaction-scoped advisory lock keyed by (product, branch).
	if r.txManager.GetTx(ctx) == nil {
		return errors.New("LockProductStock requires transaction context")
	}

	key := fmt.Sprintf("%s:%d", productID, scope.BranchID)
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtext($1))", key)
	if err != nil {
		return fmt.Errorf("acquire stock lock: %w", err)
	}
	return nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
