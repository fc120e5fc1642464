package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/internal/domain/sale"
)

const (
	salesTable   = "sales"
	returnsTable = "sale_returns"
)

var saleColumns = ExtractDBColumns[sale.Sale]()

var returnColumns = ExtractDBColumns[sale.Return]()

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sales repository.
func NewSaleRepo(txManager *TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SaleRepo) Create(ctx context.Context, scope tenant.Scope, s *sale.Sale) error {
	if id.IsNil(s.ID) {
		s.ID = id.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.TenantUserID = scope.ActorUserID
	s.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(salesTable).
		Columns(saleColumns...).
		Values(
			s.ID, s.TenantUserID, s.BranchID, s.ProductID,
			s.Quantity, s.SaleUnitType, s.PackQuantity,
			s.UnitPrice, s.TotalPrice, s.ReceiptNumber,
			s.CustomerName, s.PaymentMethod, s.AmountPaid, s.PartialPaymentMethod,
			s.Notes, s.ClientSaleID, s.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, scope tenant.Scope, saleID id.ID) (*sale.Sale, error) {
	sql, args, err := scoped(r.builder.Select(saleColumns...).From(salesTable), scope).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

func (r *SaleRepo) FindByClientSaleID(ctx context.Context, scope tenant.Scope, clientSaleID string) (*sale.Sale, error) {
	sql, args, err := scoped(r.builder.Select(saleColumns...).From(salesTable), scope).
		Where(squirrel.Eq{"client_sale_id": clientSaleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("sale", clientSaleID)
		}
		return nil, fmt.Errorf("find sale by client id: %w", err)
	}
	return &s, nil
}

func (r *SaleRepo) List(ctx context.Context, scope tenant.Scope) ([]sale.Sale, error) {
	sql, args, err := scoped(r.builder.Select(saleColumns...).From(salesTable), scope).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sales []sale.Sale
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return sales, nil
}

func (r *SaleRepo) Delete(ctx context.Context, scope tenant.Scope, saleID id.ID) error {
	sql, args, err := r.builder.Delete(salesTable).
		Where(squirrel.Eq{
			"id":             saleID,
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}

func (r *SaleRepo) CreateReturn(ctx context.Context, scope tenant.Scope, ret *sale.Return) error {
	if id.IsNil(ret.ID) {
		ret.ID = id.New()
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now().UTC()
	}
	ret.TenantUserID = scope.ActorUserID
	ret.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(returnsTable).
		Columns(returnColumns...).
		Values(
			ret.ID, ret.TenantUserID, ret.BranchID, ret.SaleID, ret.ProductID,
			ret.QuantityReturned, ret.RefundAmount, ret.RefundMethod, ret.Reason,
			ret.Restock, ret.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

func (r *SaleRepo) TotalReturnedQuantity(ctx context.Context, scope tenant.Scope, saleID id.ID) (types.Quantity, error) {
	sql, args, err := scoped(
		r.builder.Select("COALESCE(SUM(quantity_returned), 0)").From(returnsTable), scope).
		Where(squirrel.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total types.Quantity
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum returns: %w", err)
	}
	return total, nil
}

func (r *SaleRepo) ReturnsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]sale.Return, error) {
	sql, args, err := scoped(r.builder.Select(returnColumns...).From(returnsTable), scope).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var returns []sale.Return
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &returns, sql, args...); err != nil {
		return nil, fmt.Errorf("select returns: %w", err)
	}
	return returns, nil
}

func (r *SaleRepo) ListReturns(ctx context.Context, scope tenant.Scope, limit int) ([]sale.Return, error) {
	q := scoped(r.builder.Select(returnColumns...).From(returnsTable), scope).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var returns []sale.Return
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &returns, sql, args...); err != nil {
		return nil, fmt.Errorf("select returns: %w", err)
	}
	return returns, nil
}

func (r *SaleRepo) SummarizeReturns(ctx context.Context, scope tenant.Scope) (sale.ReturnsSummary, error) {
	sql, args, err := scoped(
		r.builder.Select(
			"COUNT(*) AS total_returns",
			"COALESCE(SUM(quantity_returned), 0) AS total_quantity",
			"COALESCE(SUM(refund_amount), 0) AS total_refund",
		).From(returnsTable), scope).
		ToSql()
	if err != nil {
		return sale.ReturnsSummary{}, fmt.Errorf("build query: %w", err)
	}

	var summary sale.ReturnsSummary
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &summary, sql, args...); err != nil {
		return sale.ReturnsSummary{}, fmt.Errorf("summarize returns: %w", err)
	}
	return summary, nil
}

var _ sale.Repository = (*SaleRepo)(nil)
