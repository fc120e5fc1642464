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
	"kardex/internal/domain/product"
)

const productsTable = "products"

var productColumns = ExtractDBColumns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product catalog repository.
func NewProductRepo(txManager *TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) GetByID(ctx context.Context, scope tenant.Scope, productID id.ID) (*product.Product, error) {
	sql, args, err := scoped(r.builder.Select(productColumns...).From(productsTable), scope).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, scope tenant.Scope) ([]product.Product, error) {
	sql, args, err := scoped(r.builder.Select(productColumns...).From(productsTable), scope).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (r *ProductRepo) ExistsByName(ctx context.Context, scope tenant.Scope, name string) (bool, error) {
	sql, args, err := scoped(r.builder.Select("1").From(productsTable), scope).
		Where("LOWER(TRIM(name)) = LOWER(TRIM(?))", name).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	return r.exists(ctx, sql, args)
}

func (r *ProductRepo) ExistsBySKU(ctx context.Context, scope tenant.Scope, sku string, excludeID *id.ID) (bool, error) {
	q := scoped(r.builder.Select("1").From(productsTable), scope).
		Where(squirrel.Eq{"sku": sku})
	if excludeID != nil {
		q = q.Where(squirrel.NotEq{"id": *excludeID})
	}

	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	return r.exists(ctx, sql, args)
}

func (r *ProductRepo) exists(ctx context.Context, sql string, args []any) (bool, error) {
	var one int
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return true, nil
}

func (r *ProductRepo) Create(ctx context.Context, scope tenant.Scope, p *product.Product) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.TenantUserID = scope.ActorUserID
	p.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.TenantUserID, p.BranchID, p.SKU, p.Name,
			p.Description, p.Unit, p.PackSize, p.Category, p.ExpiryDate,
			p.CostPrice, p.PackCostPrice, p.SellingPrice, p.PackSellingPrice,
			p.CreatedAt, p.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, scope tenant.Scope, p *product.Product) error {
	p.UpdatedAt = time.Now().UTC()

	sql, args, err := r.builder.Update(productsTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("unit", p.Unit).
		Set("pack_size", p.PackSize).
		Set("category", p.Category).
		Set("expiry_date", p.ExpiryDate).
		Set("cost_price", p.CostPrice).
		Set("pack_cost_price", p.PackCostPrice).
		Set("selling_price", p.SellingPrice).
		Set("pack_selling_price", p.PackSellingPrice).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{
			"id":             p.ID,
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, scope tenant.Scope, productID id.ID) error {
	sql, args, err := r.builder.Delete(productsTable).
		Where(squirrel.Eq{
			"id":             productID,
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

var _ product.Repository = (*ProductRepo)(nil)
