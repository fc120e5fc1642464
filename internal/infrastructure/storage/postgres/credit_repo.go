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
	"kardex/internal/domain/credit"
)

const (
	creditorsTable          = "creditors"
	creditTransactionsTable = "credit_transactions"
)

var creditorColumns = ExtractDBColumns[credit.Creditor]()

var creditTransactionColumns = ExtractDBColumns[credit.Transaction]()

// CreditRepo implements credit.Repository.
type CreditRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewCreditRepo creates a new creditor ledger repository.
func NewCreditRepo(txManager *TxManager) *CreditRepo {
	return &CreditRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CreditRepo) FindByName(ctx context.Context, scope tenant.Scope, name string) (*credit.Creditor, error) {
	sql, args, err := scoped(r.builder.Select(creditorColumns...).From(creditorsTable), scope).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c credit.Creditor
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("creditor", name)
		}
		return nil, fmt.Errorf("find creditor: %w", err)
	}
	return &c, nil
}

func (r *CreditRepo) GetByID(ctx context.Context, scope tenant.Scope, creditorID id.ID) (*credit.Creditor, error) {
	sql, args, err := scoped(r.builder.Select(creditorColumns...).From(creditorsTable), scope).
		Where(squirrel.Eq{"id": creditorID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c credit.Creditor
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("creditor", creditorID)
		}
		return nil, fmt.Errorf("get creditor: %w", err)
	}
	return &c, nil
}

func (r *CreditRepo) List(ctx context.Context, scope tenant.Scope) ([]credit.Creditor, error) {
	sql, args, err := scoped(r.builder.Select(creditorColumns...).From(creditorsTable), scope).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var creditors []credit.Creditor
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &creditors, sql, args...); err != nil {
		return nil, fmt.Errorf("select creditors: %w", err)
	}
	return creditors, nil
}

func (r *CreditRepo) Create(ctx context.Context, scope tenant.Scope, c *credit.Creditor) error {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.TenantUserID = scope.ActorUserID
	c.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(creditorsTable).
		Columns(creditorColumns...).
		Values(
			c.ID, c.TenantUserID, c.BranchID, c.Name, c.Phone, c.Email,
			c.TotalDebt, c.Notes, c.CreatedAt, c.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert creditor: %w", err)
	}
	return nil
}

func (r *CreditRepo) SetTotalDebt(ctx context.Context, scope tenant.Scope, creditorID id.ID, totalDebt types.Money) error {
	sql, args, err := r.builder.Update(creditorsTable).
		Set("total_debt", totalDebt).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":             creditorID,
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update creditor debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("creditor", creditorID)
	}
	return nil
}

func (r *CreditRepo) CreateTransaction(ctx context.Context, scope tenant.Scope, t *credit.Transaction) error {
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.TenantUserID = scope.ActorUserID
	t.BranchID = scope.BranchID

	sql, args, err := r.builder.Insert(creditTransactionsTable).
		Columns(creditTransactionColumns...).
		Values(
			t.ID, t.TenantUserID, t.BranchID, t.CreditorID, t.SaleID,
			t.Amount, t.Type, t.Notes, t.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

func (r *CreditRepo) TransactionsBySale(ctx context.Context, scope tenant.Scope, saleID id.ID) ([]credit.Transaction, error) {
	sql, args, err := scoped(r.builder.Select(creditTransactionColumns...).From(creditTransactionsTable), scope).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []credit.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale transactions: %w", err)
	}
	return transactions, nil
}

func (r *CreditRepo) TransactionsByCreditor(ctx context.Context, scope tenant.Scope, creditorID id.ID) ([]credit.Transaction, error) {
	sql, args, err := scoped(r.builder.Select(creditTransactionColumns...).From(creditTransactionsTable), scope).
		Where(squirrel.Eq{"creditor_id": creditorID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []credit.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("select creditor transactions: %w", err)
	}
	return transactions, nil
}

func (r *CreditRepo) DeleteTransaction(ctx context.Context, scope tenant.Scope, transactionID id.ID) error {
	sql, args, err := r.builder.Delete(creditTransactionsTable).
		Where(squirrel.Eq{
			"id":             transactionID,
			"tenant_user_id": scope.UserIDs,
			"branch_id":      scope.BranchID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete credit transaction: %w", err)
	}
	return nil
}

var _ credit.Repository = (*CreditRepo)(nil)
