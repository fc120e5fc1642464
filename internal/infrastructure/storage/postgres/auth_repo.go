package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain/auth"
)

const usersTable = "users"

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql := `
		INSERT INTO users (
			email, password_hash, display_name, owner_user_id, branch_id,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql,
		user.Email, user.PasswordHash, user.DisplayName,
		user.OwnerUserID, user.BranchID, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user,
		`SELECT * FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user,
		`SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) ListAccountUserIDs(ctx context.Context, ownerUserID int64) ([]int64, error) {
	sql := `
		SELECT id FROM users
		WHERE id = $1 OR owner_user_id = $1
		ORDER BY id
	`

	var ids []int64
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &ids, sql, ownerUserID); err != nil {
		return nil, fmt.Errorf("list account user ids: %w", err)
	}
	return ids, nil
}

func (r *UserRepo) ListByOwner(ctx context.Context, ownerUserID int64) ([]auth.User, error) {
	sql := `
		SELECT * FROM users
		WHERE id = $1 OR owner_user_id = $1
		ORDER BY created_at
	`

	var users []auth.User
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &users, sql, ownerUserID); err != nil {
		return nil, fmt.Errorf("list users by owner: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql := `
		UPDATE users SET
			display_name          = $2,
			is_active             = $3,
			failed_login_attempts = $4,
			locked_until          = $5,
			last_login_at         = $6,
			updated_at            = now()
		WHERE id = $1
	`

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		user.ID, user.DisplayName, user.IsActive,
		user.FailedLoginAttempts, user.LockedUntil, user.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID)
	}
	return nil
}

var _ auth.UserRepository = (*UserRepo)(nil)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *TxManager
}

// NewTokenRepo creates a new refresh token repository.
func NewTokenRepo(txManager *TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

func (r *TokenRepo) Save(ctx context.Context, token *auth.RefreshToken) error {
	sql := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &token,
		`SELECT * FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("refresh token", tokenHash)
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &token, nil
}

func (r *TokenRepo) Revoke(ctx context.Context, tokenID id.ID, reason string) error {
	sql := `
		UPDATE refresh_tokens
		SET revoked_at = now(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, tokenID, reason); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID int64, reason string) error {
	sql := `
		UPDATE refresh_tokens
		SET revoked_at = now(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, userID, reason); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

var _ auth.TokenRepository = (*TokenRepo)(nil)
