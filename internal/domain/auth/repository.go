package auth

import (
	"context"

	"kardex/internal/core/id"
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListAccountUserIDs returns the ids of every user in the owner's
	// account, the owner included.
	ListAccountUserIDs(ctx context.Context, ownerUserID int64) ([]int64, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]User, error)

	Update(ctx context.Context, user *User) error
}

// TokenRepository persists refresh tokens.
type TokenRepository interface {
	Save(ctx context.Context, token *RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllForUser(ctx context.Context, userID int64, reason string) error
}
