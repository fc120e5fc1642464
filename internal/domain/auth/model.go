// Package auth provides account management and token issuance. A tenant
// account is a group of users sharing one owner; every user works against
// a single branch and the issued token carries the full tenant scope.
package auth

import (
	"strings"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
)

// User represents a system user. The account owner has a nil OwnerUserID;
// staff users point at their owner's id.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  string     `db:"display_name" json:"displayName,omitempty"`
	OwnerUserID  *int64     `db:"owner_user_id" json:"ownerUserId,omitempty"`
	BranchID     int64      `db:"branch_id" json:"branchId"`
	IsActive     bool       `db:"is_active" json:"isActive"`

	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Owner returns the id of the account owner.
func (u *User) Owner() int64 {
	if u.OwnerUserID != nil {
		return *u.OwnerUserID
	}
	return u.ID
}

// IsOwner reports whether the user owns their account.
func (u *User) IsOwner() bool {
	return u.OwnerUserID == nil || *u.OwnerUserID == u.ID
}

// IsLocked returns true if the account is temporarily locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user may authenticate.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter and locks the
// account once the limit is reached.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// ScopeWith builds the tenant scope for this user given the full member
// list of the account.
func (u *User) ScopeWith(memberIDs []int64) tenant.Scope {
	return tenant.Scope{
		UserIDs:     memberIDs,
		ActorUserID: u.ID,
		OwnerUserID: u.Owner(),
		BranchID:    u.BranchID,
	}
}

// RefreshToken is a long-lived token exchanged for fresh access tokens.
// Only its SHA256 hash is stored.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        int64      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason *string    `db:"revoked_reason"`
}

// IsValid checks if the refresh token may still be exchanged.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput creates a new owner account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	BranchID    int64
}

// StaffInput adds a staff user to an existing account.
type StaffInput struct {
	Email       string
	Password    string
	DisplayName string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
