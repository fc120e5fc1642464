package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
)

// Mock objects

type memUsers struct {
	users  map[int64]*User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]*User{}, nextID: 1}
}

func (r *memUsers) Create(_ context.Context, user *User) error {
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, userID int64) (*User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) ListAccountUserIDs(_ context.Context, ownerUserID int64) ([]int64, error) {
	var ids []int64
	for _, u := range r.users {
		if u.ID == ownerUserID || u.Owner() == ownerUserID {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (r *memUsers) ListByOwner(_ context.Context, ownerUserID int64) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.ID == ownerUserID || u.Owner() == ownerUserID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUsers) Update(_ context.Context, user *User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NewNotFound("user", user.ID)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type memTokens struct {
	tokens map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*RefreshToken{}}
}

func (r *memTokens) Save(_ context.Context, token *RefreshToken) error {
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *memTokens) GetByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	cp := *t
	return &cp, nil
}

func (r *memTokens) Revoke(_ context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.ID == tokenID && t.RevokedAt == nil {
			now := t.CreatedAt
			t.RevokedAt = &now
			t.RevokedReason = &reason
		}
	}
	return nil
}

func (r *memTokens) RevokeAllForUser(_ context.Context, userID int64, reason string) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := t.CreatedAt
			t.RevokedAt = &now
			t.RevokedReason = &reason
		}
	}
	return nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passTx) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Helpers

const testSecret = "test-secret"

type fixture struct {
	svc    *Service
	users  *memUsers
	tokens *memTokens
}

func newFixture() *fixture {
	users := newMemUsers()
	tokens := newMemTokens()
	svc := NewService(users, tokens, passTx{},
		NewJWTService(DefaultJWTConfig(testSecret)), DefaultServiceConfig())
	return &fixture{svc: svc, users: users, tokens: tokens}
}

func registerOwner(t *testing.T, f *fixture) *User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "owner@shop.test",
		Password: "correct horse",
		BranchID: 5,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func parseClaims(t *testing.T, tokenString string) *Claims {
	t.Helper()
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return &claims
}

// Tests

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "owner@shop.test",
		Password: "short",
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newFixture()
	registerOwner(t, f)
	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "Owner@Shop.Test",
		Password: "correct horse",
	})
	if !apperror.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestLoginIssuesScopedToken(t *testing.T) {
	f := newFixture()
	owner := registerOwner(t, f)

	tokens, user, err := f.svc.Login(context.Background(), Credentials{
		Email:    "owner@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != owner.ID {
		t.Errorf("user id = %d, want %d", user.ID, owner.ID)
	}
	if user.LastLoginAt == nil {
		t.Error("last login not recorded")
	}

	claims := parseClaims(t, tokens.AccessToken)
	if claims.UserID != owner.ID || claims.OwnerUserID != owner.ID {
		t.Errorf("claims actor/owner = %d/%d, want %d", claims.UserID, claims.OwnerUserID, owner.ID)
	}
	if claims.BranchID != 5 {
		t.Errorf("claims branch = %d, want 5", claims.BranchID)
	}
	if len(claims.UserIDs) != 1 || claims.UserIDs[0] != owner.ID {
		t.Errorf("claims user_ids = %v", claims.UserIDs)
	}
}

func TestLoginWrongPasswordLocksAfterLimit(t *testing.T) {
	f := newFixture()
	registerOwner(t, f)

	creds := Credentials{Email: "owner@shop.test", Password: "wrong"}
	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		if _, _, err := f.svc.Login(context.Background(), creds); err == nil {
			t.Fatal("login with wrong password succeeded")
		}
	}

	// Even the right password is rejected while locked.
	_, _, err := f.svc.Login(context.Background(), Credentials{
		Email:    "owner@shop.test",
		Password: "correct horse",
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != "FORBIDDEN" {
		t.Fatalf("err = %v, want forbidden (locked)", err)
	}
}

func TestStaffSharesOwnerScope(t *testing.T) {
	f := newFixture()
	owner := registerOwner(t, f)
	ownerScope := owner.ScopeWith([]int64{owner.ID})

	staff, err := f.svc.AddStaff(context.Background(), ownerScope, StaffInput{
		Email:    "staff@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("add staff: %v", err)
	}
	if staff.Owner() != owner.ID || staff.BranchID != owner.BranchID {
		t.Errorf("staff owner/branch = %d/%d, want %d/%d",
			staff.Owner(), staff.BranchID, owner.ID, owner.BranchID)
	}

	tokens, _, err := f.svc.Login(context.Background(), Credentials{
		Email:    "staff@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("staff login: %v", err)
	}
	claims := parseClaims(t, tokens.AccessToken)
	if claims.OwnerUserID != owner.ID {
		t.Errorf("staff token owner = %d, want %d", claims.OwnerUserID, owner.ID)
	}
	if len(claims.UserIDs) != 2 {
		t.Errorf("staff token user_ids = %v, want both members", claims.UserIDs)
	}
}

func TestStaffCannotAddStaff(t *testing.T) {
	f := newFixture()
	owner := registerOwner(t, f)
	ownerScope := owner.ScopeWith([]int64{owner.ID})

	staff, err := f.svc.AddStaff(context.Background(), ownerScope, StaffInput{
		Email:    "staff@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("add staff: %v", err)
	}

	staffScope := tenant.Scope{
		UserIDs:     []int64{owner.ID, staff.ID},
		ActorUserID: staff.ID,
		OwnerUserID: owner.ID,
		BranchID:    owner.BranchID,
	}
	_, err = f.svc.AddStaff(context.Background(), staffScope, StaffInput{
		Email:    "other@shop.test",
		Password: "correct horse",
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != "FORBIDDEN" {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture()
	registerOwner(t, f)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{
		Email:    "owner@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	fresh, err := f.svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is single-use.
	if _, err := f.svc.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Error("spent refresh token accepted")
	}
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	f := newFixture()
	owner := registerOwner(t, f)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{
		Email:    "owner@shop.test",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.svc.Logout(context.Background(), owner.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Error("refresh token survived logout")
	}
}
