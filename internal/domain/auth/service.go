package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/tx"
	"kardex/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Service provides registration, login and token refresh.
type Service struct {
	users      UserRepository
	tokens     TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(users UserRepository, tokens TokenRepository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// Register creates a new owner account. The first user of an account owns
// it; staff users are added later with AddStaff.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(in.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	if in.BranchID <= 0 {
		in.BranchID = 1
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  in.DisplayName,
		BranchID:     in.BranchID,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// AddStaff adds a staff user to the caller's account. Only the account
// owner may add staff; the new user inherits the caller's branch.
func (s *Service) AddStaff(ctx context.Context, scope tenant.Scope, in StaffInput) (*User, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if scope.ActorUserID != scope.OwnerUserID {
		return nil, apperror.NewForbidden("only the account owner can add staff")
	}

	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(in.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	owner := scope.OwnerUserID
	user := &User{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  in.DisplayName,
		OwnerUserID:  &owner,
		BranchID:     scope.BranchID,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "staff user added",
		"user_id", user.ID,
		"owner_user_id", owner,
		"email", user.Email)
	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.users.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.users.Update(ctx, user)

	logger.Info(ctx, "user logged in", "user_id", user.ID, "email", user.Email)
	return tokens, user, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is revoked; each token is single-use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokens.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	_ = s.tokens.Revoke(ctx, token.ID, "refreshed")

	return s.generateTokenPair(ctx, user)
}

// Logout revokes all the user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.tokens.RevokeAllForUser(ctx, userID, "logout")
}

// GetUser retrieves a user visible to the given scope.
func (s *Service) GetUser(ctx context.Context, scope tenant.Scope, userID int64) (*User, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if !scope.Contains(userID) {
		return nil, apperror.NewNotFound("user", fmt.Sprintf("%d", userID))
	}
	return s.users.GetByID(ctx, userID)
}

// ListStaff lists all users of the caller's account.
func (s *Service) ListStaff(ctx context.Context, scope tenant.Scope) ([]User, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.users.ListByOwner(ctx, scope.OwnerUserID)
}

// ScopeFor resolves the full tenant scope of a user from the users table.
func (s *Service) ScopeFor(ctx context.Context, user *User) (tenant.Scope, error) {
	memberIDs, err := s.users.ListAccountUserIDs(ctx, user.Owner())
	if err != nil {
		return tenant.Scope{}, fmt.Errorf("list account members: %w", err)
	}
	return user.ScopeWith(memberIDs), nil
}

// generateTokenPair creates access and refresh tokens.
func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	scope, err := s.ScopeFor(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(scope)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}
	if err := s.tokens.Save(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates a SHA256 hash of a token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
