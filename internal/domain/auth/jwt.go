package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kardex/internal/core/tenant"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "kardex",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims is the access token payload. The whole tenant scope rides in the
// token so request handling needs no user lookup.
type Claims struct {
	UserID      int64   `json:"user_id"`
	OwnerUserID int64   `json:"owner_user_id"`
	UserIDs     []int64 `json:"user_ids"`
	BranchID    int64   `json:"branch_id"`
	jwt.RegisteredClaims
}

// JWTService issues access tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken signs a token carrying the given scope.
func (s *JWTService) GenerateAccessToken(scope tenant.Scope) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		UserID:      scope.ActorUserID,
		OwnerUserID: scope.OwnerUserID,
		UserIDs:     scope.UserIDs,
		BranchID:    scope.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(scope.ActorUserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}
