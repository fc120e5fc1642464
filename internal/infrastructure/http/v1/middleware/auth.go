package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kardex/internal/core/apperror"
	"kardex/internal/core/tenant"
)

// Claims is the JWT payload the auth backend issues. The tenant scope is
// carried in the token so no user lookup is needed per request: the owner,
// the full member list and the actor are all claims.
type Claims struct {
	UserID      int64   `json:"user_id"`
	OwnerUserID int64   `json:"owner_user_id"`
	UserIDs     []int64 `json:"user_ids"`
	BranchID    int64   `json:"branch_id"`
	jwt.RegisteredClaims
}

// TokenValidator validates bearer tokens and produces the tenant scope.
type TokenValidator interface {
	Validate(tokenString string) (tenant.Scope, error)
}

// JWTValidator validates HMAC-signed tokens.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator for the given signing secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// Validate parses and verifies the token, returning the embedded scope.
func (v *JWTValidator) Validate(tokenString string) (tenant.Scope, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return tenant.Scope{}, apperror.NewUnauthorized("invalid token")
	}

	scope := tenant.Scope{
		UserIDs:     claims.UserIDs,
		ActorUserID: claims.UserID,
		OwnerUserID: claims.OwnerUserID,
		BranchID:    claims.BranchID,
	}
	// Older tokens carry only the actor id.
	if len(scope.UserIDs) == 0 {
		scope.UserIDs = []int64{scope.ActorUserID}
	}
	if scope.OwnerUserID == 0 {
		scope.OwnerUserID = scope.ActorUserID
	}

	if err := scope.Validate(); err != nil {
		return tenant.Scope{}, apperror.NewUnauthorized("token carries no valid tenant scope")
	}
	return scope, nil
}

// Auth middleware validates bearer tokens and threads the tenant scope
// through the request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		scope, err := validator.Validate(parts[1])
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := tenant.WithScope(c.Request.Context(), scope)
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("user_id", scope.ActorUserID)
		c.Set("branch_id", scope.BranchID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
