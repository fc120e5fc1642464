// Package tenant provides first-class tenant/branch scoping.
//
// Every core operation takes an explicit Scope instead of relying on callers
// to remember to filter queries by user ids. The scope is resolved once per
// request (from auth claims) and threaded through context.
package tenant

import (
	"context"

	"kardex/internal/core/apperror"
)

// Scope identifies the slice of data a request may read and write:
// the set of user ids belonging to the tenant (owner plus employees)
// and the active branch.
type Scope struct {
	// UserIDs is the full set of user ids in the tenant. Rows are owned by
	// whichever user created them, so reads must match any of these.
	UserIDs []int64

	// ActorUserID is the user performing the request; new rows are
	// attributed to it. Must be a member of UserIDs.
	ActorUserID int64

	// OwnerUserID is the tenant owner's user id. Tenant-wide settings
	// are keyed by it. Must be a member of UserIDs.
	OwnerUserID int64

	// BranchID is the resolved active branch for the request.
	BranchID int64
}

// Validate checks scope invariants.
func (s Scope) Validate() error {
	if len(s.UserIDs) == 0 {
		return apperror.NewForbidden("tenant scope has no users")
	}
	if s.BranchID <= 0 {
		return apperror.NewForbidden("no active branch resolved")
	}
	if !s.Contains(s.ActorUserID) {
		return apperror.NewForbidden("actor is not a member of the tenant")
	}
	if !s.Contains(s.OwnerUserID) {
		return apperror.NewForbidden("owner is not a member of the tenant")
	}
	return nil
}

// Contains reports whether userID belongs to the tenant.
func (s Scope) Contains(userID int64) bool {
	for _, id := range s.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// --- Context threading ---

type scopeKey struct{}

// WithScope stores the resolved scope in context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext retrieves the scope from context.
func ScopeFromContext(ctx context.Context) (Scope, error) {
	scope, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok {
		return Scope{}, apperror.NewUnauthorized("no tenant scope in context")
	}
	return scope, nil
}
