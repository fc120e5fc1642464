// Package settings holds per-tenant operational settings. One row per
// tenant owner; defaults apply until the owner saves anything.
package settings

import (
	"context"

	"kardex/internal/core/apperror"
	"kardex/internal/core/tenant"
	"kardex/pkg/logger"
)

// Settings are tenant-wide knobs read by the ledger and reporting layers.
type Settings struct {
	OwnerUserID        int64 `db:"owner_user_id" json:"-"`
	LowStockThreshold  int   `db:"low_stock_threshold" json:"lowStockThreshold"`
	ExpiryWarningDays  int   `db:"expiry_warning_days" json:"expiryWarningDays"`
	UsesExpiryTracking bool  `db:"uses_expiry_tracking" json:"usesExpiryTracking"`
	AutoBackup         bool  `db:"auto_backup" json:"autoBackup"`
	EmailNotifications bool  `db:"email_notifications" json:"emailNotifications"`
}

// Defaults returns the settings a tenant has before saving anything.
func Defaults(ownerUserID int64) Settings {
	return Settings{
		OwnerUserID:        ownerUserID,
		LowStockThreshold:  10,
		ExpiryWarningDays:  90,
		UsesExpiryTracking: true,
		AutoBackup:         false,
		EmailNotifications: true,
	}
}

// Repository persists per-owner settings.
type Repository interface {
	// GetByOwner returns the owner's settings, or NotFound when the
	// owner never saved any.
	GetByOwner(ctx context.Context, ownerUserID int64) (Settings, error)

	// Upsert inserts or replaces the owner's settings row.
	Upsert(ctx context.Context, s Settings) error
}

// Service exposes settings reads and updates.
type Service struct {
	repo Repository
}

// NewService creates a settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the tenant's settings, falling back to defaults.
func (s *Service) Get(ctx context.Context, scope tenant.Scope) (Settings, error) {
	if err := scope.Validate(); err != nil {
		return Settings{}, err
	}
	stored, err := s.repo.GetByOwner(ctx, scope.OwnerUserID)
	if apperror.IsNotFound(err) {
		return Defaults(scope.OwnerUserID), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return stored, nil
}

// UpdateInput carries a settings update. All fields are required; the
// HTTP layer validates ranges before building it.
type UpdateInput struct {
	LowStockThreshold  int
	ExpiryWarningDays  int
	UsesExpiryTracking bool
	AutoBackup         bool
	EmailNotifications bool
}

// Update replaces the tenant's settings. Only the owner may update.
func (s *Service) Update(ctx context.Context, scope tenant.Scope, in UpdateInput) (Settings, error) {
	if err := scope.Validate(); err != nil {
		return Settings{}, err
	}
	if scope.ActorUserID != scope.OwnerUserID {
		return Settings{}, apperror.NewForbidden("Only business owners can update system settings")
	}
	if in.LowStockThreshold < 0 || in.LowStockThreshold > 1_000_000 {
		return Settings{}, apperror.NewValidation("low stock threshold out of range")
	}
	if in.ExpiryWarningDays < 0 || in.ExpiryWarningDays > 10_000 {
		return Settings{}, apperror.NewValidation("expiry warning days out of range")
	}

	updated := Settings{
		OwnerUserID:        scope.OwnerUserID,
		LowStockThreshold:  in.LowStockThreshold,
		ExpiryWarningDays:  in.ExpiryWarningDays,
		UsesExpiryTracking: in.UsesExpiryTracking,
		AutoBackup:         in.AutoBackup,
		EmailNotifications: in.EmailNotifications,
	}
	if err := s.repo.Upsert(ctx, updated); err != nil {
		return Settings{}, err
	}

	logger.Info(ctx, "updated tenant settings", "owner_user_id", scope.OwnerUserID)
	return updated, nil
}

// UsesExpiryTracking implements the ledger's settings collaborator.
func (s *Service) UsesExpiryTracking(ctx context.Context, scope tenant.Scope) (bool, error) {
	stored, err := s.Get(ctx, scope)
	if err != nil {
		return false, err
	}
	return stored.UsesExpiryTracking, nil
}
