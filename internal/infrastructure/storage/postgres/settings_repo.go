package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kardex/internal/core/apperror"
	"kardex/internal/domain/settings"
)

// SettingsRepo implements settings.Repository. One row per tenant owner.
type SettingsRepo struct {
	txManager *TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

func (r *SettingsRepo) GetByOwner(ctx context.Context, ownerUserID int64) (settings.Settings, error) {
	sql := `
		SELECT owner_user_id, low_stock_threshold, expiry_warning_days,
		       uses_expiry_tracking, auto_backup, email_notifications
		FROM system_settings
		WHERE owner_user_id = $1
	`

	var s settings.Settings
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, ownerUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Settings{}, apperror.NewNotFound("settings", ownerUserID)
		}
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s settings.Settings) error {
	sql := `
		INSERT INTO system_settings (
			owner_user_id, low_stock_threshold, expiry_warning_days,
			uses_expiry_tracking, auto_backup, email_notifications
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_user_id) DO UPDATE SET
			low_stock_threshold  = EXCLUDED.low_stock_threshold,
			expiry_warning_days  = EXCLUDED.expiry_warning_days,
			uses_expiry_tracking = EXCLUDED.uses_expiry_tracking,
			auto_backup          = EXCLUDED.auto_backup,
			email_notifications  = EXCLUDED.email_notifications,
			updated_at           = now()
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		s.OwnerUserID, s.LowStockThreshold, s.ExpiryWarningDays,
		s.UsesExpiryTracking, s.AutoBackup, s.EmailNotifications,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

var _ settings.Repository = (*SettingsRepo)(nil)
