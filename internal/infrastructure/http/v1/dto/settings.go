package dto

import "kardex/internal/domain/settings"

// UpdateSettingsRequest replaces the tenant's settings.
type UpdateSettingsRequest struct {
	LowStockThreshold  int  `json:"lowStockThreshold"`
	ExpiryWarningDays  int  `json:"expiryWarningDays"`
	UsesExpiryTracking bool `json:"usesExpiryTracking"`
	AutoBackup         bool `json:"autoBackup"`
	EmailNotifications bool `json:"emailNotifications"`
}

// ToInput converts the request to a service input.
func (r UpdateSettingsRequest) ToInput() settings.UpdateInput {
	return settings.UpdateInput{
		LowStockThreshold:  r.LowStockThreshold,
		ExpiryWarningDays:  r.ExpiryWarningDays,
		UsesExpiryTracking: r.UsesExpiryTracking,
		AutoBackup:         r.AutoBackup,
		EmailNotifications: r.EmailNotifications,
	}
}
