package admin

import (
	"context"
	"net/mail"
	"slices"
	"strings"
)

// Accepted settings values.
var (
	Currencies = []string{"USD", "EUR", "GBP", "IDR"}
	Timezones  = []string{"UTC-8", "UTC-5", "UTC+0", "UTC+7", "UTC+9"}
	Themes     = []string{"light", "dark", "system"}
)

// Settings are the store-wide console preferences.
type Settings struct {
	StoreName           string
	StoreEmail          string
	Currency            string
	Timezone            string
	EnableNotifications bool
	InventoryAlerts     bool
	Theme               string
}

// DefaultSettings are used until an administrator saves their own.
func DefaultSettings() Settings {
	return Settings{
		StoreName:           "D'Kopi Coffee Shop",
		StoreEmail:          "contact@dkopi.com",
		Currency:            "USD",
		Timezone:            "UTC+7",
		EnableNotifications: true,
		InventoryAlerts:     true,
		Theme:               "light",
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	switch {
	case strings.TrimSpace(s.StoreName) == "":
		return &ValidationError{Field: "storeName", Reason: "required"}
	case !slices.Contains(Currencies, s.Currency):
		return &ValidationError{Field: "currency", Reason: "unsupported currency " + s.Currency}
	case !slices.Contains(Timezones, s.Timezone):
		return &ValidationError{Field: "timezone", Reason: "unsupported timezone " + s.Timezone}
	case !slices.Contains(Themes, s.Theme):
		return &ValidationError{Field: "theme", Reason: "unsupported theme " + s.Theme}
	}
	if _, err := mail.ParseAddress(s.StoreEmail); err != nil {
		return &ValidationError{Field: "storeEmail", Reason: "invalid address"}
	}
	return nil
}

// SettingsRepository loads and saves the store settings.
type SettingsRepository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
