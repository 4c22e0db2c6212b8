// Package settings provides app-wide key-value configuration: tax defaults,
// estimate expiry, and document number formats. Values are stored as strings
// and parsed here into their domain types.
package settings

import (
	"context"
	"strconv"
	"strings"

	"fieldops_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// Well-known setting keys.
const (
	KeyDefaultTaxRate   = "default_tax_rate"
	KeyOrgTaxMultiplier = "org_tax_multiplier"
	KeyEstExpireDays    = "est_expire_days"
)

// NumberFormatKey returns the setting key holding the number pattern for a
// document type, e.g. "number_format_job".
func NumberFormatKey(docType string) string {
	return "number_format_" + docType
}

// DefaultEstExpireDays is used when est_expire_days is absent or malformed.
const DefaultEstExpireDays = 30

// Store is the read interface other modules consume.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// Service provides typed access to app settings.
type Service struct {
	repo *Repository
}

// NewService creates a new settings service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the raw value for a key.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, key)
}

// Set validates and stores a setting value.
func (s *Service) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Validation("setting key is required")
	}
	switch key {
	case KeyDefaultTaxRate, KeyOrgTaxMultiplier:
		if _, err := decimal.NewFromString(value); err != nil {
			return apperr.Validationf("%s must be a decimal value", key)
		}
	case KeyEstExpireDays:
		if _, err := strconv.Atoi(value); err != nil {
			return apperr.Validationf("%s must be an integer", key)
		}
	}
	return s.repo.Set(ctx, key, value)
}

// List returns all settings.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

// DefaultTaxRate returns the configured default tax rate as a percentage
// (8.25 means 8.25%). Missing or malformed values yield zero.
func (s *Service) DefaultTaxRate(ctx context.Context) decimal.Decimal {
	raw, err := s.repo.Get(ctx, KeyDefaultTaxRate)
	if err != nil {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// OrgTaxMultiplier returns the organization-level tax multiplier, or nil when
// not configured.
func (s *Service) OrgTaxMultiplier(ctx context.Context) *decimal.Decimal {
	raw, err := s.repo.Get(ctx, KeyOrgTaxMultiplier)
	if err != nil {
		return nil
	}
	mult, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &mult
}

// EstExpireDays returns how many days an open estimate stays valid.
func (s *Service) EstExpireDays(ctx context.Context) int {
	raw, err := s.repo.Get(ctx, KeyEstExpireDays)
	if err != nil {
		return DefaultEstExpireDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days <= 0 {
		return DefaultEstExpireDays
	}
	return days
}

// NumberFormat returns the configured number pattern for a document type.
// An empty string means no pattern is configured and the caller should fall
// back to its default.
func (s *Service) NumberFormat(ctx context.Context, docType string) string {
	raw, err := s.repo.Get(ctx, NumberFormatKey(docType))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(raw)
}
