// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/domain/selector"
)

// TicketsPlaceholder must appear in PresaleMessageTemplate.
const TicketsPlaceholder = selector.TicketsPlaceholder

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// FixturePath points at the membership level fixture loaded at startup.
	FixturePath string `koanf:"fixture_path"`

	// AutoRenewalDiscount is a USD amount subtracted from the price for
	// auto-renewing members. "0" disables it.
	AutoRenewalDiscount string `koanf:"auto_renewal_discount"`

	// PresaleMessageTemplate is shown when cardholders+guests < tickets.
	PresaleMessageTemplate string `koanf:"presale_message_template"`

	// MaxCardholders and MaxGuests bound the selector inputs.
	MaxCardholders int `koanf:"max_cardholders"`
	MaxGuests      int `koanf:"max_guests"`

	// MatrixWorkers bounds concurrent rows in the matrix builder.
	MatrixWorkers int `koanf:"matrix_workers"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		FixturePath:            "testdata/membership_levels.json",
		AutoRenewalDiscount:    "0",
		PresaleMessageTemplate: selector.DefaultPresaleTemplate,
		MaxCardholders:         selector.DefaultMaxCardholders,
		MaxGuests:              selector.DefaultMaxGuests,
		MatrixWorkers:          runtime.NumCPU(),
	}
}

// Discount returns the parsed auto-renewal discount. Call Validate first;
// an unparsable value yields zero.
func (c *Config) Discount() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.AutoRenewalDiscount))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Validate checks the config for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.FixturePath == "" {
		return fmt.Errorf("%w: fixture_path must not be empty", ErrInvalidConfig)
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(c.AutoRenewalDiscount)); err != nil {
		return fmt.Errorf("%w: auto_renewal_discount %q: %v", ErrInvalidConfig, c.AutoRenewalDiscount, err)
	}
	if !strings.Contains(c.PresaleMessageTemplate, TicketsPlaceholder) {
		return fmt.Errorf("%w: presale_message_template must contain %s", ErrInvalidConfig, TicketsPlaceholder)
	}
	if c.MaxCardholders < 1 || c.MaxGuests < 1 {
		return fmt.Errorf("%w: max_cardholders and max_guests must be positive", ErrInvalidConfig)
	}
	if c.MatrixWorkers < 1 {
		return fmt.Errorf("%w: matrix_workers must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
