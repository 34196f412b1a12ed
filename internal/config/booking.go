package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingConfig holds the knobs of the booking wizard and show scheduling.
type BookingConfig struct {
	WindowDays   int             // days after today a program stays bookable
	ComingAfter  int             // first day offset counted as "coming soon"
	PriceCeiling decimal.Decimal // highest accepted show price
	WizardTTL    time.Duration   // idle lifetime of a wizard session
	WizardPrefix string          // Redis key prefix for wizard sessions
}

// LoadBookingConfig reads BOOKING_* and WIZARD_* variables.
func LoadBookingConfig() BookingConfig {
	ceiling, err := decimal.NewFromString(envStr("SHOW_PRICE_CEILING", "15.00"))
	if err != nil {
		ceiling = decimal.NewFromInt(15)
	}
	window := envInt("BOOKING_WINDOW_DAYS", 7)
	return BookingConfig{
		WindowDays:   window,
		ComingAfter:  envInt("BOOKING_COMING_AFTER_DAYS", window+1),
		PriceCeiling: ceiling,
		WizardTTL:    envDur("WIZARD_TTL", 2*time.Hour),
		WizardPrefix: envStr("WIZARD_PREFIX", "wizard"),
	}
}
