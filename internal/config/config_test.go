package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadBookingConfig_Defaults(t *testing.T) {
	c := LoadBookingConfig()
	assert.Equal(t, 7, c.WindowDays)
	assert.Equal(t, 8, c.ComingAfter)
	assert.Equal(t, "15", c.PriceCeiling.String())
	assert.Equal(t, 2*time.Hour, c.WizardTTL)
}

func TestLoadBookingConfig_BadCeilingFallsBack(t *testing.T) {
	t.Setenv("SHOW_PRICE_CEILING", "cheap")
	t.Setenv("BOOKING_WINDOW_DAYS", "3")
	c := LoadBookingConfig()
	assert.Equal(t, "15", c.PriceCeiling.String())
	assert.Equal(t, 4, c.ComingAfter)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
}

func TestLoadQueueConfig_URLFallback(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	assert.Equal(t, "amqp://u:p@broker:5672/", LoadQueueConfig().URL)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "ON")
	assert.True(t, envBool("X_FLAG", false))
	t.Setenv("X_FLAG", "nope")
	assert.True(t, envBool("X_FLAG", true))
}
