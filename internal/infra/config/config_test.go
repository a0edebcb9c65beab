package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORAGE_MODE", "KAFKA_BROKERS", "MIN_STAY", "TIMEZONE", "REDIS_ADDR", "RETRY_BACKOFF"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, 24*time.Hour, cfg.MinStay)
	assert.Equal(t, time.Minute, cfg.BoundaryTolerance)
	assert.Equal(t, 1, cfg.LeadDays)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_MODE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TOPIC_PREFIX", "stage.")
	t.Setenv("KAFKA_CONSUME_EVENTS", "off")
	t.Setenv("BOOKING_LEAD_DAYS", "0")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TIMEZONE", "Europe/Lisbon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMongo, cfg.StorageMode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "stage.reservation.events.v1", cfg.EventsTopic())
	assert.False(t, cfg.ConsumeEvents)
	assert.Zero(t, cfg.LeadDays)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, "Europe/Lisbon", cfg.Location.String())
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"mongo without uri": {"STORAGE_MODE": "mongo", "MONGO_URI": ""},
		"unknown storage":   {"STORAGE_MODE": "sqlite"},
		"bad duration":      {"MIN_STAY": "a day"},
		"zero min stay":     {"MIN_STAY": "0s"},
		"bad bool":          {"KAFKA_CONSUME_EVENTS": "maybe"},
		"bad zone":          {"TIMEZONE": "Mars/Olympus"},
		"negative lead":     {"BOOKING_LEAD_DAYS": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
