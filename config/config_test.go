package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"tourbook/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.App.Booking.MutationAttempts)
	assert.Equal(t, 5, cfg.App.Booking.RecentBookingLimit)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, "5432", cfg.DB.Postgres.Write.Port)
	assert.Equal(t, "booking-events", cfg.Kafka.BookingTopic)
	assert.True(t, cfg.App.EnableDocs)
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("APP_BOOKING_MUTATION_ATTEMPTS=7\nKAFKA_BROKERS=a:9092,b:9092\n"), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("APP_BOOKING_MUTATION_ATTEMPTS")
		os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := config.Load(file)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.App.Booking.MutationAttempts)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestPostgresNode_DSN(t *testing.T) {
	node := config.PostgresNode{Host: "db", Port: "5432", Username: "app", Password: "p@ss", Name: "tourbook", SSLMode: "disable"}

	dsn, err := url.Parse(node.DSN("test_", url.Values{"x-migrations-table": {"schema_migrations"}}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", dsn.Scheme)
	assert.Equal(t, "db:5432", dsn.Host)
	assert.Equal(t, "/test_tourbook", dsn.Path)

	pass, _ := dsn.User.Password()
	assert.Equal(t, "p@ss", pass)
	assert.Equal(t, "disable", dsn.Query().Get("sslmode"))
	assert.Equal(t, "schema_migrations", dsn.Query().Get("x-migrations-table"))
}
