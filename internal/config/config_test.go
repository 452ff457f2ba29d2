package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.Redis.RulesTTL)
	assert.Equal(t, 3, cfg.Checkout.StatusRetry)
	assert.Equal(t, "internal/repository/migrations", cfg.Credentials().MigrationsDirPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delivery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
redis:
  rules_ttl: 30s
kafka:
  topic: from-file
outbox:
  interval: 250ms
`), 0o600))

	t.Setenv("DELIVERY_KAFKA_TOPIC", "from-env")
	t.Setenv("DELIVERY_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DELIVERY_CHECKOUT_STATUS_RETRY", "5")

	cfg, err := Load(viper.New(), path)

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Redis.RulesTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.Interval)
	assert.Equal(t, "from-env", cfg.Kafka.Topic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Checkout.StatusRetry)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DELIVERY_HTTP_PORT", "70000")
	t.Setenv("DELIVERY_CHECKOUT_STATUS_RETRY", "-1")

	_, err := Load(viper.New(), "")

	require.Error(t, err)
	assert.ErrorContains(t, err, "http.port 70000 out of range")
	assert.ErrorContains(t, err, "status_retry")
}
