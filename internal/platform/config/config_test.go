package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "SD", cfg.Case.Prefix)
	assert.Equal(t, 12, cfg.Case.PINHashCost)
	assert.False(t, cfg.Case.StrictTransitions)
	assert.True(t, cfg.Case.ReviewerClosedWrites)
	assert.Equal(t, int64(10<<20), cfg.Evidence.MaxFileSizeBytes())
	assert.Equal(t, 20*time.Second, cfg.Evidence.ClassifierTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.UsesDevSigningKey())
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "safedesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
case:
  strict_transitions: true
  pin_hash_cost: 10
evidence:
  classifier_timeout: 15s
  max_file_size_mb: 5
`), 0o600))
	t.Setenv("SAFEDESK_CONFIG", path)
	t.Setenv("PIN_HASH_COST", "11")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Case.StrictTransitions)
	assert.Equal(t, 11, cfg.Case.PINHashCost, "environment wins over file")
	assert.Equal(t, 15*time.Second, cfg.Evidence.ClassifierTimeout)
	assert.Equal(t, 5, cfg.Evidence.MaxFileSizeMB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CASE_PREFIX=WB\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CASE_PREFIX") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "WB", cfg.Case.Prefix)
}

func TestValidate(t *testing.T) {
	t.Run("rejects weak hash cost", func(t *testing.T) {
		cfg := Default()
		cfg.Case.PINHashCost = 2
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects prefix with separator", func(t *testing.T) {
		cfg := Default()
		cfg.Case.Prefix = "S-D"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero workers", func(t *testing.T) {
		cfg := Default()
		cfg.Evidence.Workers = 0
		assert.Error(t, cfg.Validate())
	})
}
