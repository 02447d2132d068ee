package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

const minimalYAML = `
name: "CCE Cloud"
host: "0.0.0.0"
port: 8080
log_level: "INFO"
version: "2.0.0"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfig_AppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, DefaultStreamTickSeconds, cfg.Stream.TickSeconds)
	assert.Equal(t, DefaultRateWindowMinutes, cfg.RateLimit.WindowMinutes)
	assert.Equal(t, DefaultRateMaxRequests, cfg.RateLimit.MaxRequests)
	assert.Equal(t, DefaultHistoryRetention, cfg.Retention.History)
	assert.Equal(t, DefaultTransitionsRetention, cfg.Retention.Transitions)
	assert.Equal(t, DefaultTradesRetention, cfg.Retention.Trades)
	assert.Equal(t, DefaultReportsRetention, cfg.Retention.Reports)
}

// -----------------------------------------------------------------------------

func TestNewConfig_EnvOverridesSecret(t *testing.T) {
	t.Setenv("SYNC_SECRET", "from-env")

	cfg, err := NewConfig(writeConfig(t, minimalYAML+`sync_secret: "from-yaml"`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SyncSecret)
}

func TestNewConfig_MissingSecretIsNotFatal(t *testing.T) {
	t.Setenv("SYNC_SECRET", "")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Empty(t, cfg.SyncSecret)

	// The sync agent does need it
	cfg.Producer.HubURL = "http://127.0.0.1:8080"
	cfg.Producer.DBPath = "some.db"
	assert.Error(t, cfg.ValidateProducer())
}

// -----------------------------------------------------------------------------

func TestNewConfig_InvalidPort(t *testing.T) {
	_, err := NewConfig(writeConfig(t, `
name: "CCE Cloud"
host: "0.0.0.0"
port: 80
`))
	assert.ErrorContains(t, err, "port")
}

func TestNewConfig_MissingName(t *testing.T) {
	_, err := NewConfig(writeConfig(t, `
host: "0.0.0.0"
port: 8080
`))
	assert.ErrorContains(t, err, "name")
}

func TestNewConfig_FileMissing(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewConfig_MalformedYAML(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "name: [unclosed"))
	assert.ErrorContains(t, err, "parse")
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, reloaded.Name)
	assert.Equal(t, cfg.Retention, reloaded.Retention)
}
