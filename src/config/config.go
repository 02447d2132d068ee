package config

import (
	"fmt"
	"os"

	"cce-cloud/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Default bounds applied when the YAML leaves them unset.
const (
	DefaultStreamTickSeconds = 5
	DefaultRateWindowMinutes = 15
	DefaultRateMaxRequests   = 100

	DefaultHistoryRetention     = 100
	DefaultTransitionsRetention = 10
	DefaultTradesRetention      = 20
	DefaultReportsRetention     = 30
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file.
// The SYNC_SECRET environment variable, when set, overrides the YAML value
// so the secret never has to live in a checked-in file.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment override for the shared secret
	if secret := os.Getenv("SYNC_SECRET"); secret != "" {
		config.SyncSecret = secret
	}

	// 4. Fill defaults, then validate
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Stream.TickSeconds <= 0 {
		c.Stream.TickSeconds = DefaultStreamTickSeconds
	}
	if c.RateLimit.WindowMinutes <= 0 {
		c.RateLimit.WindowMinutes = DefaultRateWindowMinutes
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = DefaultRateMaxRequests
	}
	if c.Retention.History <= 0 {
		c.Retention.History = DefaultHistoryRetention
	}
	if c.Retention.Transitions <= 0 {
		c.Retention.Transitions = DefaultTransitionsRetention
	}
	if c.Retention.Trades <= 0 {
		c.Retention.Trades = DefaultTradesRetention
	}
	if c.Retention.Reports <= 0 {
		c.Retention.Reports = DefaultReportsRetention
	}
	if c.Producer.HistoryLimit <= 0 {
		c.Producer.HistoryLimit = DefaultHistoryRetention
	}
	if c.Producer.TradesLimit <= 0 {
		c.Producer.TradesLimit = DefaultTradesRetention
	}
	if c.Producer.TimeoutSeconds <= 0 {
		c.Producer.TimeoutSeconds = 30
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// A missing sync secret is NOT fatal here: the hub must still serve its
	// read-only surface. The ingestion path answers 500 until it is set.

	if c.Stream.TickSeconds <= 0 {
		return fmt.Errorf("stream tick must be greater than 0")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate limit ceiling must be greater than 0")
	}
	if c.Retention.History <= 0 || c.Retention.Trades <= 0 {
		return fmt.Errorf("retention caps must be greater than 0")
	}

	// Producer section is only required by the sync agent; validated there.

	return nil
}

// -----------------------------------------------------------------------------

// ValidateProducer checks the fields the sync agent cannot run without.
func (c *Config) ValidateProducer() error {
	if c.Producer.HubURL == "" {
		return fmt.Errorf("producer hub_url cannot be empty")
	}
	if c.Producer.DBPath == "" {
		return fmt.Errorf("producer db_path cannot be empty")
	}
	if c.SyncSecret == "" {
		return fmt.Errorf("sync secret not configured (set SYNC_SECRET or sync_secret)")
	}
	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
