package models

// MConfig Structure
type MConfig struct {
	Name       string           `yaml:"name"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	LogLevel   string           `yaml:"log_level"`
	Version    string           `yaml:"version"`
	SyncSecret string           `yaml:"sync_secret"` // overridden by SYNC_SECRET env var
	Stream     MStreamConfig    `yaml:"stream"`
	RateLimit  MRateLimitConfig `yaml:"rate_limit"`
	Retention  MRetentionConfig `yaml:"retention"`
	Analytics  MAnalyticsConfig `yaml:"analytics"`
	Producer   MProducerConfig  `yaml:"producer"`
}

type MStreamConfig struct {
	TickSeconds int `yaml:"tick_seconds"`
}

type MRateLimitConfig struct {
	WindowMinutes int `yaml:"window_minutes"`
	MaxRequests   int `yaml:"max_requests"`
}

// MRetentionConfig caps how many elements of each sequence the hub keeps
// per sync. Anything beyond the cap is trimmed oldest-first on ingest.
type MRetentionConfig struct {
	History     int `yaml:"history"`
	Transitions int `yaml:"transitions"`
	Trades      int `yaml:"trades"`
	Reports     int `yaml:"reports"`
}

type MAnalyticsConfig struct {
	ActiveStates []string `yaml:"active_states"`
}

// MProducerConfig drives the sync agent (cmd/syncagent) and the pocket
// client (cmd/pocket). The hub itself only reads SyncSecret above.
type MProducerConfig struct {
	HubURL           string  `yaml:"hub_url"`
	DBPath           string  `yaml:"db_path"`
	DryRun           bool    `yaml:"dry_run"`
	InitialCapital   float64 `yaml:"initial_capital"`
	HistoryLimit     int     `yaml:"history_limit"`
	TradesLimit      int     `yaml:"trades_limit"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	CachePath        string  `yaml:"cache_path"`
	TelegramBotToken string  `yaml:"telegram_bot_token"`
	TelegramChatID   string  `yaml:"telegram_chat_id"`
}
