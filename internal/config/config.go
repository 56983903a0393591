package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	RedisAddr    string `mapstructure:"redis_addr" yaml:"redis_addr"`

	// BaseURL is the public base used to build absolute avatar URLs.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	PresenceTTL  time.Duration `mapstructure:"presence_ttl" yaml:"presence_ttl"`
	HistoryLimit int           `mapstructure:"history_limit" yaml:"history_limit"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "pairchat.db",
		RedisAddr:         "127.0.0.1:6379",
		BaseURL:           "http://localhost:8080",
		PresenceTTL:       60 * time.Second,
		HistoryLimit:      50,
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "pairchat",
		JWTAudience:       "pairchat-clients",
		LogLevel:          "info",
	}
}
