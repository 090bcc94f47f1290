package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// MaxMessageBytes caps a single WebSocket frame.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	// MessageRateLimit caps inbound envelopes per connection per
	// minute. Zero disables the limit.
	MessageRateLimit int `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`

	// CallRequestTimeout bounds how long an unanswered call rings
	// before it is auto-rejected.
	CallRequestTimeout time.Duration `mapstructure:"call_request_timeout" yaml:"call_request_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "studysync.db",
		JWTSecret:          "dev-secret-change-me",
		JWTIssuer:          "studysync",
		JWTAudience:        "studysync-clients",
		MaxMessageBytes:    1 << 20,
		MessageRateLimit:   0,
		CallRequestTimeout: 30 * time.Second,
	}
}
