// Package config loads tweetdash settings from an optional YAML file and
// TWEETDASH_* environment variables.
package config

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Config is the root configuration.
type Config struct {
	Content  ContentConfig  `yaml:"content"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ContentConfig points at the content/generation service.
type ContentConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"TWEETDASH_CONTENT_URL"     env-default:"http://localhost:5000" validate:"required,url"`
	AuthHeader     string        `yaml:"auth_header"     env:"TWEETDASH_AUTH_HEADER"`
	Cookie         string        `yaml:"cookie"          env:"TWEETDASH_COOKIE"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TWEETDASH_REQUEST_TIMEOUT" env-default:"30s"                   validate:"gt=0"`
}

// RealtimeConfig configures the push channel. An empty URL disables it.
type RealtimeConfig struct {
	URL             string        `yaml:"url"              env:"TWEETDASH_REALTIME_URL"               validate:"omitempty,url"`
	MaxReconnectGap time.Duration `yaml:"max_reconnect_gap" env:"TWEETDASH_REALTIME_MAX_BACKOFF" env-default:"30s" validate:"gt=0"`
}

// SessionConfig holds per-dashboard-session behaviour.
type SessionConfig struct {
	Role              string        `yaml:"role"               env:"TWEETDASH_ROLE"               env-default:"user"   validate:"oneof=admin user"`
	Actor             string        `yaml:"actor"              env:"TWEETDASH_ACTOR"              env-default:"you"    validate:"max=64"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"   env:"TWEETDASH_REFRESH_INTERVAL"   env-default:"15s"    validate:"gt=0"`
	HealthInterval    time.Duration `yaml:"health_interval"    env:"TWEETDASH_HEALTH_INTERVAL"    env-default:"30s"    validate:"gt=0"`
	NotificationTTL   time.Duration `yaml:"notification_ttl"   env:"TWEETDASH_NOTIFICATION_TTL"   env-default:"5s"     validate:"gt=0"`
	HighlightDuration time.Duration `yaml:"highlight_duration" env:"TWEETDASH_HIGHLIGHT_DURATION" env-default:"2s"     validate:"gt=0"`
}

// ServerConfig configures the local dashboard host.
type ServerConfig struct {
	Port           int    `yaml:"port"             env:"TWEETDASH_PORT"             env-default:"8090" validate:"min=1,max=65535"`
	UseTLS         bool   `yaml:"use_tls"          env:"TWEETDASH_USE_TLS"`
	TLSCert        string `yaml:"tls_cert"         env:"TWEETDASH_TLS_CERT"`
	TLSKey         string `yaml:"tls_key"          env:"TWEETDASH_TLS_KEY"`
	AllowIFrame    bool   `yaml:"allow_iframe"     env:"TWEETDASH_ALLOW_IFRAME"`
	RatePerMinute  int    `yaml:"rate_per_minute"  env:"TWEETDASH_RATE_PER_MINUTE"  env-default:"60" validate:"min=1"`
	RateBurst      int    `yaml:"rate_burst"       env:"TWEETDASH_RATE_BURST"       env-default:"10" validate:"min=1"`
}

// LogConfig configures the logger.
type LogConfig struct {
	File  string `yaml:"file"  env:"TWEETDASH_LOG_FILE"`
	Level string `yaml:"level" env:"TWEETDASH_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
}

// IsAdmin reports whether the session runs with the admin role.
func (c *Config) IsAdmin() bool {
	return c != nil && c.Session.Role == RoleAdmin
}
