package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// RedisConfig holds the pub/sub connection used by the live change listener.
type RedisConfig struct {
	Addr          string `yaml:"addr"           env:"REDIS_ADDR"           env-default:"localhost:6379"`
	Password      string `yaml:"password"       env:"REDIS_PASSWORD"`
	DB            int    `yaml:"db"             env:"REDIS_DB"             env-default:"0"`
	ChannelPrefix string `yaml:"channel_prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"feeds:"`
}

// NotificationsConfig holds the notification engine's operational knobs.
//
// The recovery window and TTL defaults are empirical constants inherited
// from production; they are configuration, not law. The window must cover
// the longest plausible listener outage, since a dropped live event is only
// recoverable while its transaction is still inside the window.
type NotificationsConfig struct {
	RecoveryWindow   time.Duration `yaml:"recovery_window"   env:"NOTIFY_RECOVERY_WINDOW"   env-default:"2h"`
	TTL              time.Duration `yaml:"ttl"               env:"NOTIFY_TTL"               env-default:"24h"`
	HandledRetention time.Duration `yaml:"handled_retention" env:"NOTIFY_HANDLED_RETENTION" env-default:"1h"`
	TickInterval     time.Duration `yaml:"tick_interval"     env:"NOTIFY_TICK_INTERVAL"     env-default:"60m"`
	SessionRetention time.Duration `yaml:"session_retention" env:"NOTIFY_SESSION_RETENTION" env-default:"168h"`
	PendingListLimit int           `yaml:"pending_list_limit" env:"NOTIFY_PENDING_LIST_LIMIT" env-default:"200"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
