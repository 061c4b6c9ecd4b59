package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Tracer   *TracerConfig
	Auth     *AuthConfig
	Presence *PresenceConfig
	Blob     *BlobConfig
	Logger   *LoggerConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type TracerConfig struct {
	Address string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type PresenceConfig struct {
	HeartbeatInterval time.Duration
	OfflineAfter      time.Duration
	ReapInterval      time.Duration
}

type BlobConfig struct {
	MaxUploadBytes int64
}

type LoggerConfig struct {
	Level  string
	Format string
}
