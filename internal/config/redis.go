package config

// Redis backs the session store, the geocoding response cache and the rate
// limiter. If it cannot be reached at startup, NewRedisClient returns nil and
// callers degrade: sessions move in-process, caching and rate limiting are
// skipped.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
	Disabled bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or REDIS_ADDR), REDIS_PASSWORD,
// REDIS_DB, REDIS_TLS and REDIS_DISABLED.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
		Disabled: envBool("REDIS_DISABLED", false),
	}
}

// NewRedisClient connects and pings with a short timeout. The returned client
// is nil when Redis is disabled or unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Disabled {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
