package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, k := range []string{"APP_ENV", "APP_PORT", "PORT", "DB_DRIVER", "DB_PATH", "RENDER", "JWT_SECRET", "SECRET_KEY", "SEED_DEMO_DATA"} {
			t.Setenv(k, "")
		}
		cfg := Load()
		assert.Equal(t, "dev", cfg.Env)
		assert.Equal(t, "5000", cfg.Port)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Equal(t, defaultDBFile, cfg.DBPath)
		assert.Equal(t, devJWTSecret, cfg.JWTSecret)
		assert.True(t, cfg.SeedDemoData)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("APP_PORT", "")
		t.Setenv("PORT", "8080")
		t.Setenv("DB_DRIVER", "")
		t.Setenv("DB_PATH", "")
		t.Setenv("RENDER", "1")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("SECRET_KEY", "from-secret-key")
		t.Setenv("BCRYPT_COST", "not-a-number")
		cfg := Load()
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, deployedDBFile, cfg.DBPath)
		assert.Equal(t, "from-secret-key", cfg.JWTSecret)
		assert.Equal(t, 10, cfg.BcryptCost)
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_FLOAT", "bad")
	assert.False(t, envBool("X_BOOL", true))
	assert.True(t, envBool("X_MISSING", true))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, 1.5, envFloat("X_FLOAT", 1.5))
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 24*time.Hour, cfg.TTL)
}

func TestRateLimitNormalize(t *testing.T) {
	cfg := RateLimitConfig{Capacity: 0, RefillTokens: -1, RefillInterval: 0, TTL: time.Second}.normalize()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 5*time.Second, cfg.TTL)
}

func TestNewRedisClientDisabled(t *testing.T) {
	assert.Nil(t, NewRedisClient(RedisConfig{Disabled: true}))
}

func TestLoadMapConfig(t *testing.T) {
	t.Setenv("MAP_DEFAULT_ZOOM", "")
	t.Setenv("MAP_ZONE_ZOOM", "14")
	cfg := LoadMapConfig()
	assert.Equal(t, 5, cfg.DefaultZoom)
	assert.Equal(t, 14, cfg.ZoneZoom)
	assert.Equal(t, 55.7558, cfg.DefaultLat)
}
