package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultDBFile  = "green_city.db"
	deployedDBFile = "/tmp/green_city.db"
	devJWTSecret   = "green-city-dev-secret"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	DBDriver       string // sqlite or mysql
	DBPath         string // sqlite database file
	DBUser         string // mysql user
	DBPass         string // mysql password (optional)
	DBHost         string // mysql host
	DBPort         string // mysql port
	DBName         string // mysql schema
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	LogLevel       string
	LogFormat      string
	SeedDemoData   bool // load the bundled cities, accounts and zones into an empty database
}

// Load reads configuration values from environment variables and returns a
// Config. Only settings without a usable default are enforced by must();
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", envStr("PORT", "5000")),
		DBDriver:       envStr("DB_DRIVER", DriverSQLite),
		DBPath:         databasePath(),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 14),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "text"),
		SeedDemoData:   envBool("SEED_DEMO_DATA", true),
	}

	if cfg.DBDriver == DriverMySQL {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	} else if cfg.DBDriver != DriverSQLite {
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}

	cfg.JWTSecret = jwtSecret(cfg.Env)
	return cfg
}

// databasePath picks the sqlite file. Hosted deployments (RENDER set) only
// have /tmp writable.
func databasePath() string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	if os.Getenv("RENDER") != "" {
		return deployedDBFile
	}
	return defaultDBFile
}

// jwtSecret reads JWT_SECRET (or SECRET_KEY). Outside of dev/test a secret is
// mandatory.
func jwtSecret(env string) string {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		return v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		return v
	}
	if env == "dev" || env == "test" {
		return devJWTSecret
	}
	return must("JWT_SECRET")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
