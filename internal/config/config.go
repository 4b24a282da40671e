package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SettingsBackendMemory   = "memory"
	SettingsBackendDynamoDB = "dynamodb"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	AppEnv        string

	// DevAdminProvisioning is only true when requested AND AppEnv is development.
	DevAdminProvisioning bool

	RoleCheckTimeout time.Duration
	GuardMemoTTL     time.Duration
	TokenTTL         time.Duration
	CacheTTL         time.Duration
	CartTTL          time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SettingsBackend  string
	SettingsTable    string
	AWSRegion        string
	DynamoDBEndpoint string

	AuthRateRPS   int
	AuthRateBurst int

	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DevAdminProvisioning {
		log.Printf("[config] WARNING: missing profiles will be provisioned as admin (APP_ENV=%s)", cfg.AppEnv)
	}
	return cfg
}

// Parse builds a Config from a lookup function such as os.Getenv.
func Parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:            getenv("DB_DSN"),
		ServerPort:       getenv("SERVER_PORT"),
		SessionSecret:    getenv("SESSION_SECRET"),
		AppEnv:           getenv("APP_ENV"),
		RedisAddr:        getenv("REDIS_ADDR"),
		RedisPassword:    getenv("REDIS_PASSWORD"),
		SettingsBackend:  getenv("SETTINGS_BACKEND"),
		SettingsTable:    getenv("SETTINGS_TABLE"),
		AWSRegion:        getenv("AWS_REGION"),
		DynamoDBEndpoint: getenv("DYNAMODB_ENDPOINT"),
		AdminEmail:       getenv("ADMIN_EMAIL"),
		AdminPassword:    getenv("ADMIN_PASSWORD"),
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = EnvProduction
	}
	if cfg.SettingsBackend == "" {
		cfg.SettingsBackend = SettingsBackendMemory
	}
	if cfg.SettingsBackend != SettingsBackendMemory && cfg.SettingsBackend != SettingsBackendDynamoDB {
		return nil, fmt.Errorf("SETTINGS_BACKEND must be %q or %q, got %q",
			SettingsBackendMemory, SettingsBackendDynamoDB, cfg.SettingsBackend)
	}
	if cfg.SettingsTable == "" {
		cfg.SettingsTable = "app_settings"
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@cropcatch.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "Admin123!"
	}

	provisioning, err := parseBool(getenv, "DEV_ADMIN_PROVISIONING", false)
	if err != nil {
		return nil, err
	}
	// never in production, whatever the flag says
	cfg.DevAdminProvisioning = provisioning && cfg.IsDevelopment()

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"ROLE_CHECK_TIMEOUT", 8 * time.Second, &cfg.RoleCheckTimeout},
		{"GUARD_MEMO_TTL", time.Minute, &cfg.GuardMemoTTL},
		{"TOKEN_TTL", 24 * time.Hour, &cfg.TokenTTL},
		{"CACHE_TTL", 30 * time.Second, &cfg.CacheTTL},
		{"CART_TTL", 7 * 24 * time.Hour, &cfg.CartTTL},
	}
	for _, d := range durations {
		v, err := parseDuration(getenv, d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"AUTH_RATE_RPS", 5, &cfg.AuthRateRPS},
		{"AUTH_RATE_BURST", 10, &cfg.AuthRateBurst},
	}
	for _, i := range ints {
		v, err := parseInt(getenv, i.key, i.def)
		if err != nil {
			return nil, err
		}
		*i.dest = v
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}

func parseInt(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
