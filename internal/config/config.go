package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "classpilot-development-secret"

// Config holds runtime configuration values for the client and the development server.
type Config struct {
	AppName         string
	AppEnv          string
	APIBaseURL      string
	APITimeout      time.Duration
	TokenStore      string
	TokenFile       string
	TokenKey        string
	RedisURL        string
	LogLevel        string
	DevServerPort   string
	DatabaseURL     string
	JWTSecret       string
	JWTTTL          time.Duration
	EnforceCapacity bool
}

// HTTPAddress returns the address the development server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.DevServerPort, ":") {
		return c.DevServerPort
	}

	return fmt.Sprintf(":%s", c.DevServerPort)
}

// IsProduction reports whether the app runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// SigningSecret returns the JWT secret for the development server. Outside
// production a fixed development secret is used when none is configured.
func (c Config) SigningSecret() (string, error) {
	if c.JWTSecret != "" {
		return c.JWTSecret, nil
	}
	if c.IsProduction() {
		return "", fmt.Errorf("jwt secret must be provided in production")
	}
	return devJWTSecret, nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSPILOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassPilot")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("token.store", "file")
	v.SetDefault("token.file", defaultTokenFile())
	v.SetDefault("token.key", "classpilot:token")
	v.SetDefault("log.level", "info")
	v.SetDefault("devserver.port", "8080")
	v.SetDefault("database.url", "file:classpilot.db")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("enrollment.enforce_capacity", true)

	timeout, err := parseDuration(v.GetString("api.timeout"), "15s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid api timeout: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("api timeout must be positive")
	}

	ttl, err := parseDuration(v.GetString("jwt.ttl"), "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		APIBaseURL:      strings.TrimRight(v.GetString("api.base_url"), "/"),
		APITimeout:      timeout,
		TokenStore:      strings.ToLower(v.GetString("token.store")),
		TokenFile:       v.GetString("token.file"),
		TokenKey:        v.GetString("token.key"),
		RedisURL:        v.GetString("redis.url"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		DevServerPort:   v.GetString("devserver.port"),
		DatabaseURL:     v.GetString("database.url"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          ttl,
		EnforceCapacity: v.GetBool("enrollment.enforce_capacity"),
	}

	switch cfg.TokenStore {
	case "file", "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url must be provided for the redis token store")
		}
	default:
		return Config{}, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}

	return cfg, nil
}

func parseDuration(raw, fallback string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".classpilot", "token")
	}
	return filepath.Join(home, ".classpilot", "token")
}
