// Package config builds the immutable runtime configuration of the API.
//
// Values are layered: built-in defaults, then an optional YAML file, then a
// .env file, then the process environment. The resulting Config is passed by
// value into every component at start-up; nothing reads the environment later.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string          `yaml:"port"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	HTTP      HTTPConfig      `yaml:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// DBConfig describes the Postgres pool. InMemory swaps Postgres for
// process-local stores, for development only.
type DBConfig struct {
	URL         string        `yaml:"url"`
	InMemory    bool          `yaml:"in_memory"`
	MaxOpen     int           `yaml:"max_open"`
	MaxIdle     int           `yaml:"max_idle"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`

	// ConnectRetries bounds the startup ping attempts, RetryDelay spaces them.
	ConnectRetries int           `yaml:"connect_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// AuthConfig carries the signing secrets and token lifetimes.
type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	// ElevatedEmail registers with the elevated role.
	ElevatedEmail string `yaml:"elevated_email"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig configures the global and auth request budgets. An empty
// RedisURL keeps the counters in process memory.
type RateLimitConfig struct {
	RedisURL   string        `yaml:"redis_url"`
	Max        int           `yaml:"max"`
	Window     time.Duration `yaml:"window"`
	AuthMax    int           `yaml:"auth_max"`
	AuthWindow time.Duration `yaml:"auth_window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Port: "4000",
		DB: DBConfig{
			MaxOpen:        25,
			MaxIdle:        25,
			MaxLifetime:    300 * time.Second,
			ConnectRetries: 5,
			RetryDelay:     2 * time.Second,
		},
		Auth: AuthConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			CORSOrigins:     []string{"http://localhost:8080", "http://localhost:3000"},
			ShutdownTimeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Max:        100,
			Window:     15 * time.Minute,
			AuthMax:    20,
			AuthWindow: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load applies the YAML file at path (if any), the .env file and the
// environment on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first setting that prevents the server from starting.
func (c Config) Validate() error {
	switch {
	case c.DB.URL == "" && !c.DB.InMemory:
		return errors.New("DATABASE_URL is required")
	case c.Auth.AccessSecret == "":
		return errors.New("ACCESS_SECRET is required")
	case c.Auth.RefreshSecret == "":
		return errors.New("REFRESH_SECRET is required")
	case c.Auth.AccessSecret == c.Auth.RefreshSecret:
		return errors.New("ACCESS_SECRET and REFRESH_SECRET must differ")
	case c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0:
		return errors.New("token TTLs must be positive")
	case c.RateLimit.Max <= 0 || c.RateLimit.AuthMax <= 0:
		return errors.New("rate limits must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	envString("PORT", &cfg.Port)
	envString("DATABASE_URL", &cfg.DB.URL)
	envString("ACCESS_SECRET", &cfg.Auth.AccessSecret)
	envString("REFRESH_SECRET", &cfg.Auth.RefreshSecret)
	envString("ELEVATED_EMAIL", &cfg.Auth.ElevatedEmail)
	envString("REDIS_URL", &cfg.RateLimit.RedisURL)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN", &cfg.DB.MaxOpen},
		{"DB_MAX_IDLE", &cfg.DB.MaxIdle},
		{"DB_CONNECT_RETRIES", &cfg.DB.ConnectRetries},
		{"RATE_LIMIT_MAX", &cfg.RateLimit.Max},
		{"AUTH_LIMIT_MAX", &cfg.RateLimit.AuthMax},
	}
	for _, e := range ints {
		if err := envInt(e.key, e.dst); err != nil {
			return err
		}
	}

	// DB_MAX_LIFETIME and DB_RETRY_DELAY are in seconds.
	seconds := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_MAX_LIFETIME", &cfg.DB.MaxLifetime},
		{"DB_RETRY_DELAY", &cfg.DB.RetryDelay},
	}
	for _, e := range seconds {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.key, err)
		}
		*e.dst = time.Duration(secs) * time.Second
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TTL", &cfg.Auth.AccessTTL},
		{"REFRESH_TTL", &cfg.Auth.RefreshTTL},
		{"RATE_LIMIT_WINDOW", &cfg.RateLimit.Window},
		{"AUTH_LIMIT_WINDOW", &cfg.RateLimit.AuthWindow},
	}
	for _, e := range durations {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		d, err := ParseTTL(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.key, err)
		}
		*e.dst = d
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"COOKIE_SECURE", &cfg.Auth.CookieSecure},
		{"DB_IN_MEMORY", &cfg.DB.InMemory},
	}
	for _, e := range bools {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.key, err)
		}
		*e.dst = b
	}

	return nil
}

// ParseTTL parses durations such as "15m", "168h", "20s", or "30" (minutes).
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "m") ||
		strings.HasSuffix(s, "h") ||
		strings.HasSuffix(s, "s") {
		return time.ParseDuration(s)
	}

	// fallback: minutes
	min, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(min) * time.Minute, nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
