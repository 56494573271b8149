package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Env  string
	Port int

	DBDriver    string
	DatabaseURL string

	JWTSecret  string
	JWTExpire  time.Duration
	BcryptCost int

	AllowedOrigins []string

	RedisURL         string
	LoginMaxFailures int
	LoginLockout     time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Seed bool
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }
func (c Config) IsProduction() bool  { return c.Env == "production" }

type configFile struct {
	Server struct {
		Env            string   `yaml:"env"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTExpire        string `yaml:"jwt_expire"`
		BcryptCost       int    `yaml:"bcrypt_cost"`
		LoginMaxFailures int    `yaml:"login_max_failures"`
		LoginLockout     string `yaml:"login_lockout"`
	} `yaml:"auth"`
	Dependencies struct {
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{
		Env:              "development",
		Port:             5000,
		DBDriver:         "postgres",
		JWTExpire:        7 * 24 * time.Hour,
		BcryptCost:       10,
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		LoginMaxFailures: 5,
		LoginLockout:     15 * time.Minute,
		KafkaTopic:       "flowtrack.activity",
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if file.Server.Env != "" {
		cfg.Env = file.Server.Env
	}
	if file.Server.Port > 0 {
		cfg.Port = file.Server.Port
	}
	if len(file.Server.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = file.Server.AllowedOrigins
	}
	if file.Database.Driver != "" {
		cfg.DBDriver = file.Database.Driver
	}
	if file.Database.URL != "" {
		cfg.DatabaseURL = file.Database.URL
	}
	if file.Auth.JWTExpire != "" {
		d, err := ParseDuration(file.Auth.JWTExpire)
		if err != nil {
			return fmt.Errorf("auth.jwt_expire: %w", err)
		}
		cfg.JWTExpire = d
	}
	if file.Auth.BcryptCost > 0 {
		cfg.BcryptCost = file.Auth.BcryptCost
	}
	if file.Auth.LoginMaxFailures > 0 {
		cfg.LoginMaxFailures = file.Auth.LoginMaxFailures
	}
	if file.Auth.LoginLockout != "" {
		d, err := ParseDuration(file.Auth.LoginLockout)
		if err != nil {
			return fmt.Errorf("auth.login_lockout: %w", err)
		}
		cfg.LoginLockout = d
	}
	if file.Dependencies.RedisURL != "" {
		cfg.RedisURL = file.Dependencies.RedisURL
	}
	if len(file.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = file.Dependencies.KafkaBrokers
	}
	if file.Dependencies.KafkaTopic != "" {
		cfg.KafkaTopic = file.Dependencies.KafkaTopic
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRE"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRE: %w", err)
		}
		cfg.JWTExpire = d
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = cost
	}
	if v := os.Getenv("CLIENT_URL"); v != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, splitList(v)...)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, splitList(v)...)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LOGIN_MAX_FAILURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGIN_MAX_FAILURES: %w", err)
		}
		cfg.LoginMaxFailures = n
	}
	if v := os.Getenv("LOGIN_LOCKOUT"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LOGIN_LOCKOUT: %w", err)
		}
		cfg.LoginLockout = d
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("SEED"); v != "" {
		cfg.Seed = strings.EqualFold(v, "true") || v == "1"
	}
	return nil
}

func (c Config) validate() error {
	if c.IsProduction() {
		var missing []string
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if os.Getenv("CLIENT_URL") == "" {
			missing = append(missing, "CLIENT_URL")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if c.JWTExpire <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	return nil
}

// ParseDuration accepts Go durations plus a trailing "d" for whole days ("7d").
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
