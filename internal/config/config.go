package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "threadsync"
	defaultDBCharset  = "utf8mb4"
	defaultRedisURL   = "redis://localhost:6379/0"
)

// AppConfig holds runtime startup configuration loaded from YAML, with
// THREADSYNC_* environment variables taking precedence.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	JWTSecret      string         `yaml:"jwt_secret"`
	// Locales the host CMS project is configured with, offered during
	// field drill-down for localized fields.
	Locales []string    `yaml:"locales"`
	Assets  AssetConfig `yaml:"assets"`
	Sync    SyncConfig  `yaml:"sync"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// AssetConfig points at the S3-compatible bucket holding the project's
// uploads. An empty bucket disables the asset mention source.
type AssetConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// SyncConfig tunes the conversation sync queues.
type SyncConfig struct {
	CooldownMS     int `yaml:"cooldown_ms"`
	RetryBackoffMS int `yaml:"retry_backoff_ms"`
	MaxAttempts    int `yaml:"max_attempts"`
}

// Cooldown returns the echo-suppression window.
func (s SyncConfig) Cooldown() time.Duration {
	if s.CooldownMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(s.CooldownMS) * time.Millisecond
}

// RetryBackoff returns the base persist retry delay.
func (s SyncConfig) RetryBackoff() time.Duration {
	if s.RetryBackoffMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(s.RetryBackoffMS) * time.Millisecond
}

// Load reads the YAML config file and applies environment overrides.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case os.IsNotExist(err) && configPath == "":
		// implicit default path only: run on defaults + env
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
		},
		RedisURL: defaultRedisURL,
		Locales:  []string{"en"},
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("THREADSYNC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("THREADSYNC_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("THREADSYNC_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("THREADSYNC_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("THREADSYNC_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
}

// DSNValue builds the MySQL DSN from parts unless an explicit DSN is set.
func (c DatabaseConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := strings.TrimSpace(c.Password)
	if password == "" {
		password = defaultDBPassword
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}

	params := neturl.Values{}
	params.Set("charset", charset)
	params.Set("parseTime", "true")
	params.Set("loc", "Local")

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		user, password, net.JoinHostPort(host, strconv.Itoa(port)), name, params.Encode())
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return "production"
	default:
		return "development"
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
