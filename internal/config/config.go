package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ConfigPathEnv names the optional JSON config file.
const ConfigPathEnv = "TRIPPLANNER_CONFIG"

var (
	ErrMissingSecretKey   = errors.New("secret key must be configured")
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
	ErrUnsupportedStore   = errors.New("unsupported session store")
	ErrUnknownAIProvider  = errors.New("unknown ai provider")
	defaultProviderModels = map[string]string{
		"gemini": "gemini-1.5-pro",
		"openai": "gpt-4o-mini",
		"claude": "claude-3-5-sonnet-latest",
	}
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Database    DatabaseConfig            `json:"database"`
	Redis       RedisConfig               `json:"redis"`
	Session     SessionConfig             `json:"session"`
	AI          AIConfig                  `json:"ai"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Weather     WeatherConfig             `json:"weather"`
	Log         LogConfig                 `json:"log"`
}

type BasicConfig struct {
	ServerAddress   string `json:"server_address" env:"SERVER_ADDRESS"`
	SecretKey       string `json:"secret_key" env:"SECRET_KEY"`
	ShutdownTimeout int    `json:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver" env:"DB_DRIVER"`
	DSN      string `json:"dsn" env:"DB_DSN"`
	Host     string `json:"host" env:"DB_HOST"`
	Port     int    `json:"port" env:"DB_PORT"`
	Username string `json:"username" env:"DB_USER"`
	Password string `json:"password" env:"DB_PASSWORD"`
	DBName   string `json:"db_name" env:"DB_NAME"`
	Params   string `json:"params" env:"DB_PARAMS"`
}

type RedisConfig struct {
	Host     string `json:"host" env:"REDIS_HOST"`
	Port     int    `json:"port" env:"REDIS_PORT"`
	Username string `json:"username" env:"REDIS_USERNAME"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
}

type SessionConfig struct {
	// Store is "redis" or "memory".
	Store      string `json:"store" env:"SESSION_STORE"`
	TTLMinutes int    `json:"ttl_minutes" env:"SESSION_TTL_MINUTES"`
	Secure     bool   `json:"secure_cookie" env:"SESSION_SECURE_COOKIE"`
}

type AIConfig struct {
	Provider                 string `json:"provider" env:"AI_PROVIDER"`
	Model                    string `json:"model" env:"AI_MODEL"`
	BaseURL                  string `json:"base_url" env:"AI_BASE_URL"`
	GenerationTimeoutSeconds int    `json:"generation_timeout_seconds" env:"GENERATION_TIMEOUT_SECONDS"`
	GeminiAPIKey             string `json:"gemini_api_key" env:"GEMINI_API_KEY"`
	OpenAIAPIKey             string `json:"openai_api_key" env:"OPENAI_API_KEY"`
	ClaudeAPIKey             string `json:"claude_api_key" env:"ANTHROPIC_API_KEY"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type WeatherConfig struct {
	APIKey         string `json:"api_key" env:"OPENWEATHER_API_KEY"`
	BaseURL        string `json:"base_url" env:"WEATHER_BASE_URL"`
	IconBaseURL    string `json:"icon_base_url" env:"WEATHER_ICON_BASE_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"WEATHER_TIMEOUT_SECONDS"`
}

type LogConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
}

// Load reads the optional JSON file at path, then overlays environment
// variables (a .env file in the working directory is loaded first when present).
func Load(path string) (*Config, error) {
	var cfg Config
	var baseDir string

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		file, err := os.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		baseDir = filepath.Dir(absPath)
	}

	// the .env file is optional
	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if baseDir != "" && isSQLite(cfg.Database.Driver) && cfg.Database.DSN != ":memory:" && !filepath.IsAbs(cfg.Database.DSN) {
		cfg.Database.DSN = filepath.Join(baseDir, cfg.Database.DSN)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":5000"
	}
	if c.BasicConfig.ShutdownTimeout <= 0 {
		c.BasicConfig.ShutdownTimeout = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if isSQLite(c.Database.Driver) && c.Database.DSN == "" {
		c.Database.DSN = "users.db"
	}
	if c.Session.Store == "" {
		c.Session.Store = "redis"
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 24 * 60
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.GenerationTimeoutSeconds <= 0 {
		c.AI.GenerationTimeoutSeconds = 60
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org"
	}
	if c.Weather.IconBaseURL == "" {
		c.Weather.IconBaseURL = "http://openweathermap.org/img/w/"
	}
	if c.Weather.TimeoutSeconds <= 0 {
		c.Weather.TimeoutSeconds = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate reports configuration that would keep the server from working.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BasicConfig.SecretKey) == "" {
		return ErrMissingSecretKey
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "mysql":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Database.Driver)
	}
	switch c.Session.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedStore, c.Session.Store)
	}
	if _, ok := defaultProviderModels[c.AI.Provider]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAIProvider, c.AI.Provider)
	}
	return nil
}

// Provider resolves the configured text-generation provider. Values set
// through the ai section or the environment win over the providers map.
func (c *Config) Provider() (string, ProviderConfig) {
	name := c.AI.Provider
	pc := c.Providers[name]
	switch name {
	case "gemini":
		if c.AI.GeminiAPIKey != "" {
			pc.APIKey = c.AI.GeminiAPIKey
		}
	case "openai":
		if c.AI.OpenAIAPIKey != "" {
			pc.APIKey = c.AI.OpenAIAPIKey
		}
	case "claude":
		if c.AI.ClaudeAPIKey != "" {
			pc.APIKey = c.AI.ClaudeAPIKey
		}
	}
	if c.AI.Model != "" {
		pc.Model = c.AI.Model
	}
	if pc.Model == "" {
		pc.Model = defaultProviderModels[name]
	}
	if c.AI.BaseURL != "" {
		pc.BaseURL = c.AI.BaseURL
	}
	return name, pc
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.AI.GenerationTimeoutSeconds) * time.Second
}

func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.BasicConfig.ShutdownTimeout) * time.Second
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return true
	}
	return false
}
