package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Record store drivers.
const (
	RecordStoreFile     = "file"
	RecordStorePostgres = "postgres"
)

// Initial synchronization policies.
const (
	SyncPolicyRemoteWins = "remote_wins"
	SyncPolicyNewerWins  = "newer_wins"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string

	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	RecordStore RecordStoreConfig
	Remote      RemoteConfig
	Sync        SyncConfig
	Email       EmailConfig
	Board       BoardConfig
	Scraper     ScraperConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecordStoreConfig selects where the board keeps its local collections.
type RecordStoreConfig struct {
	Driver string
	Dir    string
}

// RemoteConfig tunes the shared document service.
type RemoteConfig struct {
	UserID  string
	Timeout time.Duration
}

// SyncConfig governs reconciliation with the shared documents.
type SyncConfig struct {
	InitialPolicy string
	GraceWindow   time.Duration
}

// EmailConfig configures the approval e-mail endpoint.
type EmailConfig struct {
	Enabled    bool
	Endpoint   string
	Source     string
	Timeout    time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// BoardConfig holds board level toggles.
type BoardConfig struct {
	SeedSampleData bool
	DefaultRegion  string
}

// ScraperConfig configures the batch scraper.
type ScraperConfig struct {
	BrowserTimeout time.Duration
	HTTPTimeout    time.Duration
	UserAgent      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RecordStore = RecordStoreConfig{
		Driver: strings.ToLower(strings.TrimSpace(v.GetString("RECORD_STORE_DRIVER"))),
		Dir:    v.GetString("RECORD_STORE_DIR"),
	}
	if cfg.RecordStore.Driver != RecordStorePostgres {
		cfg.RecordStore.Driver = RecordStoreFile
	}

	cfg.Remote = RemoteConfig{
		UserID:  v.GetString("REMOTE_USER_ID"),
		Timeout: parseDuration(v.GetString("SYNC_REMOTE_TIMEOUT"), 5*time.Second),
	}

	cfg.Sync = SyncConfig{
		InitialPolicy: strings.ToLower(strings.TrimSpace(v.GetString("SYNC_INITIAL_POLICY"))),
		GraceWindow:   parseDuration(v.GetString("SYNC_GRACE_WINDOW"), 2*time.Second),
	}
	if cfg.Sync.InitialPolicy != SyncPolicyNewerWins {
		cfg.Sync.InitialPolicy = SyncPolicyRemoteWins
	}

	cfg.Email = EmailConfig{
		Enabled:    v.GetBool("EMAIL_ENABLED"),
		Endpoint:   v.GetString("EMAIL_ENDPOINT"),
		Source:     v.GetString("EMAIL_SOURCE"),
		Timeout:    parseDuration(v.GetString("EMAIL_TIMEOUT"), 10*time.Second),
		Workers:    v.GetInt("EMAIL_WORKERS"),
		MaxRetries: v.GetInt("EMAIL_RETRIES"),
		RetryDelay: parseDuration(v.GetString("EMAIL_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Board = BoardConfig{
		SeedSampleData: v.GetBool("SEED_SAMPLE_DATA"),
		DefaultRegion:  strings.ToLower(v.GetString("DEFAULT_REGION")),
	}

	cfg.Scraper = ScraperConfig{
		BrowserTimeout: parseDuration(v.GetString("SCRAPER_BROWSER_TIMEOUT"), 30*time.Second),
		HTTPTimeout:    parseDuration(v.GetString("SCRAPER_HTTP_TIMEOUT"), 15*time.Second),
		UserAgent:      v.GetString("SCRAPER_USER_AGENT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dance_board")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECORD_STORE_DRIVER", RecordStoreFile)
	v.SetDefault("RECORD_STORE_DIR", "./data")

	v.SetDefault("REMOTE_USER_ID", "shared_schedule")
	v.SetDefault("SYNC_REMOTE_TIMEOUT", "5s")
	v.SetDefault("SYNC_INITIAL_POLICY", SyncPolicyRemoteWins)
	v.SetDefault("SYNC_GRACE_WINDOW", "2s")

	v.SetDefault("EMAIL_ENABLED", false)
	v.SetDefault("EMAIL_ENDPOINT", "https://gmail-function.vercel.app/api/send-email")
	v.SetDefault("EMAIL_SOURCE", "Dance Schedule Website")
	v.SetDefault("EMAIL_TIMEOUT", "10s")
	v.SetDefault("EMAIL_WORKERS", 1)
	v.SetDefault("EMAIL_RETRIES", 3)
	v.SetDefault("EMAIL_RETRY_DELAY", "2s")

	v.SetDefault("SEED_SAMPLE_DATA", false)
	v.SetDefault("DEFAULT_REGION", "nyc")

	v.SetDefault("SCRAPER_BROWSER_TIMEOUT", "30s")
	v.SetDefault("SCRAPER_HTTP_TIMEOUT", "15s")
	v.SetDefault("SCRAPER_USER_AGENT", "Mozilla/5.0")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
