package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port           int
	Timeouts       HTTPTimeoutsConfig
	MaxUploadBytes int64
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	SourcesDir  string
	StaticDir   string
}

type DBConfig struct {
	Driver         string // 'sqlite' | 'postgres'
	Path           string
	URL            string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type SessionConfig struct {
	Lifetime time.Duration
}

// MediaConfig selects where feature images live and how they are addressed
type MediaConfig struct {
	Backend        string // 'local' | 's3'
	LocalDir       string
	PublicBaseURL  string
	KeyNamespace   string
	VariantWorkers int
}

// S3Config holds the media host credentials, handed to the store at construction
type S3Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

type BlogConfig struct {
	FetchTimeout time.Duration
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Session SessionConfig
	Media   MediaConfig
	S3      S3Config
	Blog    BlogConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "My blog",
			Environment: "prod",
			SourcesDir:  "./sources",
			StaticDir:   "./static",
		},
		DB: DBConfig{
			Driver:         "sqlite",
			Path:           "blogsite.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 8080,
			Timeouts: HTTPTimeoutsConfig{
				Read:     15 * time.Second, // multipart uploads need longer than page reads
				Write:    30 * time.Second,
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
			MaxUploadBytes: 10 << 20,
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Session: SessionConfig{
			Lifetime: 24 * time.Hour,
		},
		Media: MediaConfig{
			Backend:        "local",
			LocalDir:       "./media",
			PublicBaseURL:  "/media/",
			KeyNamespace:   "570e8400-c29b-45d4-a716-446655440700",
			VariantWorkers: 2,
		},
		S3: S3Config{
			Region:       "us-east-1",
			UsePathStyle: true,
		},
		Blog: BlogConfig{
			FetchTimeout: 3 * time.Second,
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", defaults.App.Name),
			Environment: getEnv("APP_ENV", defaults.App.Environment),
			SourcesDir:  getEnv("APP_SOURCES_DIR", defaults.App.SourcesDir),
			StaticDir:   getEnv("APP_STATIC_DIR", defaults.App.StaticDir),
		},
		DB: DBConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", defaults.DB.Driver)),
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			URL:            getEnv("DATABASE_URL", defaults.DB.URL),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("PORT", defaults.HTTP.Port), // don't forget to add ':'
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
			MaxUploadBytes: int64(getEnvAsInt("HTTP_MAX_UPLOAD_BYTES", int(defaults.HTTP.MaxUploadBytes))),
		},
		Limiter: RateLimiterConfig{
			RPS:   getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Session: SessionConfig{
			Lifetime: getEnvAsDuration("SESSION_LIFETIME", defaults.Session.Lifetime),
		},
		Media: MediaConfig{
			Backend:        strings.ToLower(getEnv("MEDIA_BACKEND", defaults.Media.Backend)),
			LocalDir:       getEnv("MEDIA_LOCAL_DIR", defaults.Media.LocalDir),
			PublicBaseURL:  getEnv("MEDIA_PUBLIC_BASE_URL", defaults.Media.PublicBaseURL),
			KeyNamespace:   getEnv("MEDIA_KEY_NAMESPACE", defaults.Media.KeyNamespace),
			VariantWorkers: getEnvAsInt("MEDIA_VARIANT_WORKERS", defaults.Media.VariantWorkers),
		},
		S3: S3Config{
			Endpoint:     getEnv("S3_ENDPOINT", defaults.S3.Endpoint),
			Region:       getEnv("S3_REGION", defaults.S3.Region),
			AccessKey:    getEnv("S3_ACCESS_KEY", defaults.S3.AccessKey),
			SecretKey:    getEnv("S3_SECRET_KEY", defaults.S3.SecretKey),
			Bucket:       getEnv("S3_BUCKET", defaults.S3.Bucket),
			UsePathStyle: getEnvAsBool("S3_USE_PATH_STYLE", defaults.S3.UsePathStyle),
		},
		Blog: BlogConfig{
			FetchTimeout: getEnvAsDuration("BLOG_FETCH_TIMEOUT", defaults.Blog.FetchTimeout),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) IsProd() bool {
	return strings.ToLower(c.App.Environment) == "prod"
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}

	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH must not be empty")
		}
	case "postgres":
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL must not be empty when DB_DRIVER is postgres")
		}
	default:
		return fmt.Errorf(`DB_DRIVER must be "sqlite" or "postgres", got %q`, c.DB.Driver)
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}

	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_UPLOAD_BYTES must be positive, got %d", c.HTTP.MaxUploadBytes)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive, got %s", c.Session.Lifetime)
	}
	if c.Blog.FetchTimeout <= 0 {
		return fmt.Errorf("BLOG_FETCH_TIMEOUT must be positive, got %s", c.Blog.FetchTimeout)
	}

	switch c.Media.Backend {
	case "local":
		if c.Media.LocalDir == "" {
			return fmt.Errorf("MEDIA_LOCAL_DIR must not be empty")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must not be empty when MEDIA_BACKEND is s3")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set when MEDIA_BACKEND is s3")
		}
	default:
		return fmt.Errorf(`MEDIA_BACKEND must be "local" or "s3", got %q`, c.Media.Backend)
	}
	if c.Media.PublicBaseURL == "" {
		return fmt.Errorf("MEDIA_PUBLIC_BASE_URL must not be empty")
	}
	if c.Media.VariantWorkers < 0 {
		return fmt.Errorf("MEDIA_VARIANT_WORKERS must not be negative, got %d", c.Media.VariantWorkers)
	}
	if _, err := uuid.FromString(c.Media.KeyNamespace); err != nil {
		return fmt.Errorf("MEDIA_KEY_NAMESPACE must be a valid UUID")
	}

	// c.Proxy.Trusted will default to true if not valid
	// c.Logger.Level will default to Info if not valid
	return nil
}
