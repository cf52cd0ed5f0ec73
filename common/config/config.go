package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Auth      AuthConfig      `yaml:"auth"`
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"`
	PprofPort   int    `yaml:"pprofPort"` // 0 disables the profiling listener
}

// DatabaseConfig holds record store connection settings
type DatabaseConfig struct {
	Driver      string        `yaml:"driver"` // "postgres" or "sqlite"
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Database    string        `yaml:"database"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	SSLMode     string        `yaml:"sslMode"`
	SQLitePath  string        `yaml:"sqlitePath"`
	MaxConns    int           `yaml:"maxConns"`
	MinConns    int           `yaml:"minConns"`
	MaxIdleTime time.Duration `yaml:"maxIdleTime"`
	MaxLifetime time.Duration `yaml:"maxLifetime"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig holds object store settings
type StorageConfig struct {
	Backend       string `yaml:"backend"` // "s3" or "memory"
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKeyID   string `yaml:"accessKeyId"`
	SecretKey     string `yaml:"secretKey"`
	UsePathStyle  bool   `yaml:"usePathStyle"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
	PageSize      int    `yaml:"pageSize"`
	MaxPages      int    `yaml:"maxPages"`
}

// ReconcileConfig holds reconciliation tuning
type ReconcileConfig struct {
	SweepConcurrency int           `yaml:"sweepConcurrency"`
	ExtraExtensions  []string      `yaml:"extraExtensions"`
	ObjectFilter     string        `yaml:"objectFilter"` // optional CEL expression
	StatusTTL        time.Duration `yaml:"statusTtl"`
	SweepLockTTL     time.Duration `yaml:"sweepLockTtl"`
}

// AuthConfig holds credentials for the admin and webhook entry points
type AuthConfig struct {
	AdminTokens    []string      `yaml:"adminTokens"`
	WebhookSecret  string        `yaml:"webhookSecret"`
	WebhookMaxSkew time.Duration `yaml:"webhookMaxSkew"`
}

// Defaults returns the configuration used when nothing is overridden
func Defaults(serviceName string) *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        8080,
			Environment: "development",
			LogLevel:    "info",
			LogFormat:   "text",
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			Host:        "localhost",
			Port:        5432,
			Database:    "portfolio",
			User:        "portfolio",
			Password:    "portfolio",
			SSLMode:     "disable",
			SQLitePath:  "portfolio.db",
			MaxConns:    20,
			MinConns:    2,
			MaxIdleTime: 30 * time.Minute,
			MaxLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    6379,
		},
		Storage: StorageConfig{
			Backend:  "s3",
			Region:   "us-east-1",
			Bucket:   "portfolio",
			PageSize: 100,
			MaxPages: 50,
		},
		Reconcile: ReconcileConfig{
			SweepConcurrency: 10,
			StatusTTL:        7 * 24 * time.Hour,
			SweepLockTTL:     30 * time.Minute,
		},
		Auth: AuthConfig{
			WebhookMaxSkew: 5 * time.Minute,
		},
	}
}

// Load loads configuration from an optional YAML file (CONFIG_FILE)
// and then from environment variables. Environment values win.
func Load(serviceName string) (*Config, error) {
	cfg := Defaults(serviceName)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Service.Port = getEnvInt("PORT", cfg.Service.Port)
	cfg.Service.Environment = getEnv("ENVIRONMENT", cfg.Service.Environment)
	cfg.Service.LogLevel = getEnv("LOG_LEVEL", cfg.Service.LogLevel)
	cfg.Service.LogFormat = getEnv("LOG_FORMAT", cfg.Service.LogFormat)
	cfg.Service.PprofPort = getEnvInt("PPROF_PORT", cfg.Service.PprofPort)

	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("POSTGRES_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("POSTGRES_PORT", cfg.Database.Port)
	cfg.Database.Database = getEnv("POSTGRES_DB", cfg.Database.Database)
	cfg.Database.User = getEnv("POSTGRES_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("POSTGRES_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("POSTGRES_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.MaxConns = getEnvInt("POSTGRES_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Database.MinConns = getEnvInt("POSTGRES_MIN_CONNS", cfg.Database.MinConns)
	cfg.Database.MaxIdleTime = getEnvDuration("POSTGRES_MAX_IDLE_TIME", cfg.Database.MaxIdleTime)
	cfg.Database.MaxLifetime = getEnvDuration("POSTGRES_MAX_LIFETIME", cfg.Database.MaxLifetime)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.Region = getEnv("STORAGE_REGION", cfg.Storage.Region)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.AccessKeyID = getEnv("STORAGE_ACCESS_KEY_ID", cfg.Storage.AccessKeyID)
	cfg.Storage.SecretKey = getEnv("STORAGE_SECRET_ACCESS_KEY", cfg.Storage.SecretKey)
	cfg.Storage.UsePathStyle = getEnvBool("STORAGE_USE_PATH_STYLE", cfg.Storage.UsePathStyle)
	cfg.Storage.PublicBaseURL = getEnv("STORAGE_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)
	cfg.Storage.PageSize = getEnvInt("STORAGE_PAGE_SIZE", cfg.Storage.PageSize)
	cfg.Storage.MaxPages = getEnvInt("STORAGE_MAX_PAGES", cfg.Storage.MaxPages)

	cfg.Reconcile.SweepConcurrency = getEnvInt("RECONCILE_SWEEP_CONCURRENCY", cfg.Reconcile.SweepConcurrency)
	cfg.Reconcile.ExtraExtensions = getEnvSlice("RECONCILE_EXTRA_EXTENSIONS", cfg.Reconcile.ExtraExtensions)
	cfg.Reconcile.ObjectFilter = getEnv("RECONCILE_OBJECT_FILTER", cfg.Reconcile.ObjectFilter)
	cfg.Reconcile.StatusTTL = getEnvDuration("RECONCILE_STATUS_TTL", cfg.Reconcile.StatusTTL)
	cfg.Reconcile.SweepLockTTL = getEnvDuration("RECONCILE_SWEEP_LOCK_TTL", cfg.Reconcile.SweepLockTTL)

	cfg.Auth.AdminTokens = getEnvSlice("ADMIN_API_TOKENS", cfg.Auth.AdminTokens)
	cfg.Auth.WebhookSecret = getEnv("WEBHOOK_SECRET", cfg.Auth.WebhookSecret)
	cfg.Auth.WebhookMaxSkew = getEnvDuration("WEBHOOK_MAX_SKEW", cfg.Auth.WebhookMaxSkew)
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Service.PprofPort < 0 || c.Service.PprofPort > 65535 {
		return fmt.Errorf("invalid pprof port: %d", c.Service.PprofPort)
	}
	if c.Service.PprofPort != 0 && c.Service.PprofPort == c.Service.Port {
		return fmt.Errorf("pprof port must differ from service port")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "s3", "memory":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	if c.Storage.PageSize < 1 || c.Storage.PageSize > 1000 {
		return fmt.Errorf("storage page size must be between 1 and 1000, got %d", c.Storage.PageSize)
	}

	if c.Storage.MaxPages < 1 {
		return fmt.Errorf("storage max pages must be positive")
	}

	if c.Reconcile.SweepConcurrency < 1 {
		return fmt.Errorf("sweep concurrency must be positive, got %d", c.Reconcile.SweepConcurrency)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
