package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/portfolio/common/config"
	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/redis"
	"github.com/lyzr/portfolio/common/repository"
	"github.com/lyzr/portfolio/common/storage"
	"github.com/lyzr/portfolio/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Record store
	if !options.skipDB {
		if err := setupRecordStore(ctx, components, options); err != nil {
			_ = components.Shutdown(ctx)
			return nil, err
		}
	}

	// 4. Redis
	if !options.skipRedis && components.Config.Redis.Enabled {
		components.Logger.Info("connecting to redis", "addr", components.Config.RedisAddr())
		components.Redis, err = redis.Connect(ctx, components.Config, components.Logger)
		if err != nil {
			_ = components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing redis connection")
			return components.Redis.Close()
		})
	}

	// 5. Object store
	if options.customStorage != nil {
		components.Storage = options.customStorage
	} else if !options.skipStorage {
		components.Storage, err = newObjectStore(ctx, components.Config)
		if err != nil {
			_ = components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	// 6. Profiling listener
	if port := components.Config.Service.PprofPort; port > 0 {
		tel := telemetry.New(port, components.Logger)
		if err := tel.Start(ctx); err != nil {
			_ = components.Shutdown(ctx)
			return nil, err
		}
		components.addCleanup(func() error {
			return tel.Stop(context.Background())
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"database", components.Config.Database.Driver,
		"records", components.Projects != nil,
		"redis", components.Redis != nil,
		"storage", components.Storage != nil,
	)

	return components, nil
}

func setupRecordStore(ctx context.Context, c *Components, options *options) error {
	var target db.MigrationTarget

	switch c.Config.Database.Driver {
	case "postgres":
		c.Logger.Info("connecting to database")
		database, err := db.New(ctx, c.Config, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.addCleanup(func() error {
			c.Logger.Info("closing database connection")
			database.Close()
			return nil
		})
		c.DB = database
		c.Projects = repository.NewProjectRepository(database)
		target = database

	case "sqlite":
		c.Logger.Info("opening sqlite database", "path", c.Config.Database.SQLitePath)
		repo, err := repository.NewSQLiteProjectRepository(c.Config.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite: %w", err)
		}
		c.addCleanup(func() error {
			c.Logger.Info("closing sqlite database")
			return repo.Close()
		})
		c.Projects = repo
		target = repo

	default:
		return fmt.Errorf("unknown database driver: %s", c.Config.Database.Driver)
	}

	if options.dbInitHook != nil {
		c.Logger.Info("running database init hook")
		if err := options.dbInitHook(ctx, target, c.Logger); err != nil {
			return fmt.Errorf("database init hook failed: %w", err)
		}
	}
	return nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(cfg.Storage.PublicBaseURL), nil
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKeyID:   cfg.Storage.AccessKeyID,
			SecretKey:     cfg.Storage.SecretKey,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
