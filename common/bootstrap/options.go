package bootstrap

import (
	"context"

	"github.com/lyzr/portfolio/common/config"
	"github.com/lyzr/portfolio/common/db"
	"github.com/lyzr/portfolio/common/logger"
	"github.com/lyzr/portfolio/common/storage"
)

// Option configures the bootstrap process
type Option func(*options)

// DBInitHook runs against the record store right after it is opened
type DBInitHook func(ctx context.Context, target db.MigrationTarget, log *logger.Logger) error

type options struct {
	skipDB        bool
	skipRedis     bool
	skipStorage   bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	customStorage storage.ObjectStore
	dbInitHook    DBInitHook
}

// WithoutDB skips record store initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutRedis skips Redis even when it is enabled in config
func WithoutRedis() Option {
	return func(o *options) {
		o.skipRedis = true
	}
}

// WithoutStorage skips object store initialization
func WithoutStorage() Option {
	return func(o *options) {
		o.skipStorage = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithCustomStorage uses store instead of building one from config
func WithCustomStorage(store storage.ObjectStore) Option {
	return func(o *options) {
		o.customStorage = store
	}
}

// WithDBInitHook runs a custom function after the record store opens
func WithDBInitHook(hook DBInitHook) Option {
	return func(o *options) {
		o.dbInitHook = hook
	}
}

// WithMigrations applies the schema migrations on startup
func WithMigrations() Option {
	return WithDBInitHook(func(ctx context.Context, target db.MigrationTarget, log *logger.Logger) error {
		_, err := db.Migrate(ctx, target, db.Migrations, log)
		return err
	})
}

func defaultOptions() *options {
	return &options{}
}
