// Package app wires configuration into a ready analysis service. Both the
// HTTP server and the CLI build their runtime here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/notify"
	"github.com/ignite/offer-monitor/internal/pkg/distlock"
	"github.com/ignite/offer-monitor/internal/pkg/logger"
	"github.com/ignite/offer-monitor/internal/repository/postgres"
	"github.com/ignite/offer-monitor/internal/service/analysis"
	"github.com/ignite/offer-monitor/internal/snowflake"
	"github.com/ignite/offer-monitor/internal/storage"
	"github.com/ignite/offer-monitor/internal/workbook"
)

// ErrUnknownSource is returned for an unrecognised source type.
var ErrUnknownSource = errors.New("unknown source type")

// Runtime holds the wired service and everything that must be closed with
// it.
type Runtime struct {
	Config  *config.Config
	Service *analysis.Service
	// Store is nil when archiving is disabled.
	Store   *storage.Storage
	closers []io.Closer

	db    *sql.DB
	redis *redis.Client
}

// scheduleLockKey guards scheduled runs across replicas.
const scheduleLockKey = "offer-monitor:schedule"

// Options tunes Build.
type Options struct {
	// SkipStore leaves the archive unconfigured.
	SkipStore bool
	// SkipNotify builds no notifiers.
	SkipNotify bool
	// Observer is told about every run.
	Observer analysis.Observer
}

// Build wires cfg into a Runtime. On error every resource opened so far is
// closed.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}
	if err := rt.build(ctx, cfg, opts); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) build(ctx context.Context, cfg *config.Config, opts Options) error {
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	src, err := rt.source(ctx, cfg)
	if err != nil {
		return err
	}

	deps := analysis.Deps{Source: src, Observer: opts.Observer}

	if !opts.SkipStore {
		store, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		rt.Store = store
		deps.Store = store
	}

	if !opts.SkipNotify {
		deps.Notifiers, err = rt.notifiers(ctx, cfg.Notify)
		if err != nil {
			return err
		}
	}

	if every := time.Duration(cfg.Source.ScheduleMinutes) * time.Minute; every > 0 {
		deps.ScheduleLock = distlock.New(rt.redis, rt.db, scheduleLockKey, every)
	}

	rt.Service = analysis.NewService(engineOpts, deps)
	return nil
}

// Close releases database and Redis connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// source builds the configured snapshot source. An empty file path yields
// no source: requests must then carry their own data.
func (rt *Runtime) source(ctx context.Context, cfg *config.Config) (analysis.Source, error) {
	sc := cfg.Source
	switch sc.Type {
	case config.SourceFile, "":
		if sc.File == "" {
			return nil, nil
		}
		return workbook.NewFileSource(sc.File), nil

	case config.SourcePostgres:
		if sc.DatabaseURL == "" {
			return nil, errors.New("postgres source needs database_url")
		}
		db, err := sql.Open("postgres", sc.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		rt.closers = append(rt.closers, db)
		rt.db = db
		logger.Info("source configured", "type", sc.Type, "table", sc.Table)
		return postgres.NewPerformanceRepo(db, sc.Table, sc.BlacklistTable, sc.LookbackDays), nil

	case config.SourceSnowflake:
		client, err := snowflake.NewClient(snowflake.FromConfig(cfg.Snowflake, sc.LookbackDays))
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client)
		logger.Info("source configured", "type", sc.Type, "table", cfg.Snowflake.Table)
		return client, nil

	case config.SourceS3:
		src, err := storage.NewS3Source(ctx, sc.S3)
		if err != nil {
			return nil, err
		}
		logger.Info("source configured", "type", sc.Type, "bucket", sc.S3.Bucket, "key", sc.S3.Key)
		return src, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSource, sc.Type)
}

func (rt *Runtime) notifiers(ctx context.Context, cfg config.NotifyConfig) ([]analysis.Notifier, error) {
	var out []analysis.Notifier

	if cfg.Redis.Enabled {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		rt.closers = append(rt.closers, client)
		rt.redis = client
		ttl := time.Duration(cfg.Redis.TTLHours) * time.Hour
		out = append(out, notify.NewRedisPublisher(client, cfg.Redis.ListKey, cfg.Redis.Channel, ttl))
	}

	if cfg.SES.Enabled {
		digest, err := notify.NewDigest()
		if err != nil {
			return nil, err
		}
		mailer, err := notify.NewSESMailer(ctx, cfg.SES, digest)
		if err != nil {
			return nil, fmt.Errorf("ses: %w", err)
		}
		out = append(out, mailer)
	}

	for _, n := range out {
		logger.Info("notifier configured", "sink", n.Name())
	}
	return out, nil
}
