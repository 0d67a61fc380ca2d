// Package db picks the user store backend named in the configuration.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain/ports/repository"
	pg "telegram-storefront-bot/internal/infra/db/postgres"
	"telegram-storefront-bot/internal/infra/db/sqlite"
)

// Store is an opened backend with its schema in place.
type Store struct {
	Users  repository.UserRepository
	Driver string

	close func()
	stats func(ctx context.Context, interval time.Duration)
}

func Open(ctx context.Context, cfg config.DatabaseConfig, log *zerolog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPgxPool(ctx, cfg.URL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Users:  pg.NewUserRepo(pool),
			Driver: cfg.Driver,
			close:  pool.Close,
			stats: func(ctx context.Context, interval time.Duration) {
				pg.ReportPoolStats(ctx, pool, interval, log)
			},
		}, nil

	case config.DriverSQLite, "":
		gdb, err := sqlite.Open(ctx, cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:  sqlite.NewUserRepo(gdb),
			Driver: config.DriverSQLite,
			close: func() {
				if err := sqlite.Close(gdb); err != nil {
					log.Warn().Err(err).Msg("sqlite close failed")
				}
			},
			stats: func(ctx context.Context, interval time.Duration) {
				sqlite.ReportPoolStats(ctx, gdb, interval)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ReportPoolStats blocks, publishing connection gauges until ctx is done.
func (s *Store) ReportPoolStats(ctx context.Context, interval time.Duration) {
	s.stats(ctx, interval)
}

func (s *Store) Close() { s.close() }
