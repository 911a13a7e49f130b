// Package db opens the storage backend selected in the config
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bitwise74/readstack/config"
	"bitwise74/readstack/internal/store"
	"bitwise74/readstack/internal/store/mongostore"
	"bitwise74/readstack/internal/store/sqlstore"
	"bitwise74/readstack/pkg/util"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
)

const baseBackoff = 500 * time.Millisecond

// New connects to the configured store. Connecting is retried with an
// exponential backoff up to storage.connect_retries times.
func New(ctx context.Context, c config.StorageConfig) (store.Store, error) {
	open, err := opener(c)
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff := baseBackoff

	for attempt := 0; attempt <= c.ConnectRetries; attempt++ {
		s, err := open(ctx)
		if err == nil {
			zap.L().Info("Connected to store", zap.String("driver", c.Driver), zap.Int("attempt", attempt+1))
			return s, nil
		}

		lastErr = err
		if attempt == c.ConnectRetries {
			break
		}

		zap.L().Warn("Failed to connect to store, retrying",
			zap.String("driver", c.Driver),
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return nil, fmt.Errorf("failed to connect to %s store, %w", c.Driver, lastErr)
}

func opener(c config.StorageConfig) (func(ctx context.Context) (store.Store, error), error) {
	switch c.Driver {
	case "memory":
		return func(context.Context) (store.Store, error) {
			return sqlstore.OpenMemory(c.Timeout)
		}, nil
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(c.DSN); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", c.DSN)
			}
		}

		return func(context.Context) (store.Store, error) {
			return sqlstore.OpenFile(c.DSN, c.Timeout)
		}, nil
	case "postgres":
		return func(context.Context) (store.Store, error) {
			return sqlstore.Open(postgres.Open(c.DSN), c.Timeout)
		}, nil
	case "mongo":
		return func(ctx context.Context) (store.Store, error) {
			return mongostore.Open(ctx, c.DSN, c.Database, c.Timeout)
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}
