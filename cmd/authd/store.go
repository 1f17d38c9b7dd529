package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/credential"
	"github.com/MrEthical07/tokenauth/internal/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// storeBackoff bounds how long authd waits for a backend at startup.
var storeBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
}

// openStore returns the configured store and a function releasing its resources.
func openStore(ctx context.Context, s config.StoreSettings, logger *slog.Logger) (tokenauth.CredentialStore, func(), error) {
	switch s.Driver {
	case "memory":
		return credential.NewMemoryStore(), func() {}, nil

	case "miniredis":
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, oops.Code("STORE_OPEN_FAILED").With("driver", s.Driver).Wrap(err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Warn("using in-process redis; credentials are lost on exit", "addr", mr.Addr())
		return credential.NewRedisStore(rdb, s.RedisPrefix), func() {
			_ = rdb.Close()
			mr.Close()
		}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		store := credential.NewRedisStore(rdb, s.RedisPrefix)
		if err := waitForStore(ctx, store, logger); err != nil {
			_ = rdb.Close()
			return nil, nil, oops.Code("STORE_OPEN_FAILED").With("driver", s.Driver).With("addr", s.RedisAddr).Wrap(err)
		}
		return store, func() { _ = rdb.Close() }, nil

	case "postgres":
		store, pool, err := credential.OpenPostgres(ctx, s.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := waitForStore(ctx, store, logger); err != nil {
			pool.Close()
			return nil, nil, oops.Code("STORE_OPEN_FAILED").With("driver", s.Driver).Wrap(err)
		}
		return store, pool.Close, nil

	default:
		return nil, nil, oops.Code("CONFIG_INVALID").Errorf("unknown store driver %q", s.Driver)
	}
}

// waitForStore pings p with exponential backoff until it answers or the retries run out.
func waitForStore(ctx context.Context, p pinger, logger *slog.Logger) error {
	attempt := 0
	return retry.Do(ctx, storeBackoff(), func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.Warn("store not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
