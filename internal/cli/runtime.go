package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"langquiz-service/internal/app"
	"langquiz-service/internal/config"
	"langquiz-service/internal/infra/memory"
	"langquiz-service/internal/infra/postgres"
	"langquiz-service/internal/logger"
)

// backend holds the storage handles selected by config. Without a postgres
// url everything lives in process memory and is lost on exit.
type backend struct {
	store   app.Store
	loader  app.QuizLoader
	redis   *redis.Client
	closers []func()
}

func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*backend, error) {
	b := &backend{}
	if cfg.Postgres.URL == "" {
		log.Warn("postgres url not configured, using in-memory storage")
		store := memory.NewStore()
		b.store, b.loader = store, store
	} else {
		db := postgres.OpenBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		pool, err := postgres.OpenPool(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.store = postgres.NewStore(db)
		b.loader = postgres.NewQuizLoader(pool)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
		}
		b.redis = client
		b.closers = append(b.closers, func() { _ = client.Close() })
	}
	return b, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
