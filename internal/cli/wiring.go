package cli

import (
	"context"
	"fmt"
	"time"

	"quiz-session-client/internal/api"
	"quiz-session-client/internal/app"
	"quiz-session-client/internal/config"
	"quiz-session-client/internal/infra/jsonfile"
	"quiz-session-client/internal/infra/memory"
	pgstore "quiz-session-client/internal/infra/postgres"
	redisstore "quiz-session-client/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// buildService assembles the attempt service from config: the HTTP backend
// client, a TTL cache in front of quiz fetches, and whichever store backend
// the config selects. The returned closer releases connections.
func buildService(ctx context.Context, cfg config.Config) (*app.AttemptService, func(), error) {
	if cfg.API.BaseURL == "" {
		return nil, nil, fmt.Errorf("api base_url not configured")
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	timeout := config.TTLDuration(cfg.API.Timeout, 10*time.Second)
	client := api.NewHTTPClient(cfg.API.BaseURL, timeout)

	quizTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	quizzes := memory.NewQuizCache(client, quizTTL)

	store, closer, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.NewAttemptService(store, client, quizzes), closer, nil
}

func buildStore(ctx context.Context, cfg config.Config) (app.AttemptStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "", "memory":
		return memory.NewAttemptStore(), noop, nil
	case "file":
		path := cfg.Store.Path
		if path == "" {
			path = "quiz-history.json"
		}
		return jsonfile.NewAttemptStore(path), noop, nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("redis backend selected but no addr configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Redis.TTL, 0)
		return redisstore.NewAttemptStore(client, ttl), func() { _ = client.Close() }, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres backend selected but no url configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewAttemptStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
