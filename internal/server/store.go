package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/internal/repository"
	"github.com/d60-Lab/blog-api/pkg/cache"
	"github.com/d60-Lab/blog-api/pkg/database"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

// OpenStore 按 database.driver 打开文章存储并完成建表/建索引
func OpenStore(ctx context.Context, cfg *config.Config) (repository.PostRepository, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := database.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		logger.Info("mongo store ready", zap.String("database", cfg.Database.MongoDatabase))
		return repository.NewMongoPostRepository(db), nil
	default:
		db, err := database.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			_ = database.CloseDB(db)
			return nil, err
		}
		logger.Info("sql store ready", zap.String("driver", cfg.Database.Driver))
		return repository.NewPostRepository(db), nil
	}
}

// wrapCache redis.enabled 时为存储加一层读缓存
func wrapCache(ctx context.Context, cfg *config.Config, store repository.PostRepository) (repository.PostRepository, *redis.Client, error) {
	if !cfg.Redis.Enabled {
		return store, nil, nil
	}
	client, err := cache.InitRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("post cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return repository.NewCachedPostRepository(store, client, cfg.Redis.TTL), client, nil
}
