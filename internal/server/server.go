package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/internal/api"
	"github.com/d60-Lab/blog-api/internal/api/handler"
	"github.com/d60-Lab/blog-api/internal/repository"
	"github.com/d60-Lab/blog-api/internal/service"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

// Server 组装存储、服务与路由
type Server struct {
	cfg    *config.Config
	repo   repository.PostRepository
	redis  *redis.Client
	engine *gin.Engine
}

// New 打开存储并构建 HTTP 路由
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	repo, rdb, err := wrapCache(ctx, cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
	}

	h := handler.NewHandler(service.NewPostService(repo), repo)
	return &Server{
		cfg:    cfg,
		repo:   repo,
		redis:  rdb,
		engine: api.SetupRouter(cfg, h),
	}, nil
}

// Handler 返回 HTTP 处理器（测试直接使用）
func (s *Server) Handler() http.Handler { return s.engine }

// Repository 返回当前使用的文章存储（含缓存层）
func (s *Server) Repository() repository.PostRepository { return s.repo }

// Run 监听端口直到 ctx 取消，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger.L().Named("http")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", s.cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// Close 释放存储与 Redis 连接
func (s *Server) Close() error {
	var errs []error
	if err := s.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.cfg.Sentry.DSN != "" {
		sentry.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}
