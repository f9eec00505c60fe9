package handler

import (
	"context"

	"github.com/d60-Lab/blog-api/internal/service"
)

// Pinger 存储健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler HTTP 处理器
type Handler struct {
	postService service.PostService
	store       Pinger
}

func NewHandler(postService service.PostService, store Pinger) *Handler {
	return &Handler{postService: postService, store: store}
}
