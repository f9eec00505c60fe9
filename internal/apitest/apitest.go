// Package apitest 为 HTTP 集成测试提供独立的运行环境：
// 每个测试拥有自己的内存库与连接，预置确定性的测试数据，结束时清空并关闭。
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/internal/fixture"
	"github.com/d60-Lab/blog-api/internal/model"
	"github.com/d60-Lab/blog-api/internal/repository"
	"github.com/d60-Lab/blog-api/internal/server"
	"github.com/d60-Lab/blog-api/internal/validation"
)

// DefaultSeed 固定随机种子，保证每次运行的测试数据一致
const DefaultSeed int64 = 20240101

type options struct {
	seedCount int
	seed      int64
	cache     bool
	mutate    []func(*config.Config)
}

// Option 调整测试环境
type Option func(*options)

// WithSeedCount 预置文章数量，0 表示空库
func WithSeedCount(n int) Option { return func(o *options) { o.seedCount = n } }

// WithSeed 更换随机种子
func WithSeed(seed int64) Option { return func(o *options) { o.seed = seed } }

// WithCache 启用 miniredis 读缓存
func WithCache() Option { return func(o *options) { o.cache = true } }

// WithConfig 在创建服务前修改配置
func WithConfig(fn func(*config.Config)) Option {
	return func(o *options) { o.mutate = append(o.mutate, fn) }
}

// Env 单个测试的运行环境
type Env struct {
	t        *testing.T
	Server   *server.Server
	Store    repository.PostRepository
	Redis    *miniredis.Miniredis
	Seeded   []*model.Post
	validate *validator.Validate
}

// New 创建环境并注册清理函数
func New(t *testing.T, opts ...Option) *Env {
	t.Helper()

	o := options{seedCount: fixture.DefaultCount, seed: DefaultSeed}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))
	cfg.Swagger.Enabled = false

	env := &Env{t: t, validate: validation.New()}
	if o.cache {
		env.Redis = miniredis.RunT(t)
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = env.Redis.Addr()
	}
	for _, fn := range o.mutate {
		fn(cfg)
	}

	ctx := context.Background()
	srv, err := server.New(ctx, cfg)
	require.NoError(t, err, "start server")
	env.Server = srv
	env.Store = srv.Repository()

	t.Cleanup(func() {
		if err := env.Store.DropAll(context.Background()); err != nil {
			t.Errorf("drop posts: %v", err)
		}
		if err := srv.Close(); err != nil {
			t.Errorf("close server: %v", err)
		}
	})

	if o.seedCount > 0 {
		env.Seeded, err = fixture.Seed(ctx, env.Store, fixture.NewGenerator(o.seed), o.seedCount)
		require.NoError(t, err, "seed posts")
	}
	return env
}

// Do 发送请求；body 为 string 或 []byte 时原样发送，其余编码为 JSON
func (e *Env) Do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(e.t, err, "encode request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Server.Handler().ServeHTTP(w, req)
	return w
}

// FindByID 直接从存储读取，绕过 HTTP
func (e *Env) FindByID(id string) *model.Post {
	e.t.Helper()
	p, err := e.Store.FindByID(context.Background(), id)
	require.NoError(e.t, err, "find post %s", id)
	return p
}

// DecodeJSON 解码响应并按 validate 标签做结构校验
func DecodeJSON[T any](e *Env, w *httptest.ResponseRecorder) T {
	e.t.Helper()

	var out T
	require.Equal(e.t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), "decode body: %s", w.Body.String())
	require.NoError(e.t, e.validate.Struct(out), "response shape")
	return out
}

// RequireStatus 断言状态码，失败时带上响应体
func (e *Env) RequireStatus(w *httptest.ResponseRecorder, want int) {
	e.t.Helper()
	require.Equal(e.t, want, w.Code, "unexpected status %s: %s", http.StatusText(w.Code), w.Body.String())
}
