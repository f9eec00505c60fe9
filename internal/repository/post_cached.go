package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/internal/model"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

const (
	postListKey      = "posts:list"
	postItemKeyPfx   = "posts:item:"
	postItemScanGlob = postItemKeyPfx + "*"

	// postGenKey DropAll 时递增，使所有进行中的回填失效
	postGenKey        = "posts:gen"
	postVersionKeyPfx = "posts:ver:"
)

func postItemKey(id string) string { return postItemKeyPfx + id }

func postVersionKey(key string) string { return postVersionKeyPfx + key }

// errStaleFill 回填期间数据已被修改
var errStaleFill = errors.New("post cache fill is stale")

// CachedPostRepository 列表与单篇读穿透缓存。
// 写操作递增相关 key 的版本号并删除缓存；回填时在 WATCH 下比较版本号，
// 读取期间发生过写入的旧数据不会写回 Redis。
type CachedPostRepository struct {
	next  PostRepository
	cache *redis.Client
	ttl   time.Duration

	// bypassUntil 失效失败后在一个 TTL 内绕过缓存（unix nano）
	bypassUntil atomic.Int64
}

var _ PostRepository = (*CachedPostRepository)(nil)

// NewCachedPostRepository 包装 next，Redis 故障时直接回源
func NewCachedPostRepository(next PostRepository, cache *redis.Client, ttl time.Duration) *CachedPostRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedPostRepository{next: next, cache: cache, ttl: ttl}
}

func (r *CachedPostRepository) InsertMany(ctx context.Context, posts []*model.Post) error {
	if err := r.next.InsertMany(ctx, posts); err != nil {
		return err
	}
	r.invalidate(ctx, postListKey)
	return nil
}

func (r *CachedPostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.next.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, postListKey)
	return nil
}

func (r *CachedPostRepository) FindAll(ctx context.Context) ([]*model.Post, error) {
	var cached []cachedPost
	if r.get(ctx, postListKey, &cached) {
		out := make([]*model.Post, len(cached))
		for i := range cached {
			out[i] = cached[i].toModel()
		}
		return out, nil
	}

	version, ok := r.version(ctx, postListKey)
	posts, err := r.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.fill(ctx, postListKey, version, posts)
	}
	return posts, nil
}

func (r *CachedPostRepository) FindOne(ctx context.Context) (*model.Post, error) {
	return r.next.FindOne(ctx)
}

func (r *CachedPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	key := postItemKey(id)
	var cached cachedPost
	if r.get(ctx, key, &cached) {
		return cached.toModel(), nil
	}

	version, ok := r.version(ctx, key)
	p, err := r.next.FindByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if ok {
		r.fill(ctx, key, version, p)
	}
	return p, nil
}

func (r *CachedPostRepository) Update(ctx context.Context, id string, fields model.PostFields) error {
	if err := r.next.Update(ctx, id, fields); err != nil {
		return err
	}
	r.invalidate(ctx, postListKey, postItemKey(id))
	return nil
}

func (r *CachedPostRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, postListKey, postItemKey(id))
	return nil
}

func (r *CachedPostRepository) DropAll(ctx context.Context) error {
	if err := r.next.DropAll(ctx); err != nil {
		return err
	}

	if err := r.cache.Incr(ctx, postGenKey).Err(); err != nil {
		logger.Warn("bump post cache generation failed", zap.Error(err))
		r.startBypass()
		return nil
	}

	keys := []string{postListKey}
	iter := r.cache.Scan(ctx, 0, postItemScanGlob, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("scan post cache keys failed", zap.Error(err))
		r.startBypass()
	}
	r.invalidate(ctx, keys...)
	return nil
}

func (r *CachedPostRepository) Count(ctx context.Context) (int64, error) {
	return r.next.Count(ctx)
}

// Ping 只检查主存储；缓存不可用不影响服务
func (r *CachedPostRepository) Ping(ctx context.Context) error {
	if err := r.cache.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.Error(err))
	}
	return r.next.Ping(ctx)
}

// Close 只关闭被包装的存储，Redis 客户端由创建方关闭
func (r *CachedPostRepository) Close() error {
	return r.next.Close()
}

func (r *CachedPostRepository) get(ctx context.Context, key string, dst any) bool {
	if r.bypassing() {
		return false
	}
	data, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("post cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("post cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// version 读取回源前的版本快照，失败或处于绕过期时不回填
func (r *CachedPostRepository) version(ctx context.Context, key string) (string, bool) {
	if r.bypassing() {
		return "", false
	}
	vals, err := r.cache.MGet(ctx, postGenKey, postVersionKey(key)).Result()
	if err != nil {
		logger.Warn("post cache version read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return versionString(vals), true
}

func versionString(vals []interface{}) string {
	return fmt.Sprintf("%v/%v", vals[0], vals[1])
}

// fill 仅当版本号与回源前一致时写入缓存
func (r *CachedPostRepository) fill(ctx context.Context, key, version string, v any) {
	payload, err := json.Marshal(cacheValue(v))
	if err != nil {
		logger.Warn("post cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	verKey := postVersionKey(key)
	err = r.cache.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.MGet(ctx, postGenKey, verKey).Result()
		if err != nil {
			return err
		}
		if versionString(vals) != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, postGenKey, verKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		logger.Debug("post cache fill skipped", zap.String("key", key))
	default:
		logger.Warn("post cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate 递增版本号并删除缓存；失败时本进程在一个 TTL 内不再信任缓存
func (r *CachedPostRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			verKey := postVersionKey(key)
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, r.versionTTL())
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Warn("post cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
		r.startBypass()
	}
}

// versionTTL 版本号需比任何一次回源读取存活更久
func (r *CachedPostRepository) versionTTL() time.Duration {
	if d := 2 * r.ttl; d > time.Hour {
		return d
	}
	return time.Hour
}

func (r *CachedPostRepository) startBypass() {
	r.bypassUntil.Store(time.Now().Add(r.ttl).UnixNano())
}

func (r *CachedPostRepository) bypassing() bool {
	return time.Now().UnixNano() < r.bypassUntil.Load()
}

// cachedPost 缓存编码；model.Post 的 json 标签隐藏了 UpdatedAt
type cachedPost struct {
	model.Post
	UpdatedAt time.Time `json:"updated"`
}

func (c cachedPost) toModel() *model.Post {
	p := c.Post
	p.UpdatedAt = c.UpdatedAt
	return &p
}

func cacheValue(v any) any {
	switch t := v.(type) {
	case *model.Post:
		return cachedPost{Post: *t, UpdatedAt: t.UpdatedAt}
	case []*model.Post:
		out := make([]cachedPost, len(t))
		for i, p := range t {
			out[i] = cachedPost{Post: *p, UpdatedAt: p.UpdatedAt}
		}
		return out
	default:
		panic(fmt.Sprintf("unsupported cache value %T", v))
	}
}
