package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/internal/cacheperf"
	"github.com/d60-Lab/blog-api/internal/fixture"
	"github.com/d60-Lab/blog-api/internal/repository"
	"github.com/d60-Lab/blog-api/internal/server"
	"github.com/d60-Lab/blog-api/pkg/cache"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file")
		posts      = flag.Int("posts", 2000, "number of posts to seed")
		requests   = flag.Int("requests", 5000, "requests per scenario")
		listRatio  = flag.Float64("list", 0.2, "share of list requests")
		writeRatio = flag.Float64("write", 0.05, "share of update requests")
		seed       = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	if err := logger.Init("warn", "console"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := must(config.LoadFrom(*configPath))
	ctx := context.Background()

	store := must(server.OpenStore(ctx, cfg))
	defer store.Close()

	cfg.Redis.Enabled = true
	client := must(cache.InitRedis(ctx, cfg))
	defer client.Close()

	fmt.Printf("Seeding %d posts into %s...\n", *posts, cfg.Database.Driver)
	mustDo(store.DropAll(ctx))
	seeded := must(fixture.Seed(ctx, store, fixture.NewGenerator(*seed), *posts))
	ids := make([]string, len(seeded))
	for i, p := range seeded {
		ids[i] = p.ID
	}

	reqs := cacheperf.MakeRequests(ids, *requests, *listRatio, *writeRatio, *seed)
	cached := repository.NewCachedPostRepository(store, client, cfg.Redis.TTL)

	noCache := runScenario(ctx, store, reqs, false, client)
	readThrough := runScenario(ctx, cached, reqs, true, client)

	fmt.Printf("\nPost read latency (%d req, %d posts, %s + Redis, list=%.2f write=%.2f)\n",
		len(reqs), len(ids), cfg.Database.Driver, *listRatio, *writeRatio)
	report("No cache", noCache)
	report("Read-through", readThrough)

	mustDo(store.DropAll(ctx))
}

type scenarioResult struct {
	cacheperf.Result
	cacheKeys   int64
	memoryBytes int64
}

func runScenario(ctx context.Context, repo repository.PostRepository, reqs []cacheperf.Request, warm bool, client *redis.Client) scenarioResult {
	mustDo(client.FlushDB(ctx).Err())

	fmt.Print("  Running benchmark...")
	res := must(cacheperf.Run(ctx, repo, reqs, warm))
	fmt.Println(" done")

	keys, err := client.DBSize(ctx).Result()
	if err != nil {
		logger.Warn("redis dbsize failed", zap.Error(err))
	}
	var mem int64
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		mem = cacheperf.ParseRedisMemory(info)
	}
	return scenarioResult{Result: res, cacheKeys: keys, memoryBytes: mem}
}

func report(name string, r scenarioResult) {
	fmt.Printf("%-14s avg=%v p95=%v p99=%v list=%d get=%d update=%d cache_keys=%d mem=%s\n",
		name, r.Avg(), r.Percentile(0.95), r.Percentile(0.99),
		r.PerOp[cacheperf.OpList], r.PerOp[cacheperf.OpGet], r.PerOp[cacheperf.OpUpdate],
		r.cacheKeys, cacheperf.FormatBytes(r.memoryBytes),
	)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
