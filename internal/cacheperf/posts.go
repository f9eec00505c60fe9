// Package cacheperf 对比文章读接口在有无 Redis 读缓存时的延迟。
package cacheperf

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/d60-Lab/blog-api/internal/model"
	"github.com/d60-Lab/blog-api/internal/repository"
)

// Op 压测请求类型
type Op int

const (
	OpList Op = iota
	OpGet
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpGet:
		return "get"
	case OpUpdate:
		return "update"
	}
	return "unknown"
}

// Request 一次存储调用
type Request struct {
	Op Op
	ID string
}

// MakeRequests 生成固定种子的混合负载：listRatio 的列表请求，writeRatio 的更新，其余为单篇读取
func MakeRequests(ids []string, n int, listRatio, writeRatio float64, seed int64) []Request {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]Request, n)
	for i := range out {
		x := rnd.Float64()
		switch {
		case x < listRatio || len(ids) == 0:
			out[i] = Request{Op: OpList}
		case x < listRatio+writeRatio:
			out[i] = Request{Op: OpUpdate, ID: ids[rnd.Intn(len(ids))]}
		default:
			out[i] = Request{Op: OpGet, ID: ids[rnd.Intn(len(ids))]}
		}
	}
	return out
}

// Result 单个场景的耗时统计
type Result struct {
	Durations []time.Duration
	PerOp     map[Op]int
}

// Run 顺序执行 reqs；warm 为 true 时先把读请求完整跑一遍预热缓存
func Run(ctx context.Context, repo repository.PostRepository, reqs []Request, warm bool) (Result, error) {
	if warm {
		for _, r := range reqs {
			if r.Op == OpUpdate {
				continue
			}
			if err := call(ctx, repo, r, 0); err != nil {
				return Result{}, err
			}
		}
	}

	res := Result{Durations: make([]time.Duration, 0, len(reqs)), PerOp: map[Op]int{}}
	for i, r := range reqs {
		start := time.Now()
		if err := call(ctx, repo, r, i); err != nil {
			return Result{}, fmt.Errorf("%s %s: %w", r.Op, r.ID, err)
		}
		res.Durations = append(res.Durations, time.Since(start))
		res.PerOp[r.Op]++
	}
	return res, nil
}

func call(ctx context.Context, repo repository.PostRepository, r Request, seq int) error {
	switch r.Op {
	case OpList:
		_, err := repo.FindAll(ctx)
		return err
	case OpGet:
		_, err := repo.FindByID(ctx, r.ID)
		return err
	case OpUpdate:
		title := "bench title " + strconv.Itoa(seq)
		return repo.Update(ctx, r.ID, model.PostFields{Title: &title})
	}
	return fmt.Errorf("unknown op %d", r.Op)
}

func (r Result) Avg() time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range r.Durations {
		sum += v
	}
	return sum / time.Duration(len(r.Durations))
}

// Percentile p 取值 (0,1]
func (r Result) Percentile(p float64) time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), r.Durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ParseRedisMemory 从 INFO memory 输出中取 used_memory
func ParseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
