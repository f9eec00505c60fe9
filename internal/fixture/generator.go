// Package fixture 生成可复现的测试 / 演示文章数据。
package fixture

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/d60-Lab/blog-api/internal/model"
)

// DefaultCount 每次测试默认写入的文章数
const DefaultCount = 10

var titles = []string{
	"A title", "A good title", "A better title", "An even better title", "The best title",
}

// Generator 相同 seed 产生相同序列
type Generator struct {
	faker *gofakeit.Faker
}

func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

func (g *Generator) Title() string {
	return titles[g.faker.IntRange(0, len(titles)-1)]
}

func (g *Generator) Author() model.Author {
	return model.Author{FirstName: g.faker.FirstName(), LastName: g.faker.LastName()}
}

// Content 随机选择 多段 / 单段 / 若干词
func (g *Generator) Content() string {
	switch g.faker.IntRange(0, 2) {
	case 0:
		return g.faker.Paragraph(3, 4, 12, "\n\n")
	case 1:
		return g.faker.Paragraph(1, 4, 12, "")
	default:
		return g.faker.Sentence(g.faker.IntRange(3, 8))
	}
}

// Post 生成一篇未落库的文章（无 ID）
func (g *Generator) Post() *model.Post {
	return &model.Post{Title: g.Title(), Author: g.Author(), Content: g.Content()}
}

func (g *Generator) Posts(n int) []*model.Post {
	out := make([]*model.Post, n)
	for i := range out {
		out[i] = g.Post()
	}
	return out
}

// Inserter repository.PostRepository 的写入子集
type Inserter interface {
	InsertMany(ctx context.Context, posts []*model.Post) error
}

// Seed 生成 n 篇文章写入 repo，返回写入后的文章（已带 ID）
func Seed(ctx context.Context, repo Inserter, g *Generator, n int) ([]*model.Post, error) {
	posts := g.Posts(n)
	if err := repo.InsertMany(ctx, posts); err != nil {
		return nil, fmt.Errorf("seed %d posts: %w", n, err)
	}
	return posts, nil
}
