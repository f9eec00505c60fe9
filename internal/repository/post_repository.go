package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/blog-api/internal/model"
)

// ErrPostNotFound 更新或删除的文章不存在
var ErrPostNotFound = errors.New("post not found")

// PostRepository 文章存储
type PostRepository interface {
	// InsertMany 批量写入，ID 为空时自动生成
	InsertMany(ctx context.Context, posts []*model.Post) error
	Create(ctx context.Context, post *model.Post) error

	// FindAll 按创建时间升序返回全部文章
	FindAll(ctx context.Context) ([]*model.Post, error)
	// FindOne 返回任意一篇，库为空时返回 (nil, nil)
	FindOne(ctx context.Context) (*model.Post, error)
	// FindByID 不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Update 只修改 fields 中非 nil 的字段，不存在返回 ErrPostNotFound
	Update(ctx context.Context, id string, fields model.PostFields) error
	// DeleteByID 不存在返回 ErrPostNotFound
	DeleteByID(ctx context.Context, id string) error
	// DropAll 清空全部文章
	DropAll(ctx context.Context) error

	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// prepareForInsert 补全 ID 与时间戳
func prepareForInsert(p *model.Post, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository 基于 gorm 的实现（sqlite / postgres）
func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

// AutoMigrate 初始化文章表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Post{}); err != nil {
		return fmt.Errorf("failed to migrate posts table: %w", err)
	}
	return nil
}

func (r *postRepository) InsertMany(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, p := range posts {
		prepareForInsert(p, now)
	}
	return r.db.WithContext(ctx).CreateInBatches(posts, 500).Error
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	prepareForInsert(post, time.Now().UTC())
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindAll(ctx context.Context) ([]*model.Post, error) {
	res := make([]*model.Post, 0)
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&res).Error
	return res, err
}

func (r *postRepository) FindOne(ctx context.Context) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Order("created_at ASC").Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Update(ctx context.Context, id string, fields model.PostFields) error {
	updates := make(map[string]any, 4)
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.Content != nil {
		updates["content"] = *fields.Content
	}
	if fields.AuthorFirstName != nil {
		updates["author_first_name"] = *fields.AuthorFirstName
	}
	if fields.AuthorLastName != nil {
		updates["author_last_name"] = *fields.AuthorLastName
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) DropAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Post{}).Error
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (r *postRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
