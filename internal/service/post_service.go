package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/blog-api/internal/dto"
	"github.com/d60-Lab/blog-api/internal/model"
	"github.com/d60-Lab/blog-api/internal/repository"
	"github.com/d60-Lab/blog-api/internal/validation"
	"github.com/d60-Lab/blog-api/pkg/apperror"
)

const tracerName = "github.com/d60-Lab/blog-api/internal/service"

// PostService 文章服务
type PostService interface {
	List(ctx context.Context) ([]*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error)
	Update(ctx context.Context, id string, req dto.UpdatePostRequest) error
	Delete(ctx context.Context, id string) error
}

type postService struct {
	repo     repository.PostRepository
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewPostService(repo repository.PostRepository) PostService {
	return &postService{
		repo:     repo,
		validate: validation.New(),
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *postService) List(ctx context.Context) ([]*model.Post, error) {
	ctx, span := s.tracer.Start(ctx, "PostService.List")
	defer span.End()

	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fail(span, apperror.Persistence(err, "list posts"))
	}
	span.SetAttributes(attribute.Int("post.count", len(posts)))
	return posts, nil
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	ctx, span := s.tracer.Start(ctx, "PostService.Get", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, apperror.Persistence(err, "get post"))
	}
	if p == nil {
		return nil, fail(span, apperror.NotFound("post %s not found", id))
	}
	return p, nil
}

// Create 校验必填字段后写入，ID 由存储生成
func (s *postService) Create(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error) {
	ctx, span := s.tracer.Start(ctx, "PostService.Create")
	defer span.End()

	if err := s.validate.StructCtx(ctx, req); err != nil {
		if missing := validation.MissingFields(err); len(missing) > 0 {
			return nil, fail(span, apperror.Validation("missing required field(s): %s", strings.Join(missing, ", ")))
		}
		return nil, fail(span, invalid(err))
	}

	p := req.ToModel()
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fail(span, apperror.Persistence(err, "create post"))
	}
	span.SetAttributes(attribute.String("post.id", p.ID), attribute.String("post.author", p.Author.FullName()))
	return p, nil
}

// Update 部分更新：只修改请求中出现的字段
func (s *postService) Update(ctx context.Context, id string, req dto.UpdatePostRequest) error {
	ctx, span := s.tracer.Start(ctx, "PostService.Update", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if req.ID != nil && *req.ID != id {
		return fail(span, apperror.Validation("request path id (%s) and request body id (%s) must match", id, *req.ID))
	}

	fields := req.Fields()
	if fields.Empty() {
		return fail(span, apperror.Validation("no updatable field supplied (title, author, content)"))
	}
	if blank := blankFields(fields); len(blank) > 0 {
		return fail(span, apperror.Validation("field(s) must not be blank: %s", strings.Join(blank, ", ")))
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return fail(span, invalid(err))
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return fail(span, apperror.NotFound("post %s not found", id))
		}
		return fail(span, apperror.Persistence(err, "update post"))
	}
	return nil
}

func (s *postService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "PostService.Delete", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return fail(span, apperror.NotFound("post %s not found", id))
		}
		return fail(span, apperror.Persistence(err, "delete post"))
	}
	return nil
}

func blankFields(f model.PostFields) []string {
	var out []string
	check := func(name string, v *string) {
		if v != nil && strings.TrimSpace(*v) == "" {
			out = append(out, name)
		}
	}
	check("title", f.Title)
	check("author.firstName", f.AuthorFirstName)
	check("author.lastName", f.AuthorLastName)
	check("content", f.Content)
	return out
}

// invalid 除缺失字段外的校验失败，长度超限单独说明
func invalid(err error) *apperror.Error {
	if long := validation.TooLong(err); len(long) > 0 {
		return apperror.Validation("field(s) exceed maximum length: %s", strings.Join(long, ", "))
	}
	return apperror.Validation("invalid request: %v", err)
}

// fail 在 span 上记录错误；校验与不存在属于客户端错误，不标记 span 失败
func fail(span trace.Span, err *apperror.Error) error {
	span.RecordError(err)
	if err.Kind == apperror.KindPersistence {
		span.SetStatus(codes.Error, err.Message)
	}
	return err
}
