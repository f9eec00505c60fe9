package dto

import (
	"time"

	"github.com/d60-Lab/blog-api/internal/model"
)

// AuthorDTO 作者
type AuthorDTO struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=100" example:"Ada"`
	LastName  string `json:"lastName" validate:"required,notblank,max=100" example:"Lovelace"`
}

// CreatePostRequest POST /posts 请求体
type CreatePostRequest struct {
	Title   string     `json:"title" validate:"required,notblank,max=255" example:"A good title"`
	Author  *AuthorDTO `json:"author" validate:"required"`
	Content string     `json:"content" validate:"required,notblank" example:"Lorem ipsum"`
}

// ToModel 转换为待写入的文章
func (r CreatePostRequest) ToModel() *model.Post {
	p := &model.Post{Title: r.Title, Content: r.Content}
	if r.Author != nil {
		p.Author = model.Author{FirstName: r.Author.FirstName, LastName: r.Author.LastName}
	}
	return p
}

// UpdateAuthorDTO 更新作者时可只提供部分字段
type UpdateAuthorDTO struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
}

// UpdatePostRequest PUT /posts/:id 请求体，未出现的字段保持不变
type UpdatePostRequest struct {
	ID      *string          `json:"id,omitempty"`
	Title   *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Author  *UpdateAuthorDTO `json:"author,omitempty"`
	Content *string          `json:"content,omitempty"`
}

// Fields 转换为存储层的部分更新
func (r UpdatePostRequest) Fields() model.PostFields {
	f := model.PostFields{Title: r.Title, Content: r.Content}
	if r.Author != nil {
		f.AuthorFirstName = r.Author.FirstName
		f.AuthorLastName = r.Author.LastName
	}
	return f
}

// PostResponse 文章对外表示
type PostResponse struct {
	ID      string    `json:"id" validate:"required" example:"6f1c2a4e-8d8b-4a8e-9b62-3f1f4f0c9a11"`
	Title   string    `json:"title" validate:"required" example:"A good title"`
	Author  AuthorDTO `json:"author"`
	Content string    `json:"content" validate:"required" example:"Lorem ipsum"`
	Created time.Time `json:"created" example:"2024-01-02T15:04:05Z"`
}

// PostListResponse GET /posts 响应
type PostListResponse struct {
	Posts []PostResponse `json:"posts" validate:"dive"`
}

func NewPostResponse(p *model.Post) PostResponse {
	return PostResponse{
		ID:      p.ID,
		Title:   p.Title,
		Author:  AuthorDTO{FirstName: p.Author.FirstName, LastName: p.Author.LastName},
		Content: p.Content,
		Created: p.CreatedAt,
	}
}

func NewPostListResponse(posts []*model.Post) PostListResponse {
	out := PostListResponse{Posts: make([]PostResponse, 0, len(posts))}
	for _, p := range posts {
		out.Posts = append(out.Posts, NewPostResponse(p))
	}
	return out
}
