package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/blog-api/internal/dto"
	"github.com/d60-Lab/blog-api/pkg/response"
)

// ListPosts 查询全部文章
// @Summary 文章列表
// @Tags 文章
// @Produce json
// @Success 200 {object} dto.PostListResponse
// @Failure 500 {object} response.ErrorBody
// @Router /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewPostListResponse(posts))
}

// GetPost 查询单篇文章
// @Summary 文章详情
// @Tags 文章
// @Produce json
// @Param id path string true "文章ID"
// @Success 200 {object} dto.PostResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewPostResponse(post))
}

// CreatePost 创建文章
// @Summary 创建文章
// @Tags 文章
// @Accept json
// @Produce json
// @Param request body dto.CreatePostRequest true "文章内容"
// @Success 201 {object} dto.PostResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	post, err := h.postService.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewPostResponse(post))
}

// UpdatePost 更新文章，只修改请求体中出现的字段
// @Summary 更新文章
// @Tags 文章
// @Accept json
// @Param id path string true "文章ID"
// @Param request body dto.UpdatePostRequest true "待更新字段"
// @Success 204
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.postService.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeletePost 删除文章
// @Summary 删除文章
// @Tags 文章
// @Param id path string true "文章ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.postService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
