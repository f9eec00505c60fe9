package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/pkg/apperror"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

// ErrorBody 统一错误响应体
type ErrorBody struct {
	Code    string `json:"code" example:"validation_error"`
	Message string `json:"message" example:"missing required field(s): title"`
}

// Success 200 + 原样输出 data
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 201 + 新建资源的表示
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent 204，无响应体
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest 400
func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, apperror.KindValidation, msg)
}

// NotFound 404
func NotFound(c *gin.Context, msg string) {
	abort(c, http.StatusNotFound, apperror.KindNotFound, msg)
}

// InternalError 500，记录日志并上报 Sentry，不向客户端暴露细节
func InternalError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	serverError(c, err)
}

// Recovered 500，用于 panic 恢复；panic 已由 sentrygin 上报，这里只记录日志
func Recovered(c *gin.Context, err error) {
	serverError(c, err)
}

func serverError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	abort(c, http.StatusInternalServerError, apperror.KindOf(err), apperror.ClientMessage(err))
}

// Error 按 apperror 分类选择状态码
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		InternalError(c, err)
		return
	}
	abort(c, status, kind, apperror.ClientMessage(err))
}

func abort(c *gin.Context, status int, kind apperror.Kind, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: kind.String(), Message: msg})
}
