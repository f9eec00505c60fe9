package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/blog-api/pkg/response"
)

// Recovery panic 转为 500 JSON 错误
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		response.Recovered(c, err)
	})
}
