// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message, "data": nil})
}

// statusFor 把错误类别映射为 HTTP 状态码。
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage 返回可以展示给客户端的错误信息，内部错误不透出细节。
func publicMessage(err error) string {
	var e *apperror.Error
	if !errors.As(err, &e) {
		return "服务器内部错误"
	}
	switch e.Kind {
	case apperror.KindValidation:
		return e.Message
	case apperror.KindBackend:
		return "AI 服务暂时不可用，请稍后重试"
	case apperror.KindMalformedResponse:
		return "AI 响应格式无效"
	default:
		return "服务器内部错误"
	}
}

func fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		log.Errorw(op+" 失败", "error", err, "kind", apperror.KindOf(err).String())
	} else {
		log.Warnw(op+" 请求无效", "error", err)
	}
	c.JSON(status, gin.H{"code": status, "message": publicMessage(err), "data": nil})
}
