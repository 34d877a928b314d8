package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transcription-service/pkg/errno"
	"transcription-service/pkg/logger"
)

// ErrorBody 失败响应的统一结构
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Success 以 200 返回数据
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, data)
}

// Failed 把 err 映射为错误码与 HTTP 状态
func Failed(ctx *gin.Context, err error) {
	code, status, message, detail := errno.Decode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", map[string]interface{}{
			"path":       ctx.FullPath(),
			"code":       code,
			"error":      detail,
			"request_id": ctx.GetString("request_id"),
		})
	}
	ctx.AbortWithStatusJSON(status, ErrorBody{Code: code, Message: message, Detail: detail})
}
