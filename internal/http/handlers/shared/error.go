package shared

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应；err 非空时记录日志，业务错误不传 err。
func RespondError(c *gin.Context, code int, reason, msg string, err error) {
	appErr := response.WrapError(code, reason, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"reason", appErr.Reason,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Reason, appErr.Message)
}

// RespondBadRequest 请求参数错误
func RespondBadRequest(c *gin.Context, msg string) {
	RespondError(c, response.CodeBadRequest, "bad_request", msg, nil)
}
