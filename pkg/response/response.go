// Package response 统一 HTTP JSON 响应与错误码映射
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Status 按错误类别映射 HTTP 状态码
func Status(err error) int {
	switch xerrors.KindOf(err) {
	case xerrors.KindValidation:
		return http.StatusBadRequest
	case xerrors.KindDomain, xerrors.KindNumerical:
		return http.StatusUnprocessableEntity
	case xerrors.KindNotFound:
		return http.StatusNotFound
	}
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("malformed request")

// OK 写入 200 响应
func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// BadRequest 请求体无法解析
func BadRequest(c *gin.Context, err error) {
	Error(c, errors.Join(errBadRequest, err))
}

// Error 写入错误响应，5xx 记录 error 日志
func Error(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := Status(err)
	code := xerrors.CodeOf(err)
	switch {
	case code != "":
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	default:
		code = "INTERNAL"
	}

	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
	} else {
		logger.Debug(ctx, "request rejected", "path", c.FullPath(), "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      code,
		Error:     err.Error(),
		RequestID: logger.RequestID(ctx),
	})
}
