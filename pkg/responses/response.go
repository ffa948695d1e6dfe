package responses

import (
	stdErrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgErrors "matterlab/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"` // 详细错误信息（可选）
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    pkgErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应，HTTP 状态码由错误码决定
func Error(c *gin.Context, err error) {
	var appErr *pkgErrors.AppError
	if stdErrors.As(err, &appErr) {
		c.JSON(httpStatus(appErr.Code), Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Code:    pkgErrors.CodeInternalError,
		Message: "内部服务器错误",
	})
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

func httpStatus(code int) int {
	switch code {
	case pkgErrors.CodeBadRequest, pkgErrors.CodeValidationError:
		return http.StatusBadRequest
	case pkgErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case pkgErrors.CodeForbidden:
		return http.StatusForbidden
	case pkgErrors.CodeNotFound:
		return http.StatusNotFound
	case pkgErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
