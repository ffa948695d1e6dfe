package errors

import (
	stdErrors "errors"
	"fmt"
)

// 错误码
const (
	CodeSuccess         = 200
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeInternalError   = 500
	CodeDatabaseError   = 501
	CodeAuthError       = 502
	CodeValidationError = 503
	CodeUpstreamError   = 504 // 第三方平台(GitLab/Mattermost)返回错误
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 预定义错误按错误码和消息比较，Wrap 出来的错误与同码同消息的预定义错误相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 获取错误码，非 AppError 返回 CodeInternalError
func CodeOf(err error) int {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	// 具体业务错误
	ErrInvalidParams       = New(CodeBadRequest, "请求参数错误")
	ErrInvalidToken        = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired        = New(CodeUnauthorized, "Token已过期")
	ErrRecordNotFound      = New(CodeNotFound, "记录不存在")
	ErrRecordExists        = New(CodeConflict, "记录已存在")
	ErrBotNotConfigured    = New(CodeInternalError, "Mattermost 机器人未配置")
	ErrGitlabTokenMissing  = New(CodeBadRequest, "请先填写个人访问令牌")
	ErrGitlabTokenInvalid  = New(CodeAuthError, "无效的个人访问令牌")
	ErrWebhookSecretDenied = New(CodeUnauthorized, "Webhook 密钥校验失败")
	ErrMissingActingUser   = New(CodeBadRequest, "缺少操作用户信息")
	ErrMissingChannel      = New(CodeBadRequest, "缺少频道信息")
	ErrMissingPost         = New(CodeBadRequest, "缺少消息信息")
	ErrRepoRequired        = New(CodeBadRequest, "请选择仓库")
	ErrInvalidRepo         = New(CodeBadRequest, "无效的仓库")
	ErrInvalidInterval     = New(CodeBadRequest, "请选择提醒时间")
	ErrInvalidDatetime     = New(CodeBadRequest, "时间格式错误，应为 01.01.1970 09:00")
	ErrDatetimeInPast      = New(CodeBadRequest, "提醒时间必须晚于当前时间")
)
