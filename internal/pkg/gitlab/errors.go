package gitlab

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError GitLab 返回的非 2xx 响应，保留响应体便于排查
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitlab %s %s 失败 (状态码: %d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsUnauthorized 令牌无效或已过期
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound 资源不存在
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
