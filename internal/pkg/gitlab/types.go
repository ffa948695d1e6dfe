package gitlab

// User GitLab 用户
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Project GitLab 项目
type Project struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	PathWithNamespace string  `json:"path_with_namespace"`
	WebURL            string  `json:"web_url"`
	AvatarURL         *string `json:"avatar_url"`
}

// Hook 项目 webhook
type Hook struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	PipelineEvents bool   `json:"pipeline_events"`
	PushEvents     bool   `json:"push_events"`
}

// CreateHookOptions 创建 webhook 参数
type CreateHookOptions struct {
	URL                   string `json:"url"`
	EnableSSLVerification bool   `json:"enable_ssl_verification"`
	PipelineEvents        bool   `json:"pipeline_events"`
	PushEvents            bool   `json:"push_events"`
	Token                 string `json:"token,omitempty"`
}

// PipelineHookOptions 只订阅流水线事件的 webhook
func PipelineHookOptions(url, secret string) CreateHookOptions {
	return CreateHookOptions{
		URL:                   url,
		EnableSSLVerification: false,
		PipelineEvents:        true,
		PushEvents:            false,
		Token:                 secret,
	}
}
