package dto

import (
	"github.com/samber/lo"

	"matterlab/pkg/constants"
)

// WebhookKind 仅用于识别事件类型
type WebhookKind struct {
	ObjectKind string `json:"object_kind"`
}

// PipelineWebhook GitLab 流水线事件
type PipelineWebhook struct {
	ObjectKind       string             `json:"object_kind" binding:"required,eq=pipeline"`
	Builds           []PipelineBuild    `json:"builds" binding:"required,dive"`
	ObjectAttributes PipelineAttributes `json:"object_attributes"`
	User             WebhookUser        `json:"user"`
	Project          WebhookProject     `json:"project"`
	Commit           WebhookCommit      `json:"commit"`
}

// PipelineAttributes 流水线属性
type PipelineAttributes struct {
	ID     int64  `json:"id" binding:"required"`
	IID    int64  `json:"iid" binding:"required"`
	Ref    string `json:"ref" binding:"required"`
	Source string `json:"source"`
	Status string `json:"status" binding:"required"`
	URL    string `json:"url" binding:"required,url"`
}

// PipelineBuild 流水线中的 job
type PipelineBuild struct {
	ID           int64  `json:"id"`
	Stage        string `json:"stage" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Status       string `json:"status" binding:"required"`
	AllowFailure bool   `json:"allow_failure"`
}

// WebhookUser 触发流水线的用户
type WebhookUser struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name" binding:"required"`
	Username  string  `json:"username" binding:"required"`
	AvatarURL string  `json:"avatar_url" binding:"omitempty,url"`
	Email     *string `json:"email"`
}

// WebhookProject 项目属性
type WebhookProject struct {
	ID                int64   `json:"id" binding:"required"`
	Name              string  `json:"name" binding:"required"`
	WebURL            string  `json:"web_url" binding:"required,url"`
	PathWithNamespace *string `json:"path_with_namespace"`
	AvatarURL         *string `json:"avatar_url"`
}

// WebhookCommit 提交属性
type WebhookCommit struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title" binding:"required"`
	URL   string `json:"url" binding:"required,url"`
}

// Normalize 计算有效状态并处理脱敏邮箱，在绑定成功后调用一次
// success 且存在允许失败的失败 job 时降级为 warning
func (w *PipelineWebhook) Normalize() {
	if w.ObjectAttributes.Status == constants.PipelineStatusSuccess && w.AllowedFailedJob() != nil {
		w.ObjectAttributes.Status = constants.PipelineStatusWarning
	}
	if w.User.Email != nil && (*w.User.Email == constants.RedactedEmail || *w.User.Email == "") {
		w.User.Email = nil
	}
}

// Status 有效状态
func (w *PipelineWebhook) Status() string {
	return w.ObjectAttributes.Status
}

// Notifiable 是否需要发送通知
func (w *PipelineWebhook) Notifiable() bool {
	return lo.Contains(constants.NotifiableStatuses, w.Status())
}

// FailedJob 第一个不允许失败的失败 job
func (w *PipelineWebhook) FailedJob() *PipelineBuild {
	return w.findBuild(func(b PipelineBuild) bool {
		return b.Status == constants.PipelineStatusFailed && !b.AllowFailure
	})
}

// AllowedFailedJob 第一个允许失败的失败 job
func (w *PipelineWebhook) AllowedFailedJob() *PipelineBuild {
	return w.findBuild(func(b PipelineBuild) bool {
		return b.Status == constants.PipelineStatusFailed && b.AllowFailure
	})
}

func (w *PipelineWebhook) findBuild(match func(PipelineBuild) bool) *PipelineBuild {
	_, idx, ok := lo.FindIndexOf(w.Builds, match)
	if !ok {
		return nil
	}
	return &w.Builds[idx]
}
