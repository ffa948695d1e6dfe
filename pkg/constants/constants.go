package constants

// 流水线状态
const (
	PipelineStatusSuccess  = "success"
	PipelineStatusFailed   = "failed"
	PipelineStatusWarning  = "warning"
	PipelineStatusRunning  = "running"
	PipelineStatusPending  = "pending"
	PipelineStatusCanceled = "canceled"
	PipelineStatusSkipped  = "skipped"
)

// NotifiableStatuses 需要发送通知的流水线状态
var NotifiableStatuses = []string{
	PipelineStatusSuccess,
	PipelineStatusWarning,
	PipelineStatusFailed,
}

// Webhook 事件类型
const (
	ObjectKindPipeline = "pipeline"
)

// 脱敏邮箱占位符
const RedactedEmail = "[REDACTED]"

// HTTP Header
const (
	HeaderAuthorization     = "Authorization"
	HeaderBearerPrefix      = "Bearer "
	HeaderPrivateToken      = "PRIVATE-TOKEN"
	HeaderGitlabToken       = "X-Gitlab-Token"
	HeaderGitlabEventUUID   = "X-Gitlab-Event-UUID"
	HeaderForwardedProto    = "X-Forwarded-Proto"
	HeaderAppsAuthorization = "Mattermost-App-Authorization"
	HeaderRequestID         = "X-Request-ID"
)

// Context key
const (
	ContextKeyRequestID = "request_id"
	ContextKeyAppsClaim = "apps_claims"
)

// Apps 应用信息
const (
	AppID          = "matterlab"
	AppDisplayName = "Matterlab"
	AppVersion     = "v0.0.1"
	AppHomepage    = "https://gitlab.com/creonit/matterlab"
	AppIcon        = "icon.png"
	AppCommand     = "matterlab"
)

// Apps 路由
const (
	PathConnect            = "/connect_gitlab"
	PathConnectRefresh     = "/connect_gitlab_refresh"
	PathConnectComplete    = "/connect_gitlab_complete"
	PathDisconnect         = "/disconnect_gitlab"
	PathDisconnectComplete = "/disconnect_gitlab_complete"
	PathGetRepos           = "/get_repos"
	PathGetChannelRepos    = "/get_channel_repos"
	PathCreateReminder     = "/create_reminder"
	PathReminderRefresh    = "/create_reminder_refresh"
	PathWebhook            = "/gitlab/webhook"
)

// 提醒间隔
const (
	ReminderInterval15m    = "15m"
	ReminderInterval30m    = "30m"
	ReminderInterval1h     = "1h"
	ReminderInterval2h     = "2h"
	ReminderInterval4h     = "4h"
	ReminderIntervalCustom = "custom"

	ReminderDatetimeLayout = "02.01.2006 15:04"
)
