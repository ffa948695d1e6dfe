package service

import (
	"strings"

	"matterlab/internal/dto"
	"matterlab/pkg/constants"
)

const connectFormHeader = `首次绑定仓库前需要填写 GitLab 个人访问令牌，创建方式：
1. 登录 GitLab 后打开 用户设置 > Access Tokens
2. 点击 "Add new token"，名称随意
3. 过期时间选择未来的任意日期（不超过一年）
4. 勾选 "api" 和 "read_user"
5. 点击 "Create personal access token"，将令牌粘贴到下方输入框`

// ConnectForm 绑定仓库表单，token 为已保存的令牌
func ConnectForm(token string) *dto.Form {
	tokenField := dto.FormField{
		Name:        "access_token",
		Type:        dto.FieldTypeText,
		Subtype:     "input",
		Label:       "personal_access_token",
		Description: "GitLab 个人访问令牌",
		IsRequired:  true,
		Refresh:     true,
	}
	if token != "" {
		tokenField.Value = token
	}

	return &dto.Form{
		Title:  "绑定仓库到当前频道",
		Header: connectFormHeader,
		Fields: []dto.FormField{
			tokenField,
			{
				Name:        "repo",
				Type:        dto.FieldTypeDynamicSelect,
				Label:       "仓库",
				Description: "选择仓库，输入关键字可过滤",
				IsRequired:  true,
				Lookup: &dto.Call{
					Path:   constants.PathGetRepos,
					Expand: &dto.Expand{ActingUser: dto.ExpandSummary},
				},
			},
		},
		Submit: &dto.Call{
			Path:   constants.PathConnectComplete,
			Expand: &dto.Expand{ActingUser: dto.ExpandSummary, Channel: dto.ExpandSummary},
		},
		Source: &dto.Call{
			Path:   constants.PathConnectRefresh,
			Expand: &dto.Expand{ActingUser: dto.ExpandSummary},
		},
	}
}

// DisconnectForm 解绑仓库表单，选项为当前频道已绑定的仓库
func DisconnectForm() *dto.Form {
	return &dto.Form{
		Title: "从当前频道解绑仓库",
		Fields: []dto.FormField{
			{
				Name:        "repo",
				Type:        dto.FieldTypeDynamicSelect,
				Label:       "仓库",
				Description: "选择要解绑的仓库",
				IsRequired:  true,
				Lookup: &dto.Call{
					Path:   constants.PathGetChannelRepos,
					Expand: &dto.Expand{Channel: dto.ExpandSummary},
				},
			},
		},
		Submit: &dto.Call{
			Path:   constants.PathDisconnectComplete,
			Expand: &dto.Expand{Channel: dto.ExpandSummary},
		},
	}
}

// ReminderIntervals 提醒间隔选项，顺序即展示顺序
var ReminderIntervals = []dto.SelectOption{
	{Label: "15 分钟后", Value: constants.ReminderInterval15m},
	{Label: "30 分钟后", Value: constants.ReminderInterval30m},
	{Label: "1 小时后", Value: constants.ReminderInterval1h},
	{Label: "2 小时后", Value: constants.ReminderInterval2h},
	{Label: "4 小时后", Value: constants.ReminderInterval4h},
	{Label: "指定日期和时间", Value: constants.ReminderIntervalCustom},
}

// ReminderForm 消息提醒表单，已选择自定义时间时追加日期时间输入框
func ReminderForm(selected *dto.SelectOption) *dto.Form {
	interval := dto.FormField{
		Name:       "interval",
		Type:       dto.FieldTypeStaticSelect,
		Label:      "提醒时间",
		IsRequired: true,
		Refresh:    true,
		Options:    ReminderIntervals,
	}
	form := &dto.Form{
		Title: "提醒我这条消息",
		Submit: &dto.Call{
			Path: constants.PathCreateReminder,
			Expand: &dto.Expand{
				ActingUser: dto.ExpandSummary,
				Channel:    dto.ExpandSummary,
				Post:       dto.ExpandSummary,
			},
		},
		Source: &dto.Call{
			Path:   constants.PathReminderRefresh,
			Expand: &dto.Expand{ActingUser: dto.ExpandSummary},
		},
	}

	if selected == nil || selected.Value == "" {
		form.Fields = []dto.FormField{interval}
		return form
	}

	interval.Value = *selected
	form.Fields = []dto.FormField{interval}
	if selected.Value == constants.ReminderIntervalCustom {
		form.Fields = append(form.Fields, dto.FormField{
			Name:        "datetime",
			Type:        dto.FieldTypeText,
			Label:       "日期和时间",
			Description: `格式 "01.01.1970 09:00"，按你的时区计算`,
			IsRequired:  true,
		})
	}
	return form
}

// Bindings 斜杠命令和消息菜单绑定，staticURL 为图标所在地址
func Bindings(staticURL string) []dto.Binding {
	staticURL = strings.TrimSuffix(staticURL, "/")
	return []dto.Binding{
		{
			Location: "/command",
			Bindings: []dto.Binding{
				{
					Label:       constants.AppCommand,
					Icon:        staticURL + "/" + constants.AppIcon,
					Description: "管理 GitLab 仓库与频道的绑定",
					Hint:        "[connect|disconnect]",
					Bindings: []dto.Binding{
						{
							Label:       "connect",
							Description: "绑定 GitLab 仓库到当前频道",
							Submit: &dto.Call{
								Path:   constants.PathConnect,
								Expand: &dto.Expand{ActingUser: dto.ExpandSummary, Channel: dto.ExpandSummary},
							},
						},
						{
							Label:       "disconnect",
							Description: "从当前频道解绑 GitLab 仓库",
							Submit: &dto.Call{
								Path:   constants.PathDisconnect,
								Expand: &dto.Expand{Channel: dto.ExpandID},
							},
						},
					},
				},
			},
		},
		{
			Location: "/post_menu",
			Bindings: []dto.Binding{
				{
					Location: "remind-me",
					Label:    "提醒我",
					Icon:     staticURL + "/" + constants.AppIcon,
					Form:     ReminderForm(nil),
				},
			},
		},
	}
}

// NewManifest 应用清单，配置了 app secret 时要求 Mattermost 携带 JWT
func NewManifest(rootURL string, useJWT bool) *dto.Manifest {
	return &dto.Manifest{
		AppID:       constants.AppID,
		DisplayName: constants.AppDisplayName,
		Description: "GitLab 流水线通知",
		HomepageURL: constants.AppHomepage,
		Icon:        constants.AppIcon,
		Version:     constants.AppVersion,
		HTTP: dto.ManifestHTTP{
			RootURL: rootURL,
			UseJWT:  useJWT,
		},
		RequestedPermissions: []string{"act_as_bot"},
		RequestedLocations:   []string{"/command", "/post_menu"},
	}
}
