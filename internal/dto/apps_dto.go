package dto

import "time"

// CallRequest Mattermost Apps 调用请求
type CallRequest struct {
	Path          string      `json:"path"`
	Expand        *Expand     `json:"expand,omitempty"`
	RawCommand    string      `json:"raw_command,omitempty"`
	Query         string      `json:"query,omitempty"`
	SelectedField string      `json:"selected_field,omitempty"`
	Context       CallContext `json:"context"`
	Values        CallValues  `json:"values"`
}

// CallContext 调用上下文
type CallContext struct {
	AppID             string          `json:"app_id,omitempty"`
	Location          string          `json:"location,omitempty"`
	MattermostSiteURL string          `json:"mattermost_site_url,omitempty"`
	BotUserID         string          `json:"bot_user_id,omitempty"`
	BotAccessToken    string          `json:"bot_access_token,omitempty"`
	ActingUser        *ContextUser    `json:"acting_user,omitempty"`
	Channel           *ContextChannel `json:"channel,omitempty"`
	Post              *ContextPost    `json:"post,omitempty"`
}

// ContextUser 操作用户
type ContextUser struct {
	ID       string            `json:"id"`
	Username string            `json:"username,omitempty"`
	Email    string            `json:"email,omitempty"`
	Timezone map[string]string `json:"timezone,omitempty"`
}

// Location 用户时区，未设置或无法解析时返回 UTC
func (u *ContextUser) Location() *time.Location {
	if u == nil || u.Timezone == nil {
		return time.UTC
	}
	name := u.Timezone["manualTimezone"]
	if u.Timezone["useAutomaticTimezone"] == "true" || name == "" {
		name = u.Timezone["automaticTimezone"]
	}
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ContextChannel 当前频道
type ContextChannel struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	TeamID      string `json:"team_id,omitempty"`
}

// ContextPost 当前消息
type ContextPost struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id,omitempty"`
	RootID    string `json:"root_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ThreadRootID 回复所在线程的根消息
func (p *ContextPost) ThreadRootID() string {
	if p.RootID != "" {
		return p.RootID
	}
	return p.ID
}

// CallValues 表单提交值
type CallValues struct {
	AccessToken string        `json:"access_token,omitempty"`
	Repo        *SelectOption `json:"repo,omitempty"`
	Interval    *SelectOption `json:"interval,omitempty"`
	Datetime    string        `json:"datetime,omitempty"`
}

// SelectOption 下拉选项
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Expand 需要 Mattermost 展开的上下文
type Expand struct {
	ActingUser            string `json:"acting_user,omitempty"`
	ActingUserAccessToken string `json:"acting_user_access_token,omitempty"`
	Channel               string `json:"channel,omitempty"`
	Post                  string `json:"post,omitempty"`
}

// Expand 级别
const (
	ExpandAll     = "all"
	ExpandSummary = "summary"
	ExpandID      = "id"
)

// Call 调用描述
type Call struct {
	Path   string  `json:"path"`
	Expand *Expand `json:"expand,omitempty"`
}

// Form 表单
type Form struct {
	Title  string      `json:"title,omitempty"`
	Header string      `json:"header,omitempty"`
	Icon   string      `json:"icon,omitempty"`
	Fields []FormField `json:"fields,omitempty"`
	Submit *Call       `json:"submit,omitempty"`
	Source *Call       `json:"source,omitempty"`
}

// 字段类型
const (
	FieldTypeText          = "text"
	FieldTypeStaticSelect  = "static_select"
	FieldTypeDynamicSelect = "dynamic_select"
)

// FormField 表单字段
type FormField struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Label       string         `json:"label,omitempty"`
	ModalLabel  string         `json:"modal_label,omitempty"`
	Description string         `json:"description,omitempty"`
	Hint        string         `json:"hint,omitempty"`
	Subtype     string         `json:"subtype,omitempty"`
	IsRequired  bool           `json:"is_required,omitempty"`
	Refresh     bool           `json:"refresh,omitempty"`
	Value       interface{}    `json:"value,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Lookup      *Call          `json:"lookup,omitempty"`
}

// Binding 命令或菜单绑定
type Binding struct {
	Location    string    `json:"location,omitempty"`
	Label       string    `json:"label,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Hint        string    `json:"hint,omitempty"`
	Description string    `json:"description,omitempty"`
	Bindings    []Binding `json:"bindings,omitempty"`
	Submit      *Call     `json:"submit,omitempty"`
	Form        *Form     `json:"form,omitempty"`
}

// Manifest 应用清单
type Manifest struct {
	AppID                string       `json:"app_id"`
	DisplayName          string       `json:"display_name"`
	Description          string       `json:"description,omitempty"`
	HomepageURL          string       `json:"homepage_url"`
	Icon                 string       `json:"icon,omitempty"`
	Version              string       `json:"version"`
	HTTP                 ManifestHTTP `json:"http"`
	RequestedPermissions []string     `json:"requested_permissions"`
	RequestedLocations   []string     `json:"requested_locations"`
}

// ManifestHTTP HTTP 部署方式
type ManifestHTTP struct {
	RootURL string `json:"root_url"`
	UseJWT  bool   `json:"use_jwt,omitempty"`
}

// LookupItem 动态下拉选项
type LookupItem struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	IconData string `json:"icon_data,omitempty"`
}
