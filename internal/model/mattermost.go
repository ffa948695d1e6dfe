package model

import "time"

const (
	MattermostUserTableName    = "mattermost_users"
	MattermostChannelTableName = "mattermost_channels"
	MattermostBotTableName     = "mattermost_bots"
	ProjectChannelTableName    = "gitlab_project_channels"
)

// MattermostUser Mattermost 用户，主键为 Mattermost 用户 ID
type MattermostUser struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Username     *string   `gorm:"size:255" json:"username"`
	Email        *string   `gorm:"size:255" json:"email"`
	GitlabUserID *int64    `gorm:"column:gitlab_user_id;uniqueIndex" json:"gitlab_user_id"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	GitlabUser *GitlabUser `gorm:"foreignKey:GitlabUserID;constraint:OnDelete:SET NULL" json:"gitlab_user,omitempty"`
}

func (MattermostUser) TableName() string {
	return MattermostUserTableName
}

// MattermostChannel Mattermost 频道
type MattermostChannel struct {
	BaseModel
	ChannelID   string  `gorm:"column:channel_id;size:64;not null;uniqueIndex" json:"channel_id"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	DisplayName *string `gorm:"size:255" json:"display_name"`
}

func (MattermostChannel) TableName() string {
	return MattermostChannelTableName
}

// MattermostBot 机器人凭据，按 bot_user_id 更新，updated_at 最新的一条为当前凭据
type MattermostBot struct {
	BaseModel
	BotUserID   string          `gorm:"column:bot_user_id;size:64;not null;uniqueIndex" json:"bot_user_id"`
	AccessToken EncryptedString `gorm:"column:access_token;size:512;not null" json:"-"`
}

func (MattermostBot) TableName() string {
	return MattermostBotTableName
}

// BotPatch 机器人可变字段
type BotPatch struct {
	AccessToken string
}

// ProjectChannel 项目与频道的订阅关系
type ProjectChannel struct {
	GitlabProjectID int64     `gorm:"column:gitlab_project_id;primaryKey;autoIncrement:false" json:"gitlab_project_id"`
	ChannelID       int64     `gorm:"column:channel_id;primaryKey;autoIncrement:false;index" json:"channel_id"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	Project *GitlabProject     `gorm:"foreignKey:GitlabProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Channel *MattermostChannel `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ProjectChannel) TableName() string {
	return ProjectChannelTableName
}
