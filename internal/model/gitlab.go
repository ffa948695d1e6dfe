package model

import "time"

const (
	GitlabProjectTableName = "gitlab_projects"
	GitlabUserTableName    = "gitlab_users"
)

// GitlabProject GitLab 项目，主键为 GitLab 分配的项目 ID
type GitlabProject struct {
	ID                int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	WebURL            string    `gorm:"column:web_url;size:500;not null;uniqueIndex" json:"web_url"`
	PathWithNamespace *string   `gorm:"size:500" json:"path_with_namespace"`
	AvatarURL         *string   `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (GitlabProject) TableName() string {
	return GitlabProjectTableName
}

// Label 下拉选项展示名
func (p *GitlabProject) Label() string {
	if p.PathWithNamespace != nil && *p.PathWithNamespace != "" {
		return *p.PathWithNamespace
	}
	return p.Name
}

// GitlabUser GitLab 账号，令牌校验通过前 GitlabID 为空
type GitlabUser struct {
	BaseModel
	GitlabID    *int64          `gorm:"column:gitlab_id;uniqueIndex" json:"gitlab_id"`
	Name        *string         `gorm:"size:255" json:"name"`
	Username    *string         `gorm:"size:255" json:"username"`
	AccessToken EncryptedString `gorm:"column:access_token;size:512;not null" json:"-"`
}

func (GitlabUser) TableName() string {
	return GitlabUserTableName
}

// GitlabUserPatch GitLab 账号可变字段，nil 表示不修改
type GitlabUserPatch struct {
	GitlabID    *int64
	Name        *string
	Username    *string
	AccessToken *string
}

// Diff 返回与当前记录不同的字段，全部相同时返回 nil
func (p GitlabUserPatch) Diff(u *GitlabUser) map[string]interface{} {
	changes := map[string]interface{}{}
	if p.GitlabID != nil && (u.GitlabID == nil || *u.GitlabID != *p.GitlabID) {
		changes["gitlab_id"] = *p.GitlabID
	}
	if p.Name != nil && (u.Name == nil || *u.Name != *p.Name) {
		changes["name"] = *p.Name
	}
	if p.Username != nil && (u.Username == nil || *u.Username != *p.Username) {
		changes["username"] = *p.Username
	}
	if p.AccessToken != nil && string(u.AccessToken) != *p.AccessToken {
		changes["access_token"] = EncryptedString(*p.AccessToken)
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// Apply 将补丁写回内存对象
func (p GitlabUserPatch) Apply(u *GitlabUser) {
	if p.GitlabID != nil {
		u.GitlabID = p.GitlabID
	}
	if p.Name != nil {
		u.Name = p.Name
	}
	if p.Username != nil {
		u.Username = p.Username
	}
	if p.AccessToken != nil {
		u.AccessToken = EncryptedString(*p.AccessToken)
	}
}
