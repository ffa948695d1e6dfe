package model

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AutoMigrate 按外键依赖顺序建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GitlabUser{},
		&GitlabProject{},
		&MattermostUser{},
		&MattermostChannel{},
		&MattermostBot{},
		&ProjectChannel{},
		&Reminder{},
	)
}
