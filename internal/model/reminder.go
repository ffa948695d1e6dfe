package model

import (
	"time"

	"gorm.io/datatypes"
)

const ReminderTableName = "reminders"

// ReminderMaxAttempts 发送失败达到该次数后不再重试
const ReminderMaxAttempts = 5

// Reminder 消息提醒
type Reminder struct {
	BaseModel
	UserID    string            `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Username  string            `gorm:"size:255;not null" json:"username"`
	ChannelID string            `gorm:"column:channel_id;size:64;not null" json:"channel_id"`
	PostID    string            `gorm:"column:post_id;size:64;not null" json:"post_id"`
	RemindAt  time.Time         `gorm:"column:remind_at;not null;index:idx_reminder_due" json:"remind_at"`
	SentAt    *time.Time        `gorm:"column:sent_at;index:idx_reminder_due" json:"sent_at"`
	Attempts  int               `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError string            `gorm:"column:last_error;size:512" json:"last_error,omitempty"`
	Ext       datatypes.JSONMap `gorm:"column:ext" json:"ext,omitempty"` // 原消息摘要等
}

func (Reminder) TableName() string {
	return ReminderTableName
}
