package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	// MarkFailed 记录一次发送失败，giveUp 为 true 时直接放弃重试
	MarkFailed(ctx context.Context, id int64, reason string, giveUp bool) error
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	reminder.RemindAt = reminder.RemindAt.UTC()
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建提醒失败", err)
	}
	return nil
}

// ListDue 未发送且已到期的提醒，失败次数少的优先，放弃重试的不再返回
func (r *reminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	var list []*model.Reminder
	q := r.db.WithContext(ctx).
		Where("sent_at IS NULL AND remind_at <= ? AND attempts < ?", now.UTC(), model.ReminderMaxAttempts).
		Order("attempts ASC, remind_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询到期提醒失败", err)
	}
	return list, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", at.UTC()).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新提醒状态失败", err)
	}
	return nil
}

func (r *reminderRepository) MarkFailed(ctx context.Context, id int64, reason string, giveUp bool) error {
	var attempts interface{} = gorm.Expr("attempts + 1")
	if giveUp {
		attempts = model.ReminderMaxAttempts
	}
	if runes := []rune(reason); len(runes) > 512 {
		reason = string(runes[:512])
	}

	err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND sent_at IS NULL", id).
		Updates(map[string]interface{}{"attempts": attempts, "last_error": reason}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新提醒状态失败", err)
	}
	return nil
}
