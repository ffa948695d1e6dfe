package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

type BotRepository interface {
	Upsert(ctx context.Context, botUserID string, patch model.BotPatch) (*model.MattermostBot, error)
	Active(ctx context.Context) (*model.MattermostBot, error)
}

type botRepository struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) BotRepository {
	return &botRepository{db: db}
}

// Upsert 按 bot_user_id 写入凭据并刷新 updated_at，最近上报的机器人成为当前机器人
func (r *botRepository) Upsert(ctx context.Context, botUserID string, patch model.BotPatch) (*model.MattermostBot, error) {
	bot, created, err := getOrCreate(ctx, r.db,
		func(tx *gorm.DB) (*model.MattermostBot, error) {
			var b model.MattermostBot
			if err := tx.Where("bot_user_id = ?", botUserID).First(&b).Error; err != nil {
				return nil, err
			}
			return &b, nil
		},
		func(tx *gorm.DB) (*model.MattermostBot, error) {
			b := model.MattermostBot{BotUserID: botUserID, AccessToken: model.EncryptedString(patch.AccessToken)}
			if err := tx.Create(&b).Error; err != nil {
				return nil, err
			}
			return &b, nil
		},
	)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存机器人凭据失败", err)
	}
	if created {
		return bot, nil
	}

	now := time.Now().UTC()
	err = r.db.WithContext(ctx).Model(bot).Updates(map[string]interface{}{
		"access_token": model.EncryptedString(patch.AccessToken),
		"updated_at":   now,
	}).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新机器人凭据失败", err)
	}
	bot.AccessToken = model.EncryptedString(patch.AccessToken)
	bot.UpdatedAt = now
	return bot, nil
}

// Active 当前机器人: updated_at 最新，相同时取 id 最大
func (r *botRepository) Active(ctx context.Context) (*model.MattermostBot, error) {
	var b model.MattermostBot
	err := r.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC").First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrBotNotConfigured
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询机器人失败", err)
	}
	return &b, nil
}
