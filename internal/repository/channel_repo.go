package repository

import (
	"context"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

type ChannelRepository interface {
	GetOrCreate(ctx context.Context, channel *model.MattermostChannel) (*model.MattermostChannel, bool, error)
	ListByProject(ctx context.Context, projectID int64) ([]*model.MattermostChannel, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

// GetOrCreate 按 Mattermost 频道 ID 查找或创建
func (r *channelRepository) GetOrCreate(ctx context.Context, channel *model.MattermostChannel) (*model.MattermostChannel, bool, error) {
	result, created, err := getOrCreate(ctx, r.db,
		func(tx *gorm.DB) (*model.MattermostChannel, error) {
			var c model.MattermostChannel
			if err := tx.Where("channel_id = ?", channel.ChannelID).First(&c).Error; err != nil {
				return nil, err
			}
			return &c, nil
		},
		func(tx *gorm.DB) (*model.MattermostChannel, error) {
			c := *channel
			if err := tx.Create(&c).Error; err != nil {
				return nil, err
			}
			return &c, nil
		},
	)
	if err != nil {
		return nil, false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取或创建频道失败", err)
	}
	return result, created, nil
}

// ListByProject 订阅了项目的频道，按订阅先后排序
func (r *channelRepository) ListByProject(ctx context.Context, projectID int64) ([]*model.MattermostChannel, error) {
	var list []*model.MattermostChannel
	err := r.db.WithContext(ctx).
		Joins("JOIN "+model.ProjectChannelTableName+" pc ON pc.channel_id = "+model.MattermostChannelTableName+".id").
		Where("pc.gitlab_project_id = ?", projectID).
		Order("pc.created_at ASC, " + model.MattermostChannelTableName + ".id ASC").
		Find(&list).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目频道失败", err)
	}
	return list, nil
}
