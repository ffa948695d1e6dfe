package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

// LinkRepository 项目与频道订阅关系
type LinkRepository interface {
	Link(ctx context.Context, projectID, channelID int64) (bool, error)
	Unlink(ctx context.Context, projectID int64, mattermostChannelID string) (bool, error)
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Link 建立订阅，已存在时返回 false 且不报错
func (r *linkRepository) Link(ctx context.Context, projectID, channelID int64) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProjectChannel
		err := tx.Where("gitlab_project_id = ? AND channel_id = ?", projectID, channelID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&model.ProjectChannel{GitlabProjectID: projectID, ChannelID: channelID}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建订阅失败", err)
	}
	return created, nil
}

// Unlink 取消订阅，关系不存在时返回 false 且不报错
func (r *linkRepository) Unlink(ctx context.Context, projectID int64, mattermostChannelID string) (bool, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("gitlab_project_id = ? AND channel_id IN (?)",
			projectID,
			tx.Model(&model.MattermostChannel{}).Select("id").Where("channel_id = ?", mattermostChannelID),
		).Delete(&model.ProjectChannel{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "取消订阅失败", err)
	}
	return removed > 0, nil
}
