package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

type ProjectRepository interface {
	GetOrCreate(ctx context.Context, project *model.GitlabProject) (*model.GitlabProject, bool, error)
	FindByID(ctx context.Context, id int64) (*model.GitlabProject, error)
	ListByChannel(ctx context.Context, channelID string) ([]*model.GitlabProject, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// GetOrCreate 按 GitLab 项目 ID 查找，不存在时以传入快照创建；已存在的记录不会被覆盖
func (r *projectRepository) GetOrCreate(ctx context.Context, project *model.GitlabProject) (*model.GitlabProject, bool, error) {
	result, created, err := getOrCreate(ctx, r.db,
		func(tx *gorm.DB) (*model.GitlabProject, error) {
			var p model.GitlabProject
			if err := tx.First(&p, project.ID).Error; err != nil {
				return nil, err
			}
			return &p, nil
		},
		func(tx *gorm.DB) (*model.GitlabProject, error) {
			p := *project
			if err := tx.Create(&p).Error; err != nil {
				return nil, err
			}
			return &p, nil
		},
	)
	if err != nil {
		return nil, false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取或创建项目失败", err)
	}
	return result, created, nil
}

func (r *projectRepository) FindByID(ctx context.Context, id int64) (*model.GitlabProject, error) {
	var p model.GitlabProject
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &p, nil
}

// ListByChannel 频道已订阅的项目，按路径排序
func (r *projectRepository) ListByChannel(ctx context.Context, channelID string) ([]*model.GitlabProject, error) {
	var list []*model.GitlabProject
	err := r.db.WithContext(ctx).
		Joins("JOIN "+model.ProjectChannelTableName+" pc ON pc.gitlab_project_id = "+model.GitlabProjectTableName+".id").
		Joins("JOIN "+model.MattermostChannelTableName+" mc ON mc.id = pc.channel_id").
		Where("mc.channel_id = ?", channelID).
		Order(model.GitlabProjectTableName + ".path_with_namespace ASC, " + model.GitlabProjectTableName + ".id ASC").
		Find(&list).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询频道项目失败", err)
	}
	return list, nil
}
