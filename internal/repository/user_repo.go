package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"matterlab/internal/model"
	pkgErrors "matterlab/pkg/errors"
)

type UserRepository interface {
	GetOrCreateMattermostUser(ctx context.Context, user *model.MattermostUser) (*model.MattermostUser, bool, error)
	FindMattermostUser(ctx context.Context, id string) (*model.MattermostUser, error)
	GetOrCreateGitlabUser(ctx context.Context, mattermostUserID, accessToken string) (*model.GitlabUser, bool, error)
	UpdateGitlabUser(ctx context.Context, user *model.GitlabUser, patch model.GitlabUserPatch) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetOrCreateMattermostUser 按 Mattermost 用户 ID 查找或创建，空邮箱存为 NULL
func (r *userRepository) GetOrCreateMattermostUser(ctx context.Context, user *model.MattermostUser) (*model.MattermostUser, bool, error) {
	result, created, err := getOrCreate(ctx, r.db,
		func(tx *gorm.DB) (*model.MattermostUser, error) {
			var u model.MattermostUser
			if err := tx.Preload("GitlabUser").First(&u, "id = ?", user.ID).Error; err != nil {
				return nil, err
			}
			return &u, nil
		},
		func(tx *gorm.DB) (*model.MattermostUser, error) {
			u := model.MattermostUser{
				ID:       user.ID,
				Username: emptyToNil(user.Username),
				Email:    emptyToNil(user.Email),
			}
			if err := tx.Create(&u).Error; err != nil {
				return nil, err
			}
			return &u, nil
		},
	)
	if err != nil {
		return nil, false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取或创建用户失败", err)
	}
	return result, created, nil
}

func (r *userRepository) FindMattermostUser(ctx context.Context, id string) (*model.MattermostUser, error) {
	var u model.MattermostUser
	if err := r.db.WithContext(ctx).Preload("GitlabUser").First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &u, nil
}

// GetOrCreateGitlabUser 获取用户绑定的 GitLab 账号，未绑定时以令牌创建并关联
func (r *userRepository) GetOrCreateGitlabUser(ctx context.Context, mattermostUserID, accessToken string) (*model.GitlabUser, bool, error) {
	var (
		account *model.GitlabUser
		created bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.MattermostUser
		if err := tx.Preload("GitlabUser").First(&owner, "id = ?", mattermostUserID).Error; err != nil {
			return err
		}
		if owner.GitlabUser != nil {
			account = owner.GitlabUser
			return nil
		}

		gu := model.GitlabUser{AccessToken: model.EncryptedString(accessToken)}
		if err := tx.Create(&gu).Error; err != nil {
			return err
		}
		res := tx.Model(&model.MattermostUser{}).
			Where("id = ? AND gitlab_user_id IS NULL", mattermostUserID).
			Update("gitlab_user_id", gu.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 并发请求已完成关联
			return gorm.ErrDuplicatedKey
		}
		account, created = &gu, true
		return nil
	})
	if err == nil {
		return account, created, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgErrors.ErrRecordNotFound
	}
	if !isDuplicateKey(err) {
		return nil, false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取或创建GitLab账号失败", err)
	}

	owner, ferr := r.FindMattermostUser(ctx, mattermostUserID)
	if ferr != nil {
		return nil, false, ferr
	}
	if owner.GitlabUser == nil {
		return nil, false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取或创建GitLab账号失败", err)
	}
	return owner.GitlabUser, false, nil
}

// UpdateGitlabUser 只写入发生变化的字段，返回是否有更新
func (r *userRepository) UpdateGitlabUser(ctx context.Context, user *model.GitlabUser, patch model.GitlabUserPatch) (bool, error) {
	changes := patch.Diff(user)
	if changes == nil {
		return false, nil
	}

	if err := r.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		if isDuplicateKey(err) {
			return false, pkgErrors.Wrap(pkgErrors.CodeConflict, "该GitLab账号已被其他用户绑定", err)
		}
		return false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新GitLab账号失败", err)
	}
	patch.Apply(user)
	return true, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
