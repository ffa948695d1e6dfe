package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/gitlab"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/repository"
	pkgErrors "matterlab/pkg/errors"
)

// LinkingService 仓库与频道的绑定流程
type LinkingService interface {
	Connect(ctx context.Context, req *dto.CallRequest) (*dto.Form, error)
	Refresh(ctx context.Context, req *dto.CallRequest) (*dto.Form, error)
	// Complete 校验令牌、绑定仓库并注册 webhook，webhookURL 为本服务对外的回调地址
	Complete(ctx context.Context, req *dto.CallRequest, webhookURL string) (string, error)
	Disconnect(ctx context.Context, req *dto.CallRequest) (*dto.Form, error)
	DisconnectComplete(ctx context.Context, req *dto.CallRequest) (string, error)
	LookupUserRepos(ctx context.Context, req *dto.CallRequest) ([]dto.LookupItem, error)
	LookupChannelRepos(ctx context.Context, req *dto.CallRequest) ([]dto.LookupItem, error)
}

type linkingService struct {
	userRepo      repository.UserRepository
	projectRepo   repository.ProjectRepository
	channelRepo   repository.ChannelRepository
	linkRepo      repository.LinkRepository
	gitlab        gitlab.Client
	webhookSecret string
}

// NewLinkingService 创建绑定流程服务实例
func NewLinkingService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	channelRepo repository.ChannelRepository,
	linkRepo repository.LinkRepository,
	gitlabClient gitlab.Client,
	webhookSecret string,
) LinkingService {
	return &linkingService{
		userRepo:      userRepo,
		projectRepo:   projectRepo,
		channelRepo:   channelRepo,
		linkRepo:      linkRepo,
		gitlab:        gitlabClient,
		webhookSecret: webhookSecret,
	}
}

func (s *linkingService) Connect(ctx context.Context, req *dto.CallRequest) (*dto.Form, error) {
	user, err := s.ensureUser(ctx, req.Context.ActingUser)
	if err != nil {
		return nil, err
	}
	return ConnectForm(storedToken(user)), nil
}

// Refresh 令牌变化时立即保存（尚未校验），然后重新生成表单
func (s *linkingService) Refresh(ctx context.Context, req *dto.CallRequest) (*dto.Form, error) {
	user, err := s.ensureUser(ctx, req.Context.ActingUser)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.Values.AccessToken)
	account, created, err := s.userRepo.GetOrCreateGitlabUser(ctx, user.ID, token)
	if err != nil {
		return nil, err
	}
	if token != "" && !created {
		updated, err := s.userRepo.UpdateGitlabUser(ctx, account, model.GitlabUserPatch{AccessToken: &token})
		if err != nil {
			return nil, err
		}
		if updated {
			logger.Log.Info("用户更新了GitLab令牌",
				zap.String("handler", "LinkingService.Refresh"),
				zap.String("user_id", user.ID))
		}
	}
	return ConnectForm(account.AccessToken.String()), nil
}

func (s *linkingService) Complete(ctx context.Context, req *dto.CallRequest, webhookURL string) (string, error) {
	log := logger.Log.With(zap.String("handler", "LinkingService.Complete"))

	user, err := s.ensureUser(ctx, req.Context.ActingUser)
	if err != nil {
		return "", err
	}
	if req.Context.Channel == nil || req.Context.Channel.ID == "" {
		return "", pkgErrors.ErrMissingChannel
	}
	projectID, err := repoID(req.Values.Repo)
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(req.Values.AccessToken)
	if token == "" {
		token = storedToken(user)
	}
	if token == "" {
		return "", pkgErrors.ErrGitlabTokenMissing
	}

	profile, err := s.gitlab.GetCurrentUser(ctx, token)
	if err != nil {
		return "", gitlabError(err)
	}

	account, _, err := s.userRepo.GetOrCreateGitlabUser(ctx, user.ID, token)
	if err != nil {
		return "", err
	}
	if _, err := s.userRepo.UpdateGitlabUser(ctx, account, model.GitlabUserPatch{
		GitlabID:    &profile.ID,
		Name:        &profile.Name,
		Username:    &profile.Username,
		AccessToken: &token,
	}); err != nil {
		return "", err
	}

	detail, err := s.gitlab.GetProject(ctx, token, projectID)
	if err != nil {
		return "", gitlabError(err)
	}
	project, _, err := s.projectRepo.GetOrCreate(ctx, projectModel(detail))
	if err != nil {
		return "", err
	}

	channel, err := s.ensureChannel(ctx, req.Context.Channel)
	if err != nil {
		return "", err
	}
	linked, err := s.linkRepo.Link(ctx, project.ID, channel.ID)
	if err != nil {
		return "", err
	}

	hooks, err := s.gitlab.ListHooks(ctx, token, project.ID)
	if err != nil {
		return "", gitlabError(err)
	}
	if !lo.ContainsBy(hooks, func(h gitlab.Hook) bool { return h.URL == webhookURL }) {
		if _, err := s.gitlab.CreateHook(ctx, token, project.ID, gitlab.PipelineHookOptions(webhookURL, s.webhookSecret)); err != nil {
			return "", gitlabError(err)
		}
		log.Info("已注册GitLab webhook", zap.Int64("project_id", project.ID), zap.String("url", webhookURL))
	}

	log.Info("仓库绑定完成",
		zap.Int64("project_id", project.ID),
		zap.String("channel_id", channel.ChannelID),
		zap.Bool("new_link", linked))
	return fmt.Sprintf("当前频道将接收项目 %s 的流水线通知", project.Label()), nil
}

func (s *linkingService) Disconnect(_ context.Context, _ *dto.CallRequest) (*dto.Form, error) {
	return DisconnectForm(), nil
}

// DisconnectComplete 解除绑定，未绑定时同样返回成功
func (s *linkingService) DisconnectComplete(ctx context.Context, req *dto.CallRequest) (string, error) {
	if req.Context.Channel == nil || req.Context.Channel.ID == "" {
		return "", pkgErrors.ErrMissingChannel
	}
	projectID, err := repoID(req.Values.Repo)
	if err != nil {
		return "", err
	}

	removed, err := s.linkRepo.Unlink(ctx, projectID, req.Context.Channel.ID)
	if err != nil {
		return "", err
	}
	logger.Log.Info("仓库解绑完成",
		zap.String("handler", "LinkingService.DisconnectComplete"),
		zap.Int64("project_id", projectID),
		zap.String("channel_id", req.Context.Channel.ID),
		zap.Bool("removed", removed))

	label := req.Values.Repo.Label
	if label == "" {
		label = req.Values.Repo.Value
	}
	return fmt.Sprintf("当前频道将不再接收项目 %s 的流水线通知", label), nil
}

// LookupUserRepos 列出用户令牌可见的仓库，query 不为空时按路径过滤（忽略大小写）
func (s *linkingService) LookupUserRepos(ctx context.Context, req *dto.CallRequest) ([]dto.LookupItem, error) {
	user, err := s.ensureUser(ctx, req.Context.ActingUser)
	if err != nil {
		return nil, err
	}
	token := storedToken(user)
	if token == "" {
		return nil, pkgErrors.ErrGitlabTokenMissing
	}

	projects, err := s.gitlab.ListProjects(ctx, token)
	if err != nil {
		logger.Log.Warn("获取GitLab项目列表失败",
			zap.String("handler", "LinkingService.LookupUserRepos"),
			zap.String("user_id", user.ID),
			zap.Error(err))
		return nil, pkgErrors.Wrap(pkgErrors.CodeAuthError, pkgErrors.ErrGitlabTokenInvalid.Message, err)
	}

	if query := strings.ToLower(strings.TrimSpace(req.Query)); query != "" {
		projects = lo.Filter(projects, func(p gitlab.Project, _ int) bool {
			return strings.Contains(strings.ToLower(p.PathWithNamespace), query)
		})
	}

	return lo.Map(projects, func(p gitlab.Project, _ int) dto.LookupItem {
		label := p.PathWithNamespace
		if label == "" {
			label = p.Name
		}
		return dto.LookupItem{
			Label:    label,
			Value:    strconv.FormatInt(p.ID, 10),
			IconData: lo.FromPtr(p.AvatarURL),
		}
	}), nil
}

// LookupChannelRepos 列出频道已绑定的仓库，只查本地数据
func (s *linkingService) LookupChannelRepos(ctx context.Context, req *dto.CallRequest) ([]dto.LookupItem, error) {
	if req.Context.Channel == nil || req.Context.Channel.ID == "" {
		return nil, pkgErrors.ErrMissingChannel
	}

	projects, err := s.projectRepo.ListByChannel(ctx, req.Context.Channel.ID)
	if err != nil {
		return nil, err
	}
	return lo.Map(projects, func(p *model.GitlabProject, _ int) dto.LookupItem {
		return dto.LookupItem{
			Label:    p.Label(),
			Value:    strconv.FormatInt(p.ID, 10),
			IconData: lo.FromPtr(p.AvatarURL),
		}
	}), nil
}

func (s *linkingService) ensureUser(ctx context.Context, u *dto.ContextUser) (*model.MattermostUser, error) {
	if u == nil || u.ID == "" {
		return nil, pkgErrors.ErrMissingActingUser
	}
	user, _, err := s.userRepo.GetOrCreateMattermostUser(ctx, &model.MattermostUser{
		ID:       u.ID,
		Username: lo.ToPtr(u.Username),
		Email:    lo.ToPtr(u.Email),
	})
	return user, err
}

func (s *linkingService) ensureChannel(ctx context.Context, ch *dto.ContextChannel) (*model.MattermostChannel, error) {
	name := ch.Name
	if name == "" {
		name = ch.ID
	}
	var displayName *string
	if ch.DisplayName != "" {
		displayName = lo.ToPtr(ch.DisplayName)
	}
	channel, _, err := s.channelRepo.GetOrCreate(ctx, &model.MattermostChannel{
		ChannelID:   ch.ID,
		Name:        name,
		DisplayName: displayName,
	})
	return channel, err
}

func storedToken(user *model.MattermostUser) string {
	if user == nil || user.GitlabUser == nil {
		return ""
	}
	return user.GitlabUser.AccessToken.String()
}

func repoID(opt *dto.SelectOption) (int64, error) {
	if opt == nil || opt.Value == "" {
		return 0, pkgErrors.ErrRepoRequired
	}
	id, err := strconv.ParseInt(opt.Value, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgErrors.ErrInvalidRepo
	}
	return id, nil
}

func projectModel(p *gitlab.Project) *model.GitlabProject {
	m := &model.GitlabProject{
		ID:        p.ID,
		Name:      p.Name,
		WebURL:    p.WebURL,
		AvatarURL: p.AvatarURL,
	}
	if p.PathWithNamespace != "" {
		m.PathWithNamespace = lo.ToPtr(p.PathWithNamespace)
	}
	return m
}

// gitlabError 将GitLab错误转换为用户可见的错误
func gitlabError(err error) error {
	switch {
	case gitlab.IsUnauthorized(err):
		return pkgErrors.Wrap(pkgErrors.CodeAuthError, pkgErrors.ErrGitlabTokenInvalid.Message, err)
	case gitlab.IsNotFound(err):
		return pkgErrors.Wrap(pkgErrors.CodeNotFound, "GitLab 项目不存在或无权访问", err)
	default:
		return pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "GitLab 请求失败，请稍后重试", err)
	}
}
