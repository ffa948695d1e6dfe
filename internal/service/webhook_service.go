package service

import (
	"context"

	"go.uber.org/zap"

	"matterlab/internal/adapter/notification"
	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/repository"
)

// DeliveryReport 单次 webhook 的投递结果
type DeliveryReport struct {
	Skipped   bool // 状态无需通知
	Channels  int
	Delivered int
	Failed    int
}

// WebhookService 流水线 webhook 处理
type WebhookService interface {
	Process(ctx context.Context, w *dto.PipelineWebhook) (*DeliveryReport, error)
}

type webhookService struct {
	projectRepo repository.ProjectRepository
	channelRepo repository.ChannelRepository
	botRepo     repository.BotRepository
	notifier    notification.Notifier
}

// NewWebhookService 创建webhook服务实例
func NewWebhookService(
	projectRepo repository.ProjectRepository,
	channelRepo repository.ChannelRepository,
	botRepo repository.BotRepository,
	notifier notification.Notifier,
) WebhookService {
	return &webhookService{
		projectRepo: projectRepo,
		channelRepo: channelRepo,
		botRepo:     botRepo,
		notifier:    notifier,
	}
}

// Process 将流水线结果发送到所有订阅了该项目的频道
// 单个频道失败只记录日志，不影响其他频道
func (s *webhookService) Process(ctx context.Context, w *dto.PipelineWebhook) (*DeliveryReport, error) {
	log := logger.Log.With(
		zap.String("handler", "WebhookService.Process"),
		zap.Int64("project_id", w.Project.ID),
		zap.Int64("pipeline_id", w.ObjectAttributes.ID),
		zap.String("status", w.Status()),
	)

	if !w.Notifiable() {
		log.Debug("流水线状态无需通知，跳过")
		return &DeliveryReport{Skipped: true}, nil
	}

	project, created, err := s.projectRepo.GetOrCreate(ctx, &model.GitlabProject{
		ID:                w.Project.ID,
		Name:              w.Project.Name,
		WebURL:            w.Project.WebURL,
		PathWithNamespace: w.Project.PathWithNamespace,
		AvatarURL:         w.Project.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("首次收到项目事件，已创建项目", zap.String("web_url", project.WebURL))
	}

	channels, err := s.channelRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	report := &DeliveryReport{Channels: len(channels)}
	if len(channels) == 0 {
		log.Debug("项目没有订阅频道")
		return report, nil
	}

	bot, err := s.botRepo.Active(ctx)
	if err != nil {
		return report, err
	}

	message := FormatPipelineMessage(w)
	for _, ch := range channels {
		err := s.notifier.Send(ctx, bot.AccessToken.String(), &notification.NotificationMessage{
			Type:      notification.NotifyPipeline,
			ChannelID: ch.ChannelID,
			Message:   message,
		})
		if err != nil {
			report.Failed++
			log.Error("发送流水线通知失败", zap.String("channel_id", ch.ChannelID), zap.Error(err))
			continue
		}
		report.Delivered++
	}

	log.Info("流水线通知发送完成",
		zap.Int("channels", report.Channels),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed))
	return report, nil
}
