package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/mattermost"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyPipeline NotificationType = "pipeline" // 流水线结果
	NotifyReminder NotificationType = "reminder" // 消息提醒
)

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type      NotificationType
	ChannelID string
	Message   string
	RootID    string // 非空时回复到该线程
}

// Notifier 通知器接口
type Notifier interface {
	// Send 以 token 对应的机器人身份发送通知
	Send(ctx context.Context, token string, msg *NotificationMessage) error
}

// NewNotifier 按配置组装通知器
// 未启用 Mattermost 时只写日志；启用 log_messages 时同时发帖和写日志
func NewNotifier(cfg *config.MattermostConfig, logger *zap.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return NewLogNotifier(logger), nil
	}

	client, err := mattermost.NewClient(cfg.Host, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	mm := NewMattermostNotifier(client, logger)
	if cfg.LogMessages {
		return NewMultiNotifier(logger, mm, NewLogNotifier(logger)), nil
	}
	return mm, nil
}

// ============= Mattermost 通知适配器 =============

// MattermostNotifier 通过 Mattermost REST API 发帖
type MattermostNotifier struct {
	client mattermost.Client
	logger *zap.Logger
}

// NewMattermostNotifier 创建Mattermost通知器
func NewMattermostNotifier(client mattermost.Client, logger *zap.Logger) *MattermostNotifier {
	return &MattermostNotifier{client: client, logger: logger}
}

// Send 发送通知
func (n *MattermostNotifier) Send(ctx context.Context, token string, msg *NotificationMessage) error {
	if token == "" {
		return fmt.Errorf("机器人令牌为空")
	}

	post, err := n.client.CreatePost(ctx, token, mattermost.Post{
		ChannelID: msg.ChannelID,
		Message:   msg.Message,
		RootID:    msg.RootID,
	})
	if err != nil {
		return fmt.Errorf("发送到频道 %s 失败: %w", msg.ChannelID, err)
	}

	n.logger.Debug("Mattermost通知发送成功",
		zap.String("type", string(msg.Type)),
		zap.String("channel_id", msg.ChannelID),
		zap.String("post_id", post.ID))
	return nil
}

// ============= 多通知器 =============

// MultiNotifier 多通知器(同时发送到多个渠道)，任一失败即返回合并后的错误
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier 创建多通知器
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		notifiers: notifiers,
		logger:    logger,
	}
}

// Send 发送通知
func (m *MultiNotifier) Send(ctx context.Context, token string, msg *NotificationMessage) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, token, msg); err != nil {
			m.logger.Error("通知发送失败", zap.String("channel_id", msg.ChannelID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ============= 日志通知器 =============

// LogNotifier 日志通知器，用于调试或未配置 Mattermost 时
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send 记录通知内容
func (n *LogNotifier) Send(ctx context.Context, token string, msg *NotificationMessage) error {
	n.logger.Info("通知",
		zap.String("type", string(msg.Type)),
		zap.String("channel_id", msg.ChannelID),
		zap.String("root_id", msg.RootID),
		zap.String("message", msg.Message))
	return nil
}
