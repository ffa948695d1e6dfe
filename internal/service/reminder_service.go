package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"matterlab/internal/adapter/notification"
	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/pkg/mattermost"
	"matterlab/internal/repository"
	"matterlab/pkg/constants"
	pkgErrors "matterlab/pkg/errors"
)

const (
	dispatchBatchSize = 100
	excerptMaxRunes   = 120
)

var reminderDurations = map[string]time.Duration{
	constants.ReminderInterval15m: 15 * time.Minute,
	constants.ReminderInterval30m: 30 * time.Minute,
	constants.ReminderInterval1h:  time.Hour,
	constants.ReminderInterval2h:  2 * time.Hour,
	constants.ReminderInterval4h:  4 * time.Hour,
}

// DispatchReport 单轮提醒发送结果
type DispatchReport struct {
	Due    int
	Sent   int
	Failed int
	GaveUp int // Failed 中不再重试的数量
}

// ReminderService 消息提醒
type ReminderService interface {
	RefreshForm(req *dto.CallRequest) *dto.Form
	// Create 保存提醒，返回到期时间（用户时区）
	Create(ctx context.Context, req *dto.CallRequest) (time.Time, error)
	// DispatchDue 发送到期提醒，只有发送成功的提醒会被标记为已发送；失败的按次数重试，永久错误直接放弃
	DispatchDue(ctx context.Context, now time.Time) (*DispatchReport, error)
}

type reminderService struct {
	reminderRepo repository.ReminderRepository
	botRepo      repository.BotRepository
	notifier     notification.Notifier
	now          func() time.Time
}

// NewReminderService 创建提醒服务实例
func NewReminderService(
	reminderRepo repository.ReminderRepository,
	botRepo repository.BotRepository,
	notifier notification.Notifier,
) ReminderService {
	return &reminderService{
		reminderRepo: reminderRepo,
		botRepo:      botRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *reminderService) RefreshForm(req *dto.CallRequest) *dto.Form {
	return ReminderForm(req.Values.Interval)
}

func (s *reminderService) Create(ctx context.Context, req *dto.CallRequest) (time.Time, error) {
	cc := req.Context
	if cc.ActingUser == nil || cc.ActingUser.ID == "" {
		return time.Time{}, pkgErrors.ErrMissingActingUser
	}
	if cc.Post == nil || cc.Post.ID == "" {
		return time.Time{}, pkgErrors.ErrMissingPost
	}
	channelID := cc.Post.ChannelID
	if cc.Channel != nil && cc.Channel.ID != "" {
		channelID = cc.Channel.ID
	}
	if channelID == "" {
		return time.Time{}, pkgErrors.ErrMissingChannel
	}

	loc := cc.ActingUser.Location()
	now := s.now().In(loc)
	remindAt, err := ResolveRemindAt(req.Values.Interval, req.Values.Datetime, now)
	if err != nil {
		return time.Time{}, err
	}

	reminder := &model.Reminder{
		UserID:    cc.ActingUser.ID,
		Username:  cc.ActingUser.Username,
		ChannelID: channelID,
		PostID:    cc.Post.ThreadRootID(),
		RemindAt:  remindAt,
		Ext: datatypes.JSONMap{
			"post_id":  cc.Post.ID,
			"interval": req.Values.Interval.Value,
			"excerpt":  excerpt(cc.Post.Message),
		},
	}
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return time.Time{}, err
	}

	logger.Log.Info("已创建提醒",
		zap.String("handler", "ReminderService.Create"),
		zap.Int64("reminder_id", reminder.ID),
		zap.String("user_id", reminder.UserID),
		zap.Time("remind_at", reminder.RemindAt))
	return remindAt.In(loc), nil
}

// ResolveRemindAt 根据所选间隔计算提醒时间，自定义时间按 now 所在时区解析
func ResolveRemindAt(interval *dto.SelectOption, datetime string, now time.Time) (time.Time, error) {
	if interval == nil || interval.Value == "" {
		return time.Time{}, pkgErrors.ErrInvalidInterval
	}

	if interval.Value != constants.ReminderIntervalCustom {
		d, ok := reminderDurations[interval.Value]
		if !ok {
			return time.Time{}, pkgErrors.ErrInvalidInterval
		}
		return now.Add(d), nil
	}

	at, err := time.ParseInLocation(constants.ReminderDatetimeLayout, strings.TrimSpace(datetime), now.Location())
	if err != nil {
		return time.Time{}, pkgErrors.Wrap(pkgErrors.CodeBadRequest, pkgErrors.ErrInvalidDatetime.Message, err)
	}
	if !at.After(now) {
		return time.Time{}, pkgErrors.ErrDatetimeInPast
	}
	return at, nil
}

func (s *reminderService) DispatchDue(ctx context.Context, now time.Time) (*DispatchReport, error) {
	log := logger.Log.With(zap.String("handler", "ReminderService.DispatchDue"))

	due, err := s.reminderRepo.ListDue(ctx, now, dispatchBatchSize)
	if err != nil {
		return nil, err
	}
	report := &DispatchReport{Due: len(due)}
	if len(due) == 0 {
		return report, nil
	}

	bot, err := s.botRepo.Active(ctx)
	if err != nil {
		return report, err
	}

	for _, r := range due {
		err := s.notifier.Send(ctx, bot.AccessToken.String(), &notification.NotificationMessage{
			Type:      notification.NotifyReminder,
			ChannelID: r.ChannelID,
			Message:   ReminderMessage(r),
			RootID:    r.PostID,
		})
		if err != nil {
			report.Failed++
			// 机器人令牌失效时后续提醒同样会失败，不计入重试次数
			if mattermost.IsUnauthorized(err) {
				log.Error("机器人令牌无效，停止本轮提醒发送", zap.Error(err))
				return report, pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "机器人令牌无效", err)
			}

			giveUp := mattermost.IsPermanent(err) || r.Attempts+1 >= model.ReminderMaxAttempts
			if giveUp {
				report.GaveUp++
			}
			log.Error("发送提醒失败",
				zap.Int64("reminder_id", r.ID),
				zap.Int("attempts", r.Attempts+1),
				zap.Bool("give_up", giveUp),
				zap.Error(err))
			if err := s.reminderRepo.MarkFailed(ctx, r.ID, err.Error(), giveUp); err != nil {
				log.Error("记录提醒失败次数失败", zap.Int64("reminder_id", r.ID), zap.Error(err))
			}
			continue
		}
		if err := s.reminderRepo.MarkSent(ctx, r.ID, now); err != nil {
			report.Failed++
			log.Error("标记提醒已发送失败", zap.Int64("reminder_id", r.ID), zap.Error(err))
			continue
		}
		report.Sent++
	}

	log.Info("到期提醒发送完成",
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("gave_up", report.GaveUp))
	return report, nil
}

// ReminderMessage 提醒消息内容
func ReminderMessage(r *model.Reminder) string {
	var b strings.Builder
	if r.Username != "" {
		b.WriteString("@" + r.Username + " ")
	}
	b.WriteString("提醒你查看这条消息")
	if s, ok := r.Ext["excerpt"].(string); ok && s != "" {
		b.WriteString(fmt.Sprintf("\n> %s", s))
	}
	return b.String()
}

func excerpt(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	runes := []rune(message)
	if len(runes) > excerptMaxRunes {
		return string(runes[:excerptMaxRunes]) + "…"
	}
	return message
}
