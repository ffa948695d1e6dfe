package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"matterlab/internal/pkg/config"
	"matterlab/internal/service"
)

const (
	defaultReminderCron = "*/30 * * * * *"
	dispatchTimeout     = 25 * time.Second

	jobReminderDispatch = "reminder_dispatch"
)

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	reminderSvc   service.ReminderService
	now           func() time.Time
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(reminderSvc service.ReminderService, logger *zap.Logger) *Scheduler {
	// 秒级 cron，上一轮未结束时跳过本轮，避免重复发送
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:          c,
		logger:        logger,
		reminderSvc:   reminderSvc,
		now:           time.Now,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 注册任务并启动调度器
func (s *Scheduler) Start(cfg *config.SchedulerConfig) error {
	log := s.logger.Sugar()

	// cron 表达式格式: 秒 分 时 日 月 周
	cronExpr := cfg.ReminderCron
	if cronExpr == "" {
		cronExpr = defaultReminderCron
		log.Warnf("未配置scheduler.reminder_cron，使用默认值 %s", cronExpr)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if _, err := s.TriggerReminderDispatch(ctx); err != nil {
			log.Errorf("提醒发送任务执行失败: %v", err)
		}
	})
	if err != nil {
		log.Errorf("注册提醒发送任务失败 cron=%s: %v", cronExpr, err)
		return err
	}

	s.cronSchedules[jobReminderDispatch] = entryID
	log.Infof("提醒发送任务已注册: %s entry_id=%d", cronExpr, entryID)

	s.cron.Start()
	log.Info("定时任务调度器启动成功")
	return nil
}

// Stop 停止调度器，等待正在执行的任务完成
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerReminderDispatch 立即发送到期提醒
func (s *Scheduler) TriggerReminderDispatch(ctx context.Context) (*service.DispatchReport, error) {
	return s.reminderSvc.DispatchDue(ctx, s.now())
}

// Entry 已注册任务的下次执行时间，未注册时返回零值
func (s *Scheduler) Entry(name string) cron.Entry {
	id, ok := s.cronSchedules[name]
	if !ok {
		return cron.Entry{}
	}
	return s.cron.Entry(id)
}
