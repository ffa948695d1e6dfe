package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/repository"
)

const botSyncTimeout = 5 * time.Second

// BotService 机器人凭据同步
type BotService interface {
	// Sync 后台保存调用上下文携带的机器人凭据，不阻塞当前请求
	Sync(cc dto.CallContext)
	// Wait 等待所有后台同步完成
	Wait()
}

type botService struct {
	botRepo repository.BotRepository
	wg      sync.WaitGroup
}

// NewBotService 创建机器人凭据同步服务
func NewBotService(botRepo repository.BotRepository) BotService {
	return &botService{botRepo: botRepo}
}

func (s *botService) Sync(cc dto.CallContext) {
	if cc.BotUserID == "" || cc.BotAccessToken == "" {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), botSyncTimeout)
		defer cancel()

		_, err := s.botRepo.Upsert(ctx, cc.BotUserID, model.BotPatch{AccessToken: cc.BotAccessToken})
		if err != nil {
			logger.Log.Warn("同步机器人凭据失败",
				zap.String("handler", "BotService.Sync"),
				zap.String("bot_user_id", cc.BotUserID),
				zap.Error(err))
		}
	}()
}

func (s *botService) Wait() {
	s.wg.Wait()
}
