package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"matterlab/internal/dto"
	"matterlab/internal/pkg/cache"
	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/service"
	"matterlab/pkg/constants"
	pkgErrors "matterlab/pkg/errors"
	"matterlab/pkg/responses"
	"matterlab/pkg/utils"
)

const defaultProcessTimeout = 60 * time.Second

// GitlabHandler GitLab webhook 处理器
type GitlabHandler struct {
	webhookService service.WebhookService
	dedup          cache.Deduplicator
	secret         string
	processTimeout time.Duration
	wg             sync.WaitGroup
}

// NewGitlabHandler 创建GitLab webhook处理器
func NewGitlabHandler(webhookService service.WebhookService, dedup cache.Deduplicator, cfg *config.GitlabConfig) *GitlabHandler {
	if dedup == nil {
		dedup = cache.NoopDeduplicator{}
	}
	timeout := cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = defaultProcessTimeout
	}
	return &GitlabHandler{
		webhookService: webhookService,
		dedup:          dedup,
		secret:         cfg.WebhookSecret,
		processTimeout: timeout,
	}
}

// Webhook 接收GitLab webhook，校验通过后立即返回，后台发送通知
func (h *GitlabHandler) Webhook(c *gin.Context) {
	log := logger.Log.With(
		zap.String("handler", "GitlabHandler.Webhook"),
		zap.String("request_id", c.GetString(constants.ContextKeyRequestID)),
	)

	token := c.GetHeader(constants.HeaderGitlabToken)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		log.Warn("webhook 密钥校验失败", zap.String("ip", c.ClientIP()))
		c.Status(http.StatusOK)
		return
	}

	var kind dto.WebhookKind
	if err := c.ShouldBindBodyWith(&kind, binding.JSON); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	if kind.ObjectKind != constants.ObjectKindPipeline {
		log.Debug("忽略非流水线事件", zap.String("object_kind", kind.ObjectKind))
		responses.Success(c, gin.H{"message": "ignored"})
		return
	}

	var payload dto.PipelineWebhook
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		log.Warn("webhook 参数校验失败", zap.Error(err))
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	payload.Normalize()

	eventID := c.GetHeader(constants.HeaderGitlabEventUUID)
	if eventID != "" {
		first, err := h.dedup.FirstSeen(c.Request.Context(), eventID)
		if err != nil {
			log.Warn("webhook 去重检查失败，继续处理", zap.String("event_uuid", eventID), zap.Error(err))
		}
		if !first {
			log.Info("重复的 webhook，忽略", zap.String("event_uuid", eventID))
			responses.Success(c, gin.H{"message": "duplicate"})
			return
		}
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.processTimeout)
		defer cancel()

		if _, err := h.webhookService.Process(ctx, &payload); err != nil {
			log.Error("处理流水线 webhook 失败",
				zap.Int64("project_id", payload.Project.ID),
				zap.Int64("pipeline_id", payload.ObjectAttributes.ID),
				zap.Error(err))
			if err := h.dedup.Forget(context.Background(), eventID); err != nil {
				log.Warn("清除 webhook 去重记录失败", zap.String("event_uuid", eventID), zap.Error(err))
			}
		}
	}()

	responses.Success(c, gin.H{"message": "accepted"})
}

// Wait 等待后台处理完成，用于优雅退出
func (h *GitlabHandler) Wait() {
	h.wg.Wait()
}
