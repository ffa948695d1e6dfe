package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matterlab/internal/dto"
	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/service"
	"matterlab/pkg/constants"
	pkgErrors "matterlab/pkg/errors"
	"matterlab/pkg/responses"
)

const internalCallError = "服务内部错误，请稍后重试"

// AppsHandler Mattermost Apps 调用处理器，所有响应均为 HTTP 200
type AppsHandler struct {
	linkingService  service.LinkingService
	reminderService service.ReminderService
	botService      service.BotService
	cfg             *config.MattermostConfig
}

// NewAppsHandler 创建Apps处理器
func NewAppsHandler(
	linkingService service.LinkingService,
	reminderService service.ReminderService,
	botService service.BotService,
	cfg *config.MattermostConfig,
) *AppsHandler {
	return &AppsHandler{
		linkingService:  linkingService,
		reminderService: reminderService,
		botService:      botService,
		cfg:             cfg,
	}
}

// Manifest 应用清单
func (h *AppsHandler) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, service.NewManifest(h.cfg.RootURL(), h.cfg.AppSecret != ""))
}

// Ping 安装时的连通性检查
func (h *AppsHandler) Ping(c *gin.Context) {
	responses.Ok(c, "")
}

// Bindings 命令与菜单绑定，请求体可为空
func (h *AppsHandler) Bindings(c *gin.Context) {
	var req dto.CallRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		h.botService.Sync(req.Context)
	}
	responses.OkData(c, service.Bindings(h.cfg.RootURL()+"/static"))
}

func (h *AppsHandler) Connect(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	form, err := h.linkingService.Connect(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.Connect", err)
		return
	}
	responses.Form(c, form)
}

func (h *AppsHandler) ConnectRefresh(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	form, err := h.linkingService.Refresh(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.ConnectRefresh", err)
		return
	}
	responses.Form(c, form)
}

func (h *AppsHandler) ConnectComplete(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	text, err := h.linkingService.Complete(c.Request.Context(), req, webhookURL(c))
	if err != nil {
		callError(c, "AppsHandler.ConnectComplete", err)
		return
	}
	responses.Ok(c, text)
}

func (h *AppsHandler) Disconnect(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	form, err := h.linkingService.Disconnect(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.Disconnect", err)
		return
	}
	responses.Form(c, form)
}

func (h *AppsHandler) DisconnectComplete(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	text, err := h.linkingService.DisconnectComplete(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.DisconnectComplete", err)
		return
	}
	responses.Ok(c, text)
}

// GetRepos 当前用户可见的仓库
func (h *AppsHandler) GetRepos(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	items, err := h.linkingService.LookupUserRepos(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.GetRepos", err)
		return
	}
	responses.Lookup(c, items)
}

// GetChannelRepos 当前频道已绑定的仓库
func (h *AppsHandler) GetChannelRepos(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	items, err := h.linkingService.LookupChannelRepos(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.GetChannelRepos", err)
		return
	}
	responses.Lookup(c, items)
}

func (h *AppsHandler) ReminderRefresh(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	responses.Form(c, h.reminderService.RefreshForm(req))
}

func (h *AppsHandler) CreateReminder(c *gin.Context) {
	req, ok := h.bindWithBot(c)
	if !ok {
		return
	}
	at, err := h.reminderService.Create(c.Request.Context(), req)
	if err != nil {
		callError(c, "AppsHandler.CreateReminder", err)
		return
	}
	responses.Ok(c, fmt.Sprintf("将在 %s 提醒你", at.Format(constants.ReminderDatetimeLayout)))
}

func (h *AppsHandler) bind(c *gin.Context) (*dto.CallRequest, bool) {
	var req dto.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("解析 Apps 调用失败",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(constants.ContextKeyRequestID)),
			zap.Error(err))
		responses.CallError(c, pkgErrors.ErrBadRequest.Message)
		return nil, false
	}
	return &req, true
}

// bindWithBot 解析调用并在后台同步机器人凭据
func (h *AppsHandler) bindWithBot(c *gin.Context) (*dto.CallRequest, bool) {
	req, ok := h.bind(c)
	if ok {
		h.botService.Sync(req.Context)
	}
	return req, ok
}

// callError 业务错误直接展示给用户，其余错误只记录日志
func callError(c *gin.Context, handler string, err error) {
	log := logger.Log.With(
		zap.String("handler", handler),
		zap.String("request_id", c.GetString(constants.ContextKeyRequestID)),
		zap.Error(err),
	)

	var appErr *pkgErrors.AppError
	if errors.As(err, &appErr) && userFacing(appErr.Code) {
		log.Warn("Apps 调用失败")
		responses.CallError(c, appErr.Message)
		return
	}
	log.Error("Apps 调用异常")
	responses.CallError(c, internalCallError)
}

func userFacing(code int) bool {
	switch code {
	case pkgErrors.CodeBadRequest,
		pkgErrors.CodeUnauthorized,
		pkgErrors.CodeForbidden,
		pkgErrors.CodeNotFound,
		pkgErrors.CodeConflict,
		pkgErrors.CodeAuthError,
		pkgErrors.CodeValidationError,
		pkgErrors.CodeUpstreamError:
		return true
	}
	return false
}

// webhookURL 本服务的 webhook 回调地址，协议优先取反向代理传入的 X-Forwarded-Proto
func webhookURL(c *gin.Context) string {
	scheme := c.GetHeader(constants.HeaderForwardedProto)
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + c.Request.Host + constants.PathWebhook
}
