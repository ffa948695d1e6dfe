package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matterlab/internal/adapter/notification"
	"matterlab/internal/api/handler"
	"matterlab/internal/api/router"
	"matterlab/internal/model"
	"matterlab/internal/pkg/cache"
	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/crypto"
	"matterlab/internal/pkg/database"
	"matterlab/internal/pkg/gitlab"
	"matterlab/internal/pkg/logger"
	"matterlab/internal/repository"
	"matterlab/internal/scheduler"
	"matterlab/internal/service"
	"matterlab/pkg/constants"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
)

const appName = "matterlab"

func main() {
	// 解析命令行参数
	flag.Parse()

	// 显示版本信息
	if *version {
		fmt.Printf("%s version %s\n", appName, constants.AppVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		// 优先级: 命令行参数 > 环境变量 > 默认路径
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./matterlab -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./matterlab")
			fmt.Println("  3. 使用默认配置:")
			fmt.Println("     ./matterlab  (将使用 configs/config.yaml)")
			os.Exit(1)
		}
		cfg = c

		// 初始化日志
		if err := logger.Init(&cfg.Log); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", constants.AppVersion))

	if cfg.Gitlab.WebhookSecret == "" {
		logger.Warn("未配置gitlab.webhook_secret，只接受不带 X-Gitlab-Token 的 webhook")
	}

	// 令牌加密
	if cfg.Crypto.Secret != "" {
		cipher, err := crypto.NewTokenCipher(cfg.Crypto.Secret)
		if err != nil {
			logger.Fatal("初始化令牌加密失败", zap.Error(err))
		}
		model.SetTokenCipher(cipher)
	} else {
		logger.Warn("未配置crypto.secret，访问令牌将明文存储")
	}

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()
	db := database.GetDB()

	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver), zap.String("database", cfg.Database.Database))

	if cfg.Database.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	// webhook 去重
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	dedup, closeDedup, err := cache.NewDeduplicator(startCtx, &cfg.Redis)
	startCancel()
	if err != nil {
		logger.Warn("Redis 不可用，webhook 不做去重", zap.Error(err))
		dedup, closeDedup = cache.NoopDeduplicator{}, func() error { return nil }
	}
	defer func() {
		_ = closeDedup()
	}()

	// 外部客户端
	gitlabClient, err := gitlab.NewClient(cfg.Gitlab.BaseURL, cfg.Gitlab.PageTimeout)
	if err != nil {
		logger.Fatal("初始化GitLab客户端失败", zap.Error(err))
	}
	notifier, err := notification.NewNotifier(&cfg.Mattermost, logger.Log)
	if err != nil {
		logger.Fatal("初始化Mattermost客户端失败", zap.Error(err))
	}
	if !cfg.Mattermost.Enabled {
		logger.Warn("Mattermost 未启用，通知只写入日志")
	}

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	botRepo := repository.NewBotRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	// 初始化Service
	webhookService := service.NewWebhookService(projectRepo, channelRepo, botRepo, notifier)
	linkingService := service.NewLinkingService(userRepo, projectRepo, channelRepo, linkRepo, gitlabClient, cfg.Gitlab.WebhookSecret)
	reminderService := service.NewReminderService(reminderRepo, botRepo, notifier)
	botService := service.NewBotService(botRepo)

	// 初始化Handler
	gitlabHandler := handler.NewGitlabHandler(webhookService, dedup, &cfg.Gitlab)
	appsHandler := handler.NewAppsHandler(linkingService, reminderService, botService, &cfg.Mattermost)

	// 初始化并启动定时任务调度器
	taskScheduler := scheduler.NewScheduler(reminderService, logger.Log)
	if err := taskScheduler.Start(&cfg.Scheduler); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	// 设置路由
	r := router.Setup(cfg, &router.Handlers{Gitlab: gitlabHandler, Apps: appsHandler})

	// 创建HTTP服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// 启动服务器
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
			zap.String("app_root_url", cfg.Mattermost.RootURL()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	// 关闭定时任务调度器
	taskScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待后台任务完成
	gitlabHandler.Wait()
	botService.Wait()

	logger.Info("服务已关闭")
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	// 1. 命令行参数
	if *configFile != "" {
		return *configFile
	}

	// 2. 环境变量
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}

	// 3. 默认路径
	return "configs/config.yaml"
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
