package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Gitlab     GitlabConfig     `mapstructure:"gitlab"`
	Mattermost MattermostConfig `mapstructure:"mattermost"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Crypto     CryptoConfig     `mapstructure:"crypto"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN             string `mapstructure:"dsn"`    // 优先于分项配置
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Format   string `mapstructure:"format"` // json, console
	Output   string `mapstructure:"output"` // stdout, file
	FilePath string `mapstructure:"file_path"`
}

// GitlabConfig GitLab 配置
type GitlabConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	PageTimeout    time.Duration `mapstructure:"page_timeout"`    // 单次分页请求超时
	ProcessTimeout time.Duration `mapstructure:"process_timeout"` // 后台处理 webhook 超时
}

// MattermostConfig Mattermost 配置
type MattermostConfig struct {
	Enabled     bool          `mapstructure:"enabled"` // 关闭时通知只写日志
	Host        string        `mapstructure:"host"`
	AppRootURL  string        `mapstructure:"app_root_url"`
	AppSecret   string        `mapstructure:"app_secret"` // 为空时不校验 Apps JWT
	Timeout     time.Duration `mapstructure:"timeout"`
	LogMessages bool          `mapstructure:"log_messages"` // 发帖的同时把消息写入日志
}

// RedisConfig Redis 配置，用于 webhook 去重
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	Secret string `mapstructure:"secret"` // 为空时令牌明文存储
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	ReminderCron string `mapstructure:"reminder_cron"` // 支持秒级
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// 环境变量覆盖, 如 GITLAB_WEBHOOK_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	GlobalConfig = config

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "matterlab")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("gitlab.base_url", "https://gitlab.com")
	v.SetDefault("gitlab.page_timeout", 10*time.Second)
	v.SetDefault("gitlab.process_timeout", 60*time.Second)

	v.SetDefault("mattermost.enabled", true)
	v.SetDefault("mattermost.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.dedup_ttl", 24*time.Hour)

	v.SetDefault("scheduler.reminder_cron", "*/30 * * * * *")
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database)
	case "sqlite":
		return c.Database
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	}
}

// RootURL 应用对外根地址
// 优先级: CI_ENVIRONMENT_DOMAIN > app_root_url > http://localhost/mattermost
func (c *MattermostConfig) RootURL() string {
	if domain := os.Getenv("CI_ENVIRONMENT_DOMAIN"); domain != "" {
		return fmt.Sprintf("https://%s/mattermost", domain)
	}
	if c.AppRootURL != "" {
		return strings.TrimRight(c.AppRootURL, "/")
	}
	return "http://localhost/mattermost"
}
