package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultExpireQueue   = "subscription_expire_jobs"
	defaultEventChannel  = "subscription_events"
	defaultSweepInterval = 60
	defaultSweepBatch    = 100
	defaultMaxWorkers    = 2
	defaultArchivePrefix = "archive/subscriptions"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Log      LogConfig      `mapstructure:"log"`
	Expiry   ExpiryConfig   `mapstructure:"expiry"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
	// AdminUserIDs 可查看和操作任意用户订阅
	AdminUserIDs []int64 `mapstructure:"admin_user_ids"`
}

// OSSConfig 清理任务归档用的对象存储，Endpoint 为空时不归档
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
	ArchivePrefix   string `mapstructure:"archive_prefix"`
}

// Enabled 是否配置了对象存储
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.BucketName != ""
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ExpiryConfig 过期扫描与过期任务 worker 配置
type ExpiryConfig struct {
	Queue         string `mapstructure:"queue"`
	EventChannel  string `mapstructure:"event_channel"`
	SweepInterval int    `mapstructure:"sweep_interval"` // 扫描间隔（秒）
	BatchSize     int    `mapstructure:"batch_size"`
	MaxWorkers    int    `mapstructure:"max_workers"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Expiry.Queue == "" {
		c.Expiry.Queue = defaultExpireQueue
	}
	if c.Expiry.EventChannel == "" {
		c.Expiry.EventChannel = defaultEventChannel
	}
	if c.Expiry.SweepInterval <= 0 {
		c.Expiry.SweepInterval = defaultSweepInterval
	}
	if c.Expiry.BatchSize <= 0 {
		c.Expiry.BatchSize = defaultSweepBatch
	}
	if c.Expiry.MaxWorkers <= 0 {
		c.Expiry.MaxWorkers = defaultMaxWorkers
	}
	if c.OSS.ArchivePrefix == "" {
		c.OSS.ArchivePrefix = defaultArchivePrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
