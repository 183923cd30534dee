// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"chemsafe-go/pkg/log"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Diagnostics  DiagnosticsConfig  `mapstructure:"diagnostics"`
	Notification NotificationConfig `mapstructure:"notification"`
	Upload       UploadConfig       `mapstructure:"upload"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// LLMConfig 存储生成式模型相关的配置。
// Provider 取值 gemini 或 openai（任何 OpenAI 兼容接口）。
type LLMConfig struct {
	Provider     string              `mapstructure:"provider"`
	APIKey       string              `mapstructure:"api_key"`
	BaseURL      string              `mapstructure:"base_url"`
	Model        string              `mapstructure:"model"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	StrictSchema bool                `mapstructure:"strict_schema"`
	Generation   LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            float32 `mapstructure:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
}

// CacheConfig 配置文档缓存。
type CacheConfig struct {
	StoreTimeout   time.Duration `mapstructure:"store_timeout"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl"`
	CoalesceMisses bool          `mapstructure:"coalesce_misses"`
}

// DiagnosticsConfig 配置无法解析的模型响应的落盘位置。
// Sink 取值 minio、file 或 none。
type DiagnosticsConfig struct {
	Sink    string        `mapstructure:"sink"`
	Dir     string        `mapstructure:"dir"`
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotificationConfig 配置文档完成后的推送通知。
// Mode 取值 kafka、direct 或 none。
type NotificationConfig struct {
	Mode            string `mapstructure:"mode"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
	MaxAttempts     int64  `mapstructure:"max_attempts"`
}

// UploadConfig 配置文件分析接口的上传限制。
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "document-notifications")
	v.SetDefault("kafka.group_id", "chemsafe-go-notifier")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "chemsafe")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("llm.strict_schema", true)
	v.SetDefault("llm.generation.temperature", 0.1)
	v.SetDefault("llm.generation.top_p", 1.0)
	v.SetDefault("llm.generation.top_k", 32)
	v.SetDefault("llm.generation.max_output_tokens", 8192)
	v.SetDefault("cache.store_timeout", 2*time.Second)
	v.SetDefault("cache.redis_ttl", 24*time.Hour)
	v.SetDefault("cache.coalesce_misses", false)
	v.SetDefault("diagnostics.sink", "file")
	v.SetDefault("diagnostics.dir", "./logs/diagnostics")
	v.SetDefault("diagnostics.prefix", "diagnostics/")
	v.SetDefault("diagnostics.timeout", 3*time.Second)
	v.SetDefault("notification.mode", "none")
	v.SetDefault("notification.project_id", "")
	v.SetDefault("notification.credentials_file", "")
	v.SetDefault("notification.endpoint", "https://fcm.googleapis.com")
	v.SetDefault("notification.max_attempts", 3)
	v.SetDefault("upload.max_bytes", 10<<20)
}

// Load 从指定路径读取 YAML 配置，环境变量（例如 LLM_API_KEY）会覆盖文件中的值。
// 路径为空时只使用默认值和环境变量。
func Load(v *viper.Viper, configPath string) (Config, error) {
	var cfg Config
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，先加载 .env，再读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	// .env 不存在不是错误
	_ = godotenv.Load()

	cfg, err := Load(viper.GetViper(), configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}

// Watch 监听配置文件变化，重新解析后回调 onChange。
func Watch(onChange func(Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		reload(viper.GetViper(), e, onChange)
	})
	viper.WatchConfig()
}

// reload 重新解析配置，失败时保留当前配置并返回 false。
func reload(v *viper.Viper, e fsnotify.Event, onChange func(Config)) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return false
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Warnf("重新加载配置失败，保留当前配置: file=%s, err=%v", e.Name, err)
		return false
	}
	Conf = cfg
	onChange(cfg)
	return true
}
