// Package app 组装服务端和命令行共用的依赖。
package app

import (
	"context"
	"fmt"

	"chemsafe-go/internal/cache"
	"chemsafe-go/internal/config"
	"chemsafe-go/internal/generator"
	"chemsafe-go/internal/repository"
	"chemsafe-go/internal/sanitize"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/database"
	"chemsafe-go/pkg/fcm"
	"chemsafe-go/pkg/kafka"
	"chemsafe-go/pkg/llm"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/storage"
)

// 通知投递模式
const (
	NotifyKafka  = "kafka"
	NotifyDirect = "direct"
	NotifyNone   = "none"
)

// App 持有初始化好的服务。
type App struct {
	Config              config.Config
	CacheRepository     repository.DocumentCacheRepository
	Generator           *generator.Generator
	DocumentService     service.DocumentService
	ChatService         service.ChatService
	ConversationService service.ConversationService
	NewsService         service.NewsService
	AdminService        service.AdminService
	// FCM 在通知模式为 kafka 或 direct 时非空
	FCM      *fcm.Client
	producer *kafka.Producer
}

// Build 连接外部依赖并组装所有服务。连接失败时直接退出进程，与 database 包保持一致。
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := repository.MigrateCacheTables(database.DB); err != nil {
		return nil, fmt.Errorf("迁移缓存表失败: %w", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	cacheRepo := repository.NewRedisDocumentCache(
		database.RDB,
		repository.NewDocumentCacheRepository(database.DB),
		cfg.Cache.RedisTTL,
	)

	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, CacheRepository: cacheRepo, Generator: gen}

	var hooks []service.Hook
	dispatcher, err := a.newDispatcher(ctx)
	if err != nil {
		return nil, err
	}
	if dispatcher != nil {
		notifier := service.NewNotificationService(repository.NewProfileRepository(database.DB), dispatcher)
		hooks = append(hooks, notifier.OnDocumentResolved)
	}

	a.DocumentService = service.NewDocumentService(cache.NewStore(cacheRepo, cfg.Cache.StoreTimeout), gen, service.DocumentServiceOptions{
		CoalesceMisses: cfg.Cache.CoalesceMisses,
		Hooks:          hooks,
	})
	a.ChatService = service.NewChatService(gen)
	a.ConversationService = service.NewConversationService(gen)
	a.NewsService = service.NewNewsService(gen)
	a.AdminService = service.NewAdminService(cacheRepo)
	return a, nil
}

// NewGenerator 创建模型客户端、诊断落盘和形状校验。
func NewGenerator(ctx context.Context, cfg config.Config) (*generator.Generator, error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("初始化模型客户端失败: %w", err)
	}

	var schemas *generator.SchemaRegistry
	if cfg.LLM.StrictSchema {
		if schemas, err = generator.NewSchemaRegistry(); err != nil {
			return nil, err
		}
	}

	return generator.New(client, sanitize.New(newDiagnosticSink(cfg), cfg.Diagnostics.Timeout), generator.Options{
		DocumentParams: llm.ParamsFromConfig(cfg.LLM.Generation, true),
		TextParams:     llm.ParamsFromConfig(cfg.LLM.Generation, false),
		Timeout:        cfg.LLM.Timeout,
		Schemas:        schemas,
	}), nil
}

func newDiagnosticSink(cfg config.Config) sanitize.DiagnosticSink {
	switch cfg.Diagnostics.Sink {
	case "minio":
		storage.InitMinIO(cfg.MinIO)
		return sanitize.NewMinioSink(storage.MinioClient, cfg.MinIO.BucketName, cfg.Diagnostics.Prefix)
	case "file":
		return sanitize.NewFileSink(cfg.Diagnostics.Dir)
	default:
		return sanitize.NopSink{}
	}
}

// newDispatcher 按通知模式创建投递方式，none 时返回 nil。
func (a *App) newDispatcher(ctx context.Context) (service.Dispatcher, error) {
	mode := a.Config.Notification.Mode
	if mode == "" || mode == NotifyNone {
		return nil, nil
	}
	client, err := fcm.NewClient(ctx, a.Config.Notification)
	if err != nil {
		return nil, fmt.Errorf("初始化 FCM 客户端失败: %w", err)
	}
	a.FCM = client

	switch mode {
	case NotifyKafka:
		a.producer = kafka.NewProducer(a.Config.Kafka)
		return a.producer, nil
	case NotifyDirect:
		return client, nil
	default:
		return nil, fmt.Errorf("unknown notification mode %q", mode)
	}
}

// StartBackground 启动后台任务（Kafka 通知消费者），ctx 取消时退出。
func (a *App) StartBackground(ctx context.Context) {
	if a.producer == nil || a.FCM == nil {
		return
	}
	go kafka.StartConsumer(ctx, a.Config.Kafka, database.RDB, a.Config.Notification.MaxAttempts, a.FCM)
}

// Close 释放资源。
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			log.Warnf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}
