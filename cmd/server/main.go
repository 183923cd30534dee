// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chemsafe-go/internal/app"
	"chemsafe-go/internal/config"
	"chemsafe-go/internal/handler"
	"chemsafe-go/internal/middleware"
	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/metrics"
	"chemsafe-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 配置热更新只影响日志级别，其余配置需要重启生效
	config.Watch(func(c config.Config) {
		log.SetLevel(c.Log.Level)
		log.Infof("配置已重新加载，日志级别: %s", log.Level())
	})

	// 3. 组装依赖
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	a, err := app.Build(rootCtx, cfg)
	if err != nil {
		log.Fatal("初始化服务失败", err)
	}
	defer a.Close()

	// 4. 启动后台 Kafka 通知消费者
	a.StartBackground(rootCtx)

	// 5. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxBytes
	r.Use(middleware.RequestLogger(), gin.Recovery())

	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	documentHandler := handler.NewDocumentHandler(a.DocumentService, cfg.Upload.MaxBytes)
	chatHandler := handler.NewChatHandler(a.ChatService, a.ConversationService)
	newsHandler := handler.NewNewsHandler(a.NewsService)
	adminHandler := handler.NewAdminHandler(a.AdminService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 6. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/safety-data", documentHandler.Resolve(model.KindSafety))
		apiV1.POST("/tds-data", documentHandler.Resolve(model.KindTechnical))
		apiV1.POST("/raw-material-details", documentHandler.Resolve(model.KindProduct))
		apiV1.POST("/identify-chemical", documentHandler.IdentifyChemical)
		apiV1.POST("/analyze-sds", documentHandler.AnalyzeSDS)

		apiV1.POST("/news/translate", newsHandler.Translate)

		chatGroup := apiV1.Group("/chat")
		{
			chatGroup.POST("", chatHandler.Chat)
			chatGroup.GET("/stream", chatHandler.Stream)
			chatGroup.POST("/generate-metadata", chatHandler.GenerateMetadata)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager), middleware.AdminAuthMiddleware())
		{
			admin.DELETE("/cache/:kind", adminHandler.ClearCache)
		}
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: corsHandler(r),
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 停止 Kafka 消费者
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
