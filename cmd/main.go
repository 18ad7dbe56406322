package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/handler"
	"chatrelay-backend/internal/model"
	"chatrelay-backend/internal/router"
	"chatrelay-backend/internal/service"
	"chatrelay-backend/internal/utils"
	"chatrelay-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath, envFile string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.StringVar(&envFile, "env", ".env", "环境变量文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	appLog, err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Name:        cfg.Log.Name,
		File:        cfg.Log.File,
		MaxBytes:    cfg.Log.MaxBytes,
		BackupCount: cfg.Log.BackupCount,
	})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close(appLog)

	if cfg.LLM.APIKey == "" {
		logger.Warnf("API key for provider %s is not set; chat requests will fail until provided", cfg.LLM.Provider)
	}

	// 初始化模型客户端
	httpClient := utils.NewHTTPClient(cfg.LLM.Timeout, appLog, cfg.LLM.DebugRequests)
	chatModel, err := model.NewChatModel(context.Background(), cfg.LLM, httpClient)
	if err != nil {
		logger.Fatalf("Failed to create chat model: %v", err)
	}
	defer chatModel.Close()

	// 初始化服务和处理器
	chatService := service.NewChatService(chatModel, cfg.LLM, appLog)
	chatHandler := handler.NewChatHandler(chatService, appLog, handler.OptionsFromConfig(cfg.Chat))

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(cfg, chatHandler, appLog)
	if err != nil {
		logger.Fatalf("Failed to set up router: %v", err)
	}

	// 创建HTTP服务器
	server := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// 启动服务器
	go func() {
		logger.Infof("Server listening on %s (provider=%s, model=%s, input_mode=%s)",
			cfg.Server.Addr(), cfg.LLM.Provider, cfg.LLM.Model, cfg.Chat.InputMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := server.Close(); err != nil {
		logger.Errorf("Server close failed: %v", err)
	}
	logger.Info("Server stopped")
}
