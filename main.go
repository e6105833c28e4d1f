// @title 创意学习平台后端 API
// @version 1.0
// @description 创意学习平台的后端服务：大模型中转、AI助手、学习仪表盘与图片分析。

// @host localhost:8080
// @BasePath /api

package main

import (
	"creative_learning_backend/internal/app"
	"creative_learning_backend/internal/config"
	"creative_learning_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "config.yaml 所在目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer logger.Log.Sync()

	application.Run()
}
