package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"photo_battle/internal/api"
	"photo_battle/internal/gemini"
	"photo_battle/internal/repository"
	repomodels "photo_battle/internal/repository/models"
	"photo_battle/internal/service"
	"photo_battle/internal/storage"
	"photo_battle/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY is not set")
	}

	// 初始化 Gemini 客戶端
	// 角色生成、插畫與戰鬥判定都經過這個服務
	provider, err := gemini.NewClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.ImageModel)
	if err != nil {
		log.Fatalf("Failed to initialize gemini client: %v", err)
	}

	// 初始化資料庫連接（選用）
	// 只用來追加對戰紀錄，沒設定資料庫也能正常開局
	var repos *repository.Repositories
	if cfg.DB.Host != "" {
		db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		if err := db.AutoMigrate(&repomodels.BattleRecord{}); err != nil {
			log.Fatalf("Failed to auto migrate database: %v", err)
		}
		repos = repository.NewRepositories(db)
	} else {
		log.Println("db.host is empty, battle records disabled")
	}

	// 初始化服務
	services := service.NewServices(provider, repos, cfg.Match.WaitTimeout, cfg.Match.PresentationDelay)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, repos)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
