package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"photo_battle/internal/api/handlers"
	"photo_battle/internal/repository"
	"photo_battle/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, repos *repository.Repositories) {
	// 初始化 handlers
	wsHandler := handlers.NewWebSocketHandler(services.Match)

	var records repository.BattleRecordRepository
	if repos != nil {
		records = repos.BattleRecord
	}
	battleHandler := handlers.NewBattleHandler(records)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// WebSocket 連接點：配對與對戰都走這一條連線
	r.GET("/ws", wsHandler.HandleWebSocket)

	// API 路由群組
	api := r.Group("/api")
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// 對戰紀錄查詢
		api.GET("/battles", battleHandler.ListRecent)
	}
}
