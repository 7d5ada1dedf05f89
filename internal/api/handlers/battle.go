package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"photo_battle/internal/repository"
)

// BattleHandler 提供對戰紀錄查詢
type BattleHandler struct {
	records repository.BattleRecordRepository
}

func NewBattleHandler(records repository.BattleRecordRepository) *BattleHandler {
	return &BattleHandler{records: records}
}

// ListRecent 回傳最近的對戰紀錄
func (h *BattleHandler) ListRecent(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "對戰紀錄未啟用"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.records.FindRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢對戰紀錄失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"battles": records})
}
