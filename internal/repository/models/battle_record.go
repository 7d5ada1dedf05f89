package models

import (
	"gorm.io/gorm"
)

// BattleRecord 表示一場已判定完成的對戰紀錄
// 只作為追加式的結果日誌，房間與會話狀態本身不落地
type BattleRecord struct {
	gorm.Model
	RoomID     string `json:"room_id" gorm:"type:varchar(16);index"`
	WinnerSlot int    `json:"winner_slot"`
	Reason     string `json:"reason" gorm:"type:text"`
	Player1    string `json:"player1" gorm:"type:jsonb"` // 玩家 1 的角色 JSON
	Player2    string `json:"player2" gorm:"type:jsonb"` // 玩家 2 的角色 JSON
}
