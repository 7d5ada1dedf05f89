package service

import (
	"time"

	"photo_battle/internal/gemini"
	"photo_battle/internal/repository"
)

// Services 聚合對外提供的服務
type Services struct {
	Room  *RoomService
	Match *MatchService
}

// NewServices 初始化所有服務
func NewServices(provider gemini.ContentProvider, repos *repository.Repositories, waitTimeout, presentationDelay time.Duration) *Services {
	var records repository.BattleRecordRepository
	if repos != nil {
		records = repos.BattleRecord
	}

	roomService := NewRoomService(provider, records, presentationDelay)
	matchService := NewMatchService(roomService, provider, waitTimeout)
	return &Services{
		Room:  roomService,
		Match: matchService,
	}
}
