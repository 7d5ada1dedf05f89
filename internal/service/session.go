package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"photo_battle/internal/gemini"
	"photo_battle/internal/models"
	repomodels "photo_battle/internal/repository/models"
)

// RunPlayer 以會話迴圈接管一條已附著到房間的連線
// 訊息依到達順序逐一處理，讀取或解析失敗一律視為斷線，
// 無論怎麼退出，斷線清理都只會跑一次
func (s *RoomService) RunPlayer(room *Room, player *Player) {
	defer s.handleDisconnect(room, player)

	for {
		data, ok := <-player.Client.Incoming()
		if !ok {
			return
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		s.handleMessage(room, player, &msg)
	}
}

func (s *RoomService) handleMessage(room *Room, player *Player, msg *models.Message) {
	switch msg.Type {
	case models.MsgImageSubmit:
		s.handleImageSubmit(room, player, msg)
	case models.MsgReady:
		s.handleReady(room, player)
	default:
		// 未知的訊息類型一律忽略，方便協議向前相容
	}
}

// handleImageSubmit 處理玩家提交的照片：
// 先鑑定物體，再以鑑定結果生成角色，角色先送回給玩家，
// 插畫另外生成、成功才補送，失敗時不影響流程
func (s *RoomService) handleImageSubmit(room *Room, player *Player, msg *models.Message) {
	player.ImageData = msg.ImageData
	ctx := context.Background()

	info, err := s.provider.AnalyzeSubmission(ctx, msg.ImageData)
	if err != nil {
		s.sendError(player, "キャラクター生成に失敗しました: "+err.Error())
		return
	}

	character, err := s.provider.GenerateProfile(ctx, msg.ImageData, info)
	if err != nil {
		s.sendError(player, "キャラクター生成に失敗しました: "+err.Error())
		return
	}

	player.Client.Send(models.Message{
		Type:      models.MsgCharacterGenerated,
		Character: character,
	})

	if image, err := s.provider.GenerateIllustration(ctx, character); err == nil {
		character.Image = image
		player.Client.Send(models.Message{
			Type:  models.MsgCharacterImage,
			Image: image,
		})
	}

	room.setCharacter(player.ID, character)

	for _, p := range room.opponents(player.ID) {
		p.Client.Send(models.Message{Type: models.MsgOpponentCharacterReady})
	}

	// 對手可能早就按下就緒，角色補齊後要再檢查一次開戰條件
	if room.tryAdvance() {
		s.startBattle(room)
	}
}

// handleReady 標記玩家就緒並在雙方都備妥時開戰
func (s *RoomService) handleReady(room *Room, player *Player) {
	room.mu.Lock()
	player.Ready = true
	room.mu.Unlock()

	for _, p := range room.opponents(player.ID) {
		p.Client.Send(models.Message{Type: models.MsgOpponentReady})
	}

	if room.tryAdvance() {
		s.startBattle(room)
	}
}

// startBattle 廣播開戰、交由生成服務判定勝負並公布結果
// 判定與演出並行，兩者都完成才送出 battle_result，
// 所以從 battle_start 到結果公布至少會經過 PresentationDelay
func (s *RoomService) startBattle(room *Room) {
	info1, info2 := room.battlePair()
	if info1 == nil || info2 == nil {
		return
	}

	start := models.Message{Type: models.MsgBattleStart, Player1: info1, Player2: info2}
	for _, p := range room.connected() {
		p.Client.Send(start)
	}

	type outcome struct {
		verdict *gemini.Verdict
		err     error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		v, err := s.provider.ResolveOutcome(context.Background(), info1.Character, info2.Character)
		resultCh <- outcome{verdict: v, err: err}
	}()

	timer := time.NewTimer(s.PresentationDelay)
	res := <-resultCh
	<-timer.C

	// 判定成敗與否，房間都進入終態
	room.finish()

	if res.err != nil {
		log.Printf("battle resolution failed in room %s: %v", room.ID, res.err)
		errMsg := models.Message{
			Type:    models.MsgError,
			Message: "バトル処理に失敗しました: " + res.err.Error(),
		}
		for _, p := range room.connected() {
			p.Client.Send(errMsg)
		}
		return
	}

	winnerID := info1.PlayerID
	if res.verdict.Winner == 2 {
		winnerID = info2.PlayerID
	}

	result := models.Message{
		Type:           models.MsgBattleResult,
		WinnerPlayerID: winnerID,
		Reason:         res.verdict.Reason,
		Player1:        info1,
		Player2:        info2,
	}
	for _, p := range room.connected() {
		p.Client.Send(result)
	}

	s.recordBattle(room.ID, winnerID, res.verdict.Reason, info1, info2)
}

// handleDisconnect 移除離開的玩家並在房間沒人時回收房間
func (s *RoomService) handleDisconnect(room *Room, player *Player) {
	remaining, empty := room.removePlayer(player.ID)

	for _, p := range remaining {
		// 盡力通知，對方也斷線就算了
		p.Client.Send(models.Message{Type: models.MsgOpponentDisconnected})
	}

	if empty {
		s.removeRoom(room.ID)
	}
	player.Client.Close()
}

func (s *RoomService) sendError(player *Player, message string) {
	player.Client.Send(models.Message{Type: models.MsgError, Message: message})
}

// recordBattle 把對戰結果寫入資料庫，未設定資料庫時跳過
func (s *RoomService) recordBattle(roomID string, winnerID int, reason string, p1, p2 *models.PlayerInfo) {
	if s.records == nil {
		return
	}

	c1, _ := json.Marshal(p1.Character)
	c2, _ := json.Marshal(p2.Character)
	record := &repomodels.BattleRecord{
		RoomID:     roomID,
		WinnerSlot: winnerID,
		Reason:     reason,
		Player1:    string(c1),
		Player2:    string(c2),
	}
	if err := s.records.Create(record); err != nil {
		log.Printf("failed to save battle record for room %s: %v", roomID, err)
	}
}
