package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"photo_battle/internal/gemini"
	"photo_battle/internal/models"
)

// waiter 是等待配對中的連線
// matched 由認領方寫入：成功配對時送來房間與自己的玩家編號，
// 認領後又放棄（通知失敗）時送 nil，讓等待方不必掃描註冊表就知道結局
type waiter struct {
	client  *Client
	matched chan *matchResult
}

type matchResult struct {
	room   *Room
	player *Player
}

// MatchService 負責配對：同一時間最多一條連線在等待位上，
// 後到的連線認領等待者組成房間，等不到人就改打 AI 對手
type MatchService struct {
	rooms    *RoomService
	provider gemini.ContentProvider

	// WaitTimeout 是等待真人對手的上限
	WaitTimeout time.Duration

	mu      sync.Mutex
	waiting *waiter
}

// NewMatchService 建立配對服務
func NewMatchService(rooms *RoomService, provider gemini.ContentProvider, waitTimeout time.Duration) *MatchService {
	return &MatchService{
		rooms:       rooms,
		provider:    provider,
		WaitTimeout: waitTimeout,
	}
}

// HandleConnection 是每條新連線的入口，連線的整個生命週期都在這裡完成
// 有人在等待位上就立刻配對，否則自己佔住等待位
// 佔用檢查與取走/佔住必須在同一把鎖內完成，
// 否則兩條同時到達的連線會認領同一個等待者
func (s *MatchService) HandleConnection(conn Conn) {
	client := NewClient(conn)

	s.mu.Lock()
	if w := s.waiting; w != nil {
		s.waiting = nil
		s.mu.Unlock()
		s.pairWith(w, client)
		return
	}

	w := &waiter{client: client, matched: make(chan *matchResult, 1)}
	s.waiting = w
	s.mu.Unlock()

	s.waitForPartner(w)
}

// pairWith 把新連線與等待者組成房間，等待者拿編號 1、新連線拿編號 2
func (s *MatchService) pairWith(w *waiter, client *Client) {
	room := s.rooms.createRoom()
	partner := room.addPlayer(w.client)
	player := room.addPlayer(client)

	// 第一個可觀察的副作用是通知等待者
	// 失敗代表對方在被認領與被通知之間就斷線了：
	// 丟棄建到一半的房間，新連線改打 AI 對手，不做重試
	if err := w.client.Send(models.Message{
		Type:          models.MsgJoined,
		PlayerID:      partner.ID,
		PlayersInRoom: 2,
	}); err != nil {
		s.rooms.removeRoom(room.ID)
		w.matched <- nil
		s.startAIBattle(client)
		return
	}

	// 之後的通知都是盡力而為，
	// 送不到的那方進入會話迴圈後自然會走斷線清理
	client.Send(models.Message{
		Type:          models.MsgJoined,
		PlayerID:      player.ID,
		PlayersInRoom: 2,
	})
	w.client.Send(models.Message{Type: models.MsgBothJoined, PlayerID: partner.ID})
	client.Send(models.Message{Type: models.MsgBothJoined, PlayerID: player.ID})

	w.matched <- &matchResult{room: room, player: partner}

	s.rooms.RunPlayer(room, player)
}

// waitForPartner 佔住等待位後的等待流程
// 等待期間同時盯著三件事：被後到的連線認領、收到 skip、超時
// 等待期間收到的其他訊息一律丟棄，不會留到會話迴圈再處理
//（被認領到讀出 matched 之間搶先送達的訊息也一樣），
// 客戶端要等收到角色相關回應後再送下一步
func (s *MatchService) waitForPartner(w *waiter) {
	client := w.client

	var (
		result  *matchResult
		matched bool
		failed  bool
	)

	if err := client.Send(models.Message{Type: models.MsgWaiting}); err != nil {
		failed = true
	} else {
		timer := time.NewTimer(s.WaitTimeout)
		defer timer.Stop()

	wait:
		for {
			select {
			case result = <-w.matched:
				matched = true
				break wait
			case data, ok := <-client.Incoming():
				if !ok {
					failed = true
					break wait
				}
				var msg models.Message
				if err := json.Unmarshal(data, &msg); err != nil {
					continue
				}
				if msg.Type == models.MsgSkip {
					break wait
				}
			case <-timer.C:
				break wait
			}
		}
	}

	if !matched {
		// skip、超時或斷線
		// 等待位還是自己的就清掉走 AI；已被認領就改聽認領結果，
		// 認領方取走等待者後一定會往 matched 送正好一個值
		if s.abandonWait(w) {
			if failed {
				client.Close()
				return
			}
			s.startAIBattle(client)
			return
		}
		result = <-w.matched
	}

	if result == nil {
		// 認領方在通知途中放棄了這次配對，找不到可附著的房間
		client.Close()
		return
	}

	s.rooms.RunPlayer(result.room, result.player)
}

// abandonWait 在等待位仍屬於 w 時把它清掉，回傳是否清除成功
func (s *MatchService) abandonWait(w *waiter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.waiting == w {
		s.waiting = nil
		return true
	}
	return false
}

// startAIBattle 找不到真人對手時的備援：
// 真人拿編號 1，AI 對手拿編號 2 並立刻就緒，
// AI 的角色在背景生成，不擋真人的會話流程
func (s *MatchService) startAIBattle(client *Client) {
	room := s.rooms.createRoom()
	player := room.addPlayer(client)
	ai := room.addPlayer(nil)

	room.mu.Lock()
	ai.Ready = true
	room.mu.Unlock()

	client.Send(models.Message{
		Type:          models.MsgJoined,
		PlayerID:      player.ID,
		PlayersInRoom: 2,
	})
	client.Send(models.Message{Type: models.MsgBothJoined, PlayerID: player.ID})

	go s.generateAICharacter(room, ai.ID)

	s.rooms.RunPlayer(room, player)
}

// generateAICharacter 在背景生成 AI 對手的角色
// 生成失敗就換上固定的備援角色，插畫失敗則略過
// 房間已被回收時寫入只是無害的 no-op
func (s *MatchService) generateAICharacter(room *Room, aiID int) {
	ctx := context.Background()

	character, err := s.provider.GenerateRandomProfile(ctx)
	if err != nil {
		character = gemini.FallbackCharacter()
	}
	if image, err := s.provider.GenerateIllustration(ctx, character); err == nil {
		character.Image = image
	}

	room.setCharacter(aiID, character)

	// 真人可能早就按下就緒，角色補齊後要再檢查一次開戰條件
	if room.tryAdvance() {
		s.rooms.startBattle(room)
	}
}
