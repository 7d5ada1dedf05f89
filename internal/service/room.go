package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"photo_battle/internal/gemini"
	"photo_battle/internal/models"
	"photo_battle/internal/repository"
)

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // 等待雙方就緒
	RoomStatusPlaying  RoomStatus = "playing"  // 戰鬥進行中
	RoomStatusFinished RoomStatus = "finished" // 戰鬥結束（終態）
)

// Player 代表房間中的一方
// AI 對手的 Client 為 nil
// ImageData / Character / Ready 只由該玩家自己的訊息處理路徑寫入
type Player struct {
	Client    *Client
	ID        int // 房間內的玩家編號（1 或 2），加入房間時指定後不再變動
	ImageData string
	Character *models.Character
	Ready     bool
}

// Room 代表一組配對完成的對戰
type Room struct {
	ID string

	mu      sync.Mutex
	players map[int]*Player
	status  RoomStatus
	nextID  int
}

func newRoom() *Room {
	return &Room{
		ID:      strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		players: make(map[int]*Player),
		status:  RoomStatusWaiting,
		nextID:  1,
	}
}

// addPlayer 把連線加入房間並指定玩家編號，client 為 nil 代表 AI 對手
func (r *Room) addPlayer(client *Client) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &Player{Client: client, ID: r.nextID}
	r.players[p.ID] = p
	r.nextID++
	return p
}

// removePlayer 移除玩家並回傳其餘還有連線的玩家
// 沒有任何連線留在房間時回傳 empty=true（只剩 AI 的房間視為空房）
func (r *Room) removePlayer(id int) (remaining []*Player, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.players, id)
	empty = true
	for _, p := range r.players {
		if p.Client != nil {
			remaining = append(remaining, p)
			empty = false
		}
	}
	return remaining, empty
}

// setCharacter 寫入玩家的角色
// 房間被回收後的延遲寫入是無害的 no-op（物件仍在，只是已不在註冊表中）
func (r *Room) setCharacter(id int, c *models.Character) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[id]; ok {
		p.Character = c
	}
}

// opponents 回傳指定玩家以外、還有連線的玩家
func (r *Room) opponents(id int) []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Player
	for _, p := range r.players {
		if p.ID != id && p.Client != nil {
			out = append(out, p)
		}
	}
	return out
}

// connected 回傳所有還有連線的玩家
func (r *Room) connected() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Player
	for _, p := range r.players {
		if p.Client != nil {
			out = append(out, p)
		}
	}
	return out
}

// tryAdvance 檢查開戰條件並嘗試把房間推進到 playing
// 條件：兩名玩家到齊、都已就緒、都已有角色
// 狀態檢查與轉移在同一把鎖內完成，保證整場對戰只會推進一次
func (r *Room) tryAdvance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RoomStatusWaiting || len(r.players) != 2 {
		return false
	}
	for _, p := range r.players {
		if !p.Ready || p.Character == nil {
			return false
		}
	}
	r.status = RoomStatusPlaying
	return true
}

// finish 把房間標記為終態
func (r *Room) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RoomStatusFinished
}

// Status 回傳房間目前的狀態
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// battlePair 在鎖內擷取編號 1、2 的玩家摘要，供戰鬥通知使用
func (r *Room) battlePair() (p1, p2 *models.PlayerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, b := r.players[1], r.players[2]
	if a == nil || b == nil {
		return nil, nil
	}
	return &models.PlayerInfo{PlayerID: a.ID, Character: a.Character},
		&models.PlayerInfo{PlayerID: b.ID, Character: b.Character}
}

// RoomService 管理房間註冊表與房間內的對戰流程
type RoomService struct {
	provider gemini.ContentProvider
	records  repository.BattleRecordRepository // 可為 nil（停用對戰紀錄）

	// PresentationDelay 是戰鬥演出的最短時間，
	// 判定再快也要等演出播完才公布結果
	PresentationDelay time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomService 建立房間服務
func NewRoomService(provider gemini.ContentProvider, records repository.BattleRecordRepository, presentationDelay time.Duration) *RoomService {
	return &RoomService{
		provider:          provider,
		records:           records,
		PresentationDelay: presentationDelay,
		rooms:             make(map[string]*Room),
	}
}

// createRoom 建立房間並登錄到註冊表
func (s *RoomService) createRoom() *Room {
	room := newRoom()

	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()
	return room
}

// removeRoom 把房間從註冊表移除，這是唯一銷毀房間的路徑
func (s *RoomService) removeRoom(id string) {
	s.mu.Lock()
	delete(s.rooms, id)
	s.mu.Unlock()
}

// RoomCount 回傳目前登錄的房間數
func (s *RoomService) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
