package models

// 連線協議使用的訊息類型
// 客戶端送入：skip / image_submit / ready
// 伺服器送出：其餘類型
const (
	MsgSkip                   = "skip"
	MsgImageSubmit            = "image_submit"
	MsgReady                  = "ready"
	MsgWaiting                = "waiting"
	MsgJoined                 = "joined"
	MsgBothJoined             = "both_joined"
	MsgCharacterGenerated     = "character_generated"
	MsgCharacterImage         = "character_image"
	MsgOpponentCharacterReady = "opponent_character_ready"
	MsgOpponentReady          = "opponent_ready"
	MsgBattleStart            = "battle_start"
	MsgBattleResult           = "battle_result"
	MsgOpponentDisconnected   = "opponent_disconnected"
	MsgError                  = "error"
)

// Message 代表一個統一的 WebSocket 訊息結構，雙向共用
// 未使用的欄位透過 omitempty 省略
type Message struct {
	Type string `json:"type"`

	// 客戶端送入
	ImageData string `json:"image_data,omitempty"`

	// 伺服器送出
	PlayerID       int         `json:"player_id,omitempty"`
	PlayersInRoom  int         `json:"players_in_room,omitempty"`
	Character      *Character  `json:"character,omitempty"`
	Image          string      `json:"image,omitempty"`
	WinnerPlayerID int         `json:"winner_player_id,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	Player1        *PlayerInfo `json:"player1,omitempty"`
	Player2        *PlayerInfo `json:"player2,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// PlayerInfo 是戰鬥通知中攜帶的玩家摘要
type PlayerInfo struct {
	PlayerID  int        `json:"player_id"`
	Character *Character `json:"character"`
}
