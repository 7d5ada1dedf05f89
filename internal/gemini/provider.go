package gemini

import (
	"context"

	"photo_battle/internal/models"
)

// ObjectInfo 是拍攝物體的鑑定結果
type ObjectInfo struct {
	ObjectName string `json:"object_name"`
	Attribute  string `json:"attribute"`
	Power      int    `json:"power"`
}

// Verdict 是戰鬥判定結果，Winner 為 1 或 2
type Verdict struct {
	Winner int    `json:"winner"`
	Reason string `json:"reason"`
}

// ContentProvider 定義角色生成與戰鬥判定的外部服務介面
// 每個方法內部最多重試 3 次，重試耗盡後回傳錯誤，
// 呼叫端必須把持續失敗當成正常結果處理而不是讓程序崩潰
type ContentProvider interface {
	// AnalyzeSubmission 鑑定照片中的物體（名稱、屬性、パワー）
	AnalyzeSubmission(ctx context.Context, imageBase64 string) (*ObjectInfo, error)
	// GenerateProfile 依照片與鑑定結果生成戰鬥角色，info 可為 nil
	GenerateProfile(ctx context.Context, imageBase64 string, info *ObjectInfo) (*models.Character, error)
	// GenerateIllustration 生成角色插畫，回傳 data URL
	GenerateIllustration(ctx context.Context, c *models.Character) (string, error)
	// GenerateRandomProfile 生成隨機角色（AI 對手用）
	GenerateRandomProfile(ctx context.Context) (*models.Character, error)
	// ResolveOutcome 判定兩名角色的勝負
	ResolveOutcome(ctx context.Context, c1, c2 *models.Character) (*Verdict, error)
}

// FallbackCharacter 回傳隨機角色生成失敗時使用的固定角色
func FallbackCharacter() *models.Character {
	return &models.Character{
		Name:        "謎の挑戦者",
		HP:          120,
		Attack:      60,
		Defense:     50,
		Speed:       55,
		SpecialMove: "ミステリアスブロー",
		Attribute:   "打撃",
		Power:       50,
		Description: "正体不明の挑戦者。油断はできない。",
	}
}
