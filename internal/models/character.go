package models

// Character 代表由生成服務產生的戰鬥角色
// 屬性（attribute）固定為 斬撃/打撃/盾/毒 四種之一，
// power 表示該屬性作為武器時的強度（0〜100）
type Character struct {
	Name        string `json:"name"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Speed       int    `json:"speed"`
	SpecialMove string `json:"special_move"`
	Attribute   string `json:"attribute,omitempty"`
	Power       int    `json:"power,omitempty"`
	Description string `json:"description"`
	// Image 為插畫的 data URL，插畫生成失敗時為空
	Image string `json:"image,omitempty"`
}
