package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"photo_battle/internal/models"
)

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

// Client 透過 Gemini API 實作 ContentProvider
type Client struct {
	client     *genai.Client
	model      string
	imageModel string
}

// NewClient 建立 Gemini 客戶端
func NewClient(ctx context.Context, apiKey, model, imageModel string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: c, model: model, imageModel: imageModel}, nil
}

// decodeImage 去除 data URL 前綴並解碼 base64 圖片
func decodeImage(imageBase64 string) ([]byte, error) {
	if i := strings.Index(imageBase64, ","); i >= 0 {
		imageBase64 = imageBase64[i+1:]
	}
	return base64.StdEncoding.DecodeString(imageBase64)
}

// generateJSON 呼叫文字模型並把 JSON 回應解析到 out，失敗時以固定間隔重試
func (c *Client) generateJSON(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, out any) error {
	if config == nil {
		config = &genai.GenerateContentConfig{}
	}
	config.ResponseMIMEType = "application/json"

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
		if err == nil {
			if err = json.Unmarshal([]byte(resp.Text()), out); err == nil {
				return nil
			}
		}
		lastErr = err
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("gemini api failed after %d attempts: %w", maxAttempts, lastErr)
}

// imageDataURL 從回應中取出第一張圖片並轉成 data URL
// 生成被安全機制擋下時 SDK 會回傳 err == nil 但沒有任何候選（或 Content 為 nil），
// 這裡一律當成失敗的一次嘗試交給重試迴圈，絕不能讓索引越界把整個行程帶垮
func imageDataURL(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
			return fmt.Sprintf("data:%s;base64,%s", part.InlineData.MIMEType, encoded), nil
		}
	}
	return "", fmt.Errorf("no image in response")
}

const analyzePrompt = `あなたは対象物の本質を見抜く鑑定眼を持ったAIです。
この画像には、人が手に何かを持ってカメラに見せている様子が映っています。
人物の説明は一切不要です。見せている「物体」を【戦闘での武器】として使った場合を想定し、その属性の強さを示す「パワー」（0〜100）と、「属性」を分析してください。

【重要】
属性は必ず以下の4つの中から、最もふさわしいものを1つだけ選んでください。それ以外の属性は絶対に使わないでください。
- 斬撃
- 打撃
- 盾
- 毒

また、その物体が何であるかを簡潔に説明してください。

以下のJSON形式でのみ出力してください。
{
    "object_name": "物体の名前",
    "attribute": "属性名",
    "power": 85
}`

// AnalyzeSubmission 鑑定照片中的物體
func (c *Client) AnalyzeSubmission(ctx context.Context, imageBase64 string) (*ObjectInfo, error) {
	imageBytes, err := decodeImage(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(imageBytes, "image/jpeg"),
		genai.NewPartFromText(analyzePrompt),
	}, genai.RoleUser)}

	var info ObjectInfo
	err = c.generateJSON(ctx, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.9),
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GenerateProfile 依照片生成戰鬥角色，info 提供時會反映鑑定結果
func (c *Client) GenerateProfile(ctx context.Context, imageBase64 string, info *ObjectInfo) (*models.Character, error) {
	imageBytes, err := decodeImage(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}

	var prompt string
	if info != nil {
		prompt = fmt.Sprintf(`この画像に写っている物体は「%s」と鑑定されました。
武器としての属性は【%s】、パワーは【%d/100】です。

この鑑定結果を元に、バトルゲームのキャラクターを生成してください。
- キャラクターの名前は「%s」をベースにした創造的な名前にしてください
- 属性【%s】を活かした必殺技にしてください
- パワー%dを反映したステータス配分にしてください（パワーが高いほど強い）
- キャラクターの説明には、元の物体と属性について触れてください

以下のJSON形式で出力してください:
{
  "name": "キャラクター名（日本語）",
  "hp": 数値(50-200),
  "attack": 数値(10-100),
  "defense": 数値(10-100),
  "speed": 数値(10-100),
  "special_move": "必殺技名（日本語）",
  "attribute": "%s",
  "power": %d,
  "description": "キャラクターの説明（2-3文、日本語）"
}

ステータスの合計は250-400の範囲にしてください。`,
			info.ObjectName, info.Attribute, info.Power,
			info.ObjectName, info.Attribute, info.Power,
			info.Attribute, info.Power)
	} else {
		prompt = `この画像に写っているものを元に、バトルゲームのキャラクターを生成してください。
画像の内容を創造的に解釈して、ユニークで面白いキャラクターにしてください。

以下のJSON形式で出力してください:
{
  "name": "キャラクター名（日本語）",
  "hp": 数値(50-200),
  "attack": 数値(10-100),
  "defense": 数値(10-100),
  "speed": 数値(10-100),
  "special_move": "必殺技名（日本語）",
  "description": "キャラクターの説明（2-3文、日本語）"
}

ステータスの合計は250-400の範囲にしてください。画像の特徴に合ったステータス配分にしてください。`
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(imageBytes, "image/jpeg"),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)}

	var character models.Character
	err = c.generateJSON(ctx, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.9),
	}, &character)
	if err != nil {
		return nil, err
	}

	// 模型偶爾會漏掉鑑定欄位，這裡補回預設值
	if info != nil {
		if character.Attribute == "" {
			character.Attribute = info.Attribute
		}
		if character.Power == 0 {
			character.Power = info.Power
		}
	}
	if character.Attribute == "" {
		character.Attribute = "打撃"
	}
	if character.Power == 0 {
		character.Power = 50
	}

	return &character, nil
}

// GenerateIllustration 生成角色插畫並以 data URL 回傳
func (c *Client) GenerateIllustration(ctx context.Context, character *models.Character) (string, error) {
	prompt := fmt.Sprintf(`以下のバトルキャラクターのイラストを1枚描いてください。

キャラクター名: %s
必殺技: %s
説明: %s

【絶対に守るルール】
- 文字、テキスト、ロゴ、名前、数字、記号は一切描かないでください
- キャラクターのみを描いてください
- 背景はシンプルな単色グラデーションにしてください
- アニメ・ゲーム風の迫力あるポーズで描いてください
- 正方形の構図で、キャラクターを画面中央に大きく配置してください`,
		character.Name, character.SpecialMove, character.Description)

	contents := genai.Text(prompt)
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, config)
		if err == nil {
			var dataURL string
			dataURL, err = imageDataURL(resp)
			if err == nil {
				return dataURL, nil
			}
		}
		lastErr = err
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("image generation failed after %d attempts: %w", maxAttempts, lastErr)
}

const randomPrompt = `ランダムなバトルゲームのキャラクターを1体生成してください。
創造的でユニークなキャラクターにしてください。

属性は必ず以下の4つの中から1つ選んでください:
- 斬撃
- 打撃
- 盾
- 毒

以下のJSON形式で出力してください:
{
  "name": "キャラクター名（日本語）",
  "hp": 数値(50-200),
  "attack": 数値(10-100),
  "defense": 数値(10-100),
  "speed": 数値(10-100),
  "special_move": "必殺技名（日本語）",
  "attribute": "属性名",
  "power": 数値(30-90),
  "description": "キャラクターの説明（2-3文、日本語）"
}

ステータスの合計は250-400の範囲にしてください。`

// GenerateRandomProfile 生成 AI 對手用的隨機角色
func (c *Client) GenerateRandomProfile(ctx context.Context) (*models.Character, error) {
	var character models.Character
	err := c.generateJSON(ctx, genai.Text(randomPrompt), &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](1.2),
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}, &character)
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// ResolveOutcome 依雙方角色的能力與屬性相性判定勝負
func (c *Client) ResolveOutcome(ctx context.Context, c1, c2 *models.Character) (*Verdict, error) {
	prompt := fmt.Sprintf(`2人のキャラクターのバトルを審判してください。

【プレイヤー1のキャラクター】
名前: %s
属性: %s（パワー: %d）
HP: %d
攻撃力: %d
防御力: %d
素早さ: %d
必殺技: %s
説明: %s

【プレイヤー2のキャラクター】
名前: %s
属性: %s（パワー: %d）
HP: %d
攻撃力: %d
防御力: %d
素早さ: %d
必殺技: %s
説明: %s

ステータスと属性の相性を考慮して、勝者を決定してください。
属性の相性: 斬撃→盾に強い、打撃→斬撃に強い、盾→毒に強い、毒→打撃に強い

以下のJSON形式で出力してください:
{
  "winner": 1 または 2（勝者のプレイヤー番号）,
  "reason": "勝敗の決め手（日本語、1文、熱い表現で）"
}`,
		c1.Name, c1.Attribute, c1.Power, c1.HP, c1.Attack, c1.Defense, c1.Speed, c1.SpecialMove, c1.Description,
		c2.Name, c2.Attribute, c2.Power, c2.HP, c2.Attack, c2.Defense, c2.Speed, c2.SpecialMove, c2.Description)

	var verdict Verdict
	err := c.generateJSON(ctx, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](1.0),
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}, &verdict)
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}
