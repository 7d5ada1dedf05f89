package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"photo_battle/internal/gemini"
	"photo_battle/internal/models"
)

// sentMessage 記錄送出的訊息與時間，供時序斷言使用
type sentMessage struct {
	msg models.Message
	at  time.Time
}

// stubConn 是測試用的連線替身
// in 模擬客戶端送入的訊息，close(in) 模擬斷線
type stubConn struct {
	in chan []byte

	mu       sync.Mutex
	sent     []sentMessage
	writeErr error

	closeOnce sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{in: make(chan []byte, 16)}
}

func (c *stubConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}
	msg, ok := v.(models.Message)
	if !ok {
		return errors.New("unexpected payload type")
	}
	c.sent = append(c.sent, sentMessage{msg: msg, at: time.Now()})
	return nil
}

func (c *stubConn) ReadMessage() ([]byte, error) {
	data, ok := <-c.in
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (c *stubConn) Close() error {
	c.disconnect()
	return nil
}

// disconnect 模擬客戶端斷線
func (c *stubConn) disconnect() {
	c.closeOnce.Do(func() { close(c.in) })
}

// failWrites 讓之後的送信都失敗，模擬對方已消失
func (c *stubConn) failWrites() {
	c.mu.Lock()
	c.writeErr = errors.New("broken pipe")
	c.mu.Unlock()
}

func (c *stubConn) send(t *testing.T, msg models.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	c.in <- data
}

func (c *stubConn) messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Message, len(c.sent))
	for i, s := range c.sent {
		out[i] = s.msg
	}
	return out
}

func (c *stubConn) count(msgType string) int {
	n := 0
	for _, m := range c.messages() {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (c *stubConn) has(msgType string) bool {
	return c.count(msgType) > 0
}

func (c *stubConn) find(msgType string) (models.Message, bool) {
	for _, m := range c.messages() {
		if m.Type == msgType {
			return m, true
		}
	}
	return models.Message{}, false
}

// timeOf 回傳第一則指定類型訊息的送出時間
func (c *stubConn) timeOf(msgType string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sent {
		if s.msg.Type == msgType {
			return s.at, true
		}
	}
	return time.Time{}, false
}

// stubProvider 是測試用的生成服務替身，預設所有呼叫都瞬間成功
type stubProvider struct {
	mu           sync.Mutex
	analyzeErr   error
	generateErr  error
	illustErr    error
	randomErr    error
	resolveErr   error
	verdict      gemini.Verdict
	resolveDelay time.Duration
	randomDelay  time.Duration
}

func newStubProvider() *stubProvider {
	return &stubProvider{verdict: gemini.Verdict{Winner: 1, Reason: "圧倒的な斬撃だった"}}
}

func (p *stubProvider) setGenerateErr(err error) {
	p.mu.Lock()
	p.generateErr = err
	p.mu.Unlock()
}

func (p *stubProvider) AnalyzeSubmission(ctx context.Context, imageBase64 string) (*gemini.ObjectInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.analyzeErr != nil {
		return nil, p.analyzeErr
	}
	return &gemini.ObjectInfo{ObjectName: "つるぎ", Attribute: "斬撃", Power: 70}, nil
}

func (p *stubProvider) GenerateProfile(ctx context.Context, imageBase64 string, info *gemini.ObjectInfo) (*models.Character, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generateErr != nil {
		return nil, p.generateErr
	}
	return &models.Character{
		Name:        "剣聖ツルギ",
		HP:          150,
		Attack:      80,
		Defense:     40,
		Speed:       60,
		SpecialMove: "一閃",
		Attribute:   "斬撃",
		Power:       70,
		Description: "テスト用の剣士。",
	}, nil
}

func (p *stubProvider) GenerateIllustration(ctx context.Context, c *models.Character) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.illustErr != nil {
		return "", p.illustErr
	}
	return "data:image/png;base64,aW1n", nil
}

func (p *stubProvider) GenerateRandomProfile(ctx context.Context) (*models.Character, error) {
	p.mu.Lock()
	delay := p.randomDelay
	p.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.randomErr != nil {
		return nil, p.randomErr
	}
	return &models.Character{
		Name:        "鉄壁ガーディアン",
		HP:          180,
		Attack:      40,
		Defense:     90,
		Speed:       30,
		SpecialMove: "アイアンウォール",
		Attribute:   "盾",
		Power:       60,
		Description: "テスト用の守護者。",
	}, nil
}

func (p *stubProvider) ResolveOutcome(ctx context.Context, c1, c2 *models.Character) (*gemini.Verdict, error) {
	p.mu.Lock()
	delay := p.resolveDelay
	err := p.resolveErr
	verdict := p.verdict
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}

// newTestServices 建立測試用的服務組，對戰紀錄停用、時間參數縮短
func newTestServices(provider gemini.ContentProvider, waitTimeout, presentationDelay time.Duration) *Services {
	return NewServices(provider, nil, waitTimeout, presentationDelay)
}

func roomsSnapshot(s *RoomService) []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

func playersSnapshot(r *Room) map[int]*Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int]*Player, len(r.players))
	for id, p := range r.players {
		out[id] = p
	}
	return out
}

func characterOf(r *Room, id int) *models.Character {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[id]; ok {
		return p.Character
	}
	return nil
}

const (
	waitTick    = 2 * time.Millisecond
	waitTimeout = 2 * time.Second
)

func eventually(t *testing.T, cond func() bool, msgAndArgs ...interface{}) {
	t.Helper()
	require.Eventually(t, cond, waitTimeout, waitTick, msgAndArgs...)
}
