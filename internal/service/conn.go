package service

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn 抽象化一條雙向訊息連線
// 任何方法回傳錯誤都視為連線已失效
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() ([]byte, error)
	Close() error
}

// wsConn 包裝 gorilla 的連線並序列化寫入
// （對手的處理流程與自己的會話迴圈可能同時對同一條連線送訊息）
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSConn 把 *websocket.Conn 包裝成 Conn
func NewWSConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// Client 代表一條已接入的連線
// 唯一的讀取 goroutine 把訊息餵進 recv，
// 等待迴圈與會話迴圈都只從 recv 消費，彼此永遠不會同時讀同一條連線
type Client struct {
	conn Conn

	recv      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient 建立客戶端並啟動讀取迴圈
func NewClient(conn Conn) *Client {
	c := &Client{
		conn: conn,
		recv: make(chan []byte),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// readLoop 持續讀取連線，連線失效時關閉 recv 通知消費端
func (c *Client) readLoop() {
	defer close(c.recv)
	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.recv <- data:
		case <-c.done:
			return
		}
	}
}

// Incoming 回傳接收通道，通道關閉代表連線中斷
func (c *Client) Incoming() <-chan []byte {
	return c.recv
}

// Send 送出一則訊息，錯誤代表連線已失效
func (c *Client) Send(v interface{}) error {
	return c.conn.WriteJSON(v)
}

// Close 關閉連線並讓讀取迴圈結束
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
