package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	// Subscriber'lar sadece küçük kontrol mesajları gönderir.
	maxMessageSize = 1024

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) client disconnect edilir.
	sendBufferSize = 256
)

// Client, tek bir status subscriber bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
//   - ReadPump: pong'ları ve pull isteklerini okur
//   - WritePump: Hub'dan gelen mesajları client'a yazar
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	send chan []byte
	mu   sync.Mutex // conn.WriteMessage çağrılarını korur

	// alive, son probe'dan beri pong (veya heartbeat) alındı mı?
	// Bağlantı canlı başlar.
	alive atomic.Bool

	// Pull birleştirme: aynı anda en fazla bir onPull çalışır; o sırada
	// gelen istekler tek bir ek çağrıya indirgenir.
	pullMu     sync.Mutex
	pulling    bool
	pullQueued bool
}

func newClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		id:   id,
		send: make(chan []byte, sendBufferSize),
	}
	c.alive.Store(true)
	return c
}

// ID, subscriber'ın bağlantı kimliği (log'lar için).
func (c *Client) ID() string {
	return c.id
}

// ReadPump, bağlantıdan gelen mesajları okur.
// Bağlantı kapanana kadar bloklar; kapanınca client Hub'dan çıkarılır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.enqueueUnregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("client_id", c.id).Debug("unexpected close")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithField("client_id", c.id).Debug("ignoring malformed message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage, client'tan gelen mesajı türüne göre işler.
// Bilinmeyen op'lar yok sayılır.
func (c *Client) handleMessage(msg inboundMessage) {
	switch msg.op() {
	case OpGetServerStats:
		if c.hub.onPull != nil {
			c.requestPull()
		}

	case OpHeartbeat:
		c.alive.Store(true)
		c.hub.SendTo(c, Event{Op: OpHeartbeatAck})

	default:
		log.WithField("client_id", c.id).WithField("op", msg.op()).Debug("unknown op")
	}
}

// requestPull, onPull'u arka planda çalıştırır. Bir pull zaten sürüyorsa
// yeni goroutine açılmaz, bitince bir kez daha çalıştırılır.
func (c *Client) requestPull() {
	c.pullMu.Lock()
	if c.pulling {
		c.pullQueued = true
		c.pullMu.Unlock()
		return
	}
	c.pulling = true
	c.pullMu.Unlock()

	go func() {
		for {
			c.hub.onPull(c)

			c.pullMu.Lock()
			if !c.pullQueued {
				c.pulling = false
				c.pullMu.Unlock()
				return
			}
			c.pullQueued = false
			c.pullMu.Unlock()
		}
	}()
}

// WritePump, Hub'dan gelen mesajları WebSocket bağlantısına yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı: Hub client'ı çıkardı
			_ = c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket aynı anda birden fazla writer'a izin vermez.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
