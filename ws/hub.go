package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/metrics"
)

var log = logger.For("ws")

// Publisher, service katmanının subscriber'lara event göndermek için
// kullandığı interface. Service'ler Hub'ın concrete struct'ına değil
// bu interface'e bağımlıdır; testlerde fake publisher kullanılır.
type Publisher interface {
	// BroadcastToAll, aynı event'i tüm açık subscriber'lara gönderir,
	// teslim edilen subscriber sayısını döner.
	BroadcastToAll(event Event) int
	// SendTo, event'i sadece verilen subscriber'a gönderir.
	SendTo(client *Client, event Event) bool
	// Probe, liveness kontrolü yapar ve düşürülen subscriber sayısını döner.
	Probe() int
	Count() int
}

// Hub, tüm status subscriber'larını yöneten merkezi yapıdır (Observer pattern).
//
// clients set'i sadece mu altında değişir. register/unregister channel'ları
// Run() goroutine'i tarafından tüketilir; Probe ölü client'ları doğrudan çıkarır.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq atomic.Int64

	// Callback'ler main.go'da bağlanır (Dependency Inversion):
	// ws paketi services'i import etmez.
	onSubscribe func(client *Client)
	onPull      func(client *Client)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnSubscribe, yeni subscriber kaydolduğunda çağrılacak callback'i set eder.
// Run() başlamadan önce çağrılmalıdır.
func (h *Hub) OnSubscribe(fn func(client *Client)) {
	h.onSubscribe = fn
}

// OnPull, subscriber get_server_stats istediğinde çağrılacak callback'i set eder.
func (h *Hub) OnPull(fn func(client *Client)) {
	h.onPull = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır,
// Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			if h.onSubscribe != nil {
				go h.onSubscribe(client)
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	log.WithField("client_id", client.id).WithField("subscribers", total).Info("subscriber connected")
}

// removeClient, client'ı set'ten çıkarır ve send channel'ını kapatır.
// Client zaten çıkarılmışsa hiçbir şey yapmaz; false döner.
func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, client)
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	log.WithField("client_id", client.id).WithField("subscribers", total).Info("subscriber disconnected")
	return true
}

// enqueueUnregister, Hub durmuşsa bloklamadan döner.
func (h *Hub) enqueueUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// enqueueRegister, Hub durmuşsa false döner.
func (h *Hub) enqueueRegister(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("op", event.Op).Error("failed to marshal event")
		return nil, false
	}
	return data, true
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
// Buffer'ı dolu (yavaş) client'lar bu tick'i kaçırır ve düşürülür.
func (h *Hub) BroadcastToAll(event Event) int {
	data, ok := h.encode(event)
	if !ok {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients {
		select {
		case client.send <- data:
			delivered++
		default:
			go h.enqueueUnregister(client)
		}
	}
	return delivered
}

// SendTo, event'i tek bir client'a gönderir. Client artık kayıtlı değilse false döner.
func (h *Hub) SendTo(client *Client, event Event) bool {
	data, ok := h.encode(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		go h.enqueueUnregister(client)
		return false
	}
}

// Probe, her subscriber için liveness kontrolü yapar:
//   - önceki probe'dan beri pong (veya heartbeat) göndermeyen client düşürülür
//     ve bağlantısı zorla kapatılır
//   - diğerleri "ölü" işaretlenir ve yeni bir ping alır
//
// Düşürülen subscriber sayısını döner.
func (h *Hub) Probe() int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		snapshot = append(snapshot, client)
	}
	h.mu.RUnlock()

	evicted := 0
	for _, client := range snapshot {
		if !client.alive.Swap(false) {
			if h.removeClient(client) {
				evicted++
				metrics.Evictions.Inc()
				log.WithField("client_id", client.id).Warn("subscriber missed liveness probe, evicting")
			}
			_ = client.conn.Close()
			continue
		}

		deadline := time.Now().Add(writeWait)
		if err := client.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			log.WithError(err).WithField("client_id", client.id).Debug("ping failed")
		}
	}
	return evicted
}

// Count, o an kayıtlı subscriber sayısını döner.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown, event loop'u durdurur ve tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	metrics.Subscribers.Set(0)
	log.Info("hub shut down, all connections closed")
}
