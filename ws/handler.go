package ws

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler, /ws bağlantı isteklerini işleyen HTTP handler'ı.
//
// Status feed public'tir: token gerekmez.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler, yeni bir WebSocket handler oluşturur.
// allowedOrigins boşsa veya "*" içeriyorsa tüm origin'ler kabul edilir.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Tarayıcı dışı client'lar (origin yok) ve aynı host kabul edilir.
		if origin == "" || len(set) == 0 {
			return true
		}
		if set[origin] {
			return true
		}
		return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı Hub'a kaydeder.
//
// Flow:
//  1. HTTP → WebSocket upgrade
//  2. Client oluştur, Hub'a kaydet (Hub onSubscribe ile ilk snapshot'ı gönderir)
//  3. WritePump ayrı goroutine'de, ReadPump bu goroutine'de çalışır
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("upgrade failed")
		return
	}

	client := newClient(h.hub, conn, uuid.NewString())

	if !h.hub.enqueueRegister(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump() // bağlantı kapanana kadar bloklar
}
