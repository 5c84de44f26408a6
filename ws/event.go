// Package ws, canlı sunucu durumu yayını için WebSocket bağlantı yönetimini sağlar.
//
// Mimari:
//   - Hub: tüm subscriber'ları yöneten merkezi kayıt (register/unregister event loop'u)
//   - Client: tek bir WebSocket bağlantısı (ReadPump + WritePump goroutine'leri)
//   - Event: client-server arası iletilen mesaj formatı
//
// Akış:
//  1. Tarayıcı /ws'ye bağlanır → Hub'a kaydolur → hemen bir snapshot alır
//  2. StatusBroadcaster her tick'te Probe + BroadcastToAll çağırır
//  3. Client {"op":"get_server_stats"} gönderirse sadece ona son snapshot gider
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü, ör. "server_stats", "heartbeat" vb.
// Data: Event'e özgü payload.
// Seq: Her outbound event'e verilen artan sayı.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inboundMessage, client'tan gelen mesaj. Asıl alan "op"; "type" anahtarı
// sadece inbound'da alias olarak okunur. Outbound format her zaman
// {"op", "d", "seq"} ve payload snake_case'dir.
type inboundMessage struct {
	Op   string `json:"op"`
	Type string `json:"type"`
}

func (m inboundMessage) op() string {
	if m.Op != "" {
		return m.Op
	}
	return m.Type
}

// Client → Server operasyonları
const (
	OpHeartbeat      = "heartbeat"        // uygulama seviyesi keepalive
	OpGetServerStats = "get_server_stats" // anlık snapshot isteği (pull)
)

// Server → Client operasyonları
const (
	OpServerStats  = "server_stats"
	OpHeartbeatAck = "heartbeat_ack"
)
