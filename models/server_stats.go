package models

import "time"

// ServerStats, oyun sunucusunun anlık durumu. Kalıcı değildir;
// her broadcast tick'inde yeniden hesaplanır.
type ServerStats struct {
	Online      bool      `json:"online"`
	Players     int       `json:"players"`
	MaxPlayers  int       `json:"max_players"`
	LastRestart time.Time `json:"last_restart"`
	Ping        int       `json:"ping"`
}

// DefaultMaxPlayers, upstream veya ayarlar kapasite vermezse kullanılır.
const DefaultMaxPlayers = 128

// OfflineStats, hesaplama tamamen başarısız olduğunda yayınlanan snapshot.
func OfflineStats(now time.Time) ServerStats {
	return ServerStats{
		Online:      false,
		Players:     0,
		MaxPlayers:  DefaultMaxPlayers,
		LastRestart: now,
		Ping:        0,
	}
}
