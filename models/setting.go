package models

import (
	"fmt"
	"strings"
)

// Setting, key-value portal ayarı. Value opak bir string'dir
// (bazıları JSON, bazıları düz metin). Ayarlar silinmez, sadece upsert edilir.
type Setting struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Category string `json:"category"`
}

// Bilinen ayar anahtarları.
const (
	SettingServerOnline     = "server_online"
	SettingServerPlayers    = "server_players"
	SettingServerMaxPlayers = "server_max_players"
	SettingServerStatus     = "server_status"
	SettingServerName       = "server_name"
)

// SettingCategoryServer, sunucu ile ilgili ayarların kategorisi.
const SettingCategoryServer = "server"

// UpsertSettingRequest, PUT /api/admin/settings/{key} body'si.
type UpsertSettingRequest struct {
	Value    string `json:"value"`
	Category string `json:"category"`
}

// Validate, value ve category zorunludur; key en fazla 50 karakter.
func (r *UpsertSettingRequest) Validate(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 50 {
		return fmt.Errorf("key must be between 1 and 50 characters")
	}
	r.Category = strings.TrimSpace(r.Category)
	if r.Value == "" || r.Category == "" {
		return fmt.Errorf("value and category are required")
	}
	if len(r.Category) > 50 {
		return fmt.Errorf("category must be at most 50 characters")
	}
	return nil
}
