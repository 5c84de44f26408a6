// Package main: WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın subscribe/pull callback'lerini ayarlar.
//
// Hub ws paketinde yaşıyor, snapshot üretimi ise service katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion);
// main package wire-up noktasıdır.
package main

import (
	"github.com/tokyoedge/portal/services"
	"github.com/tokyoedge/portal/ws"
)

// registerHubCallbacks, yeni subscriber'a ve get_server_stats isteğine
// son snapshot'ı sadece o client'a gönderir. Upstream'e giden tek yol
// broadcaster'ın periyodik tick'idir.
func registerHubCallbacks(hub *ws.Hub, status services.StatusBroadcaster) {
	hub.OnSubscribe(func(client *ws.Client) {
		status.SendSnapshot(client)
	})

	hub.OnPull(func(client *ws.Client) {
		status.SendSnapshot(client)
	})
}
