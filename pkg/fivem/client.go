// Package fivem, FiveM oyun sunucusunun public HTTP endpoint'lerinden
// (info.json, players.json) durum bilgisi okur.
package fivem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMaxClients, info.json sv_maxClients vermezse kullanılır.
const DefaultMaxClients = 128

// maxBodySize, upstream yanıtı için üst sınır (players.json büyük olabilir).
const maxBodySize = 4 << 20

// Status, upstream'den okunan ham sunucu durumu.
type Status struct {
	Players    int
	MaxPlayers int
}

// Client, FiveM HTTP client'ı.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient, "http://host:port" formatında base URL alır.
// httpClient nil ise http.DefaultClient kullanılır; timeout çağıranın
// context'i ile verilir.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchStatus, info.json ve players.json'u sırayla okur.
// İkisinden biri başarısız olursa hata döner; kısmi sonuç yoktur.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	info, err := c.get(ctx, "/info.json")
	if err != nil {
		return nil, err
	}

	players, err := c.get(ctx, "/players.json")
	if err != nil {
		return nil, err
	}

	list := gjson.ParseBytes(players)
	if !list.IsArray() {
		return nil, fmt.Errorf("fivem: players.json is not an array")
	}

	return &Status{
		Players:    len(list.Array()),
		MaxPlayers: maxClients(info),
	}, nil
}

// maxClients, vars.sv_maxClients'ı okur. FiveM bu değeri string olarak
// gönderir ("64") ama bazı sürümler sayı döner; ikisi de kabul edilir.
func maxClients(info []byte) int {
	v := gjson.GetBytes(info, "vars.sv_maxClients")
	if !v.Exists() {
		return DefaultMaxClients
	}
	if n := int(v.Int()); n > 0 {
		return n
	}
	return DefaultMaxClients
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("fivem: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fivem: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fivem: GET %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fivem: read %s: %w", path, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("fivem: %s is not valid JSON", path)
	}
	return body, nil
}
