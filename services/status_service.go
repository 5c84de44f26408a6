// Package services: StatusBroadcaster, oyun sunucusunun canlı durumunu periyodik olarak
// hesaplar ve tüm WebSocket subscriber'larına yayınlar.
//
// Her tick'te sırasıyla:
//  1. Liveness probe: önceki probe'a pong vermeyen subscriber'lar düşürülür
//  2. Snapshot: FiveM upstream → settings fallback → offline
//  3. Aynı snapshot tüm subscriber'lara gönderilir
//  4. Snapshot server_status ayarına yazılır (best effort)
//
// Goroutine pattern: time.NewTicker + select + stopCh.
// Graceful shutdown: main.go'da Stop() çağrılır.
package services

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg/fivem"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/metrics"
	"github.com/tokyoedge/portal/repository"
	"github.com/tokyoedge/portal/ws"
)

var statusLog = logger.For("status")

// Fallback ayarlarının varsayılanları (ayar yoksa veya okunamazsa).
const (
	defaultFallbackOnline  = "true"
	defaultFallbackPlayers = 72
)

// persistTimeout, server_status ayarına yazma bütçesi.
const persistTimeout = 3 * time.Second

// StatusFetcher, upstream sunucu durumunu okur (pkg/fivem.Client).
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*fivem.Status, error)
}

// StatusBroadcaster, canlı durum yayın servisi.
type StatusBroadcaster interface {
	Start()
	Stop()

	// Snapshot, taze bir snapshot hesaplar. Asla hata dönmez; her
	// başarısızlık fallback veya offline snapshot'a dönüşür.
	Snapshot(ctx context.Context) models.ServerStats
	// Latest, son yayınlanan snapshot. Henüz tick olmadıysa bir kez hesaplar;
	// eşzamanlı çağıranlar aynı hesaplamayı bekler.
	Latest(ctx context.Context) models.ServerStats
	// SendSnapshot, tek bir subscriber'a son snapshot'ı gönderir
	// (subscribe anında ve get_server_stats isteğinde). Upstream'e gitmez.
	SendSnapshot(client *ws.Client)
}

type statusBroadcaster struct {
	fetcher      StatusFetcher // nil → doğrudan fallback
	settingRepo  repository.SettingRepository
	hub          ws.Publisher
	interval     time.Duration
	fetchTimeout time.Duration

	now  func() time.Time
	intn func(n int) int

	latestMu sync.RWMutex
	latest   *models.ServerStats
	initial  singleflight.Group

	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex // Start/Stop race koruması
	started  bool
	stopOnce sync.Once
}

// NewStatusBroadcaster, constructor.
//
// interval: broadcast periyodu (production: 30s).
// fetchTimeout: upstream fetch bütçesi (production: 5s); aşılırsa fallback'e düşülür.
func NewStatusBroadcaster(
	fetcher StatusFetcher,
	settingRepo repository.SettingRepository,
	hub ws.Publisher,
	interval time.Duration,
	fetchTimeout time.Duration,
) StatusBroadcaster {
	return &statusBroadcaster{
		fetcher:      fetcher,
		settingRepo:  settingRepo,
		hub:          hub,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		intn:         rand.IntN,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start, broadcaster goroutine'ini başlatır.
// İlk tick hemen çalışır, sonra interval aralığında tekrarlar.
func (b *statusBroadcaster) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true

	statusLog.WithFields(logrus.Fields{"interval": b.interval, "fetch_timeout": b.fetchTimeout}).Info("status broadcaster starting")

	go func() {
		defer close(b.doneCh)

		b.tick()

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.tick()
			case <-b.stopCh:
				statusLog.Info("status broadcaster stopped")
				return
			}
		}
	}()
}

// Stop, goroutine'i durdurur ve çalışan tick'in bitmesini bekler.
func (b *statusBroadcaster) Stop() {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	b.stopOnce.Do(func() { close(b.stopCh) })
	if started {
		<-b.doneCh
	}
}

func (b *statusBroadcaster) tick() {
	metrics.BroadcastTicks.Inc()

	if evicted := b.hub.Probe(); evicted > 0 {
		statusLog.WithField("evicted", evicted).Info("dropped unresponsive subscribers")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.fetchTimeout+persistTimeout)
	defer cancel()

	stats := b.Snapshot(ctx)
	b.setLatest(stats)

	delivered := b.hub.BroadcastToAll(ws.Event{Op: ws.OpServerStats, Data: stats})
	statusLog.WithFields(logrus.Fields{
		"online":      stats.Online,
		"players":     stats.Players,
		"subscribers": delivered,
	}).Debug("status broadcast")

	b.persist(ctx, stats)
}

func (b *statusBroadcaster) Snapshot(ctx context.Context) models.ServerStats {
	return b.compute(ctx, true)
}

// compute, snapshot algoritması. withUpstream false ise FiveM atlanır,
// doğrudan ayarlardan üretilir.
func (b *statusBroadcaster) compute(ctx context.Context, withUpstream bool) (stats models.ServerStats) {
	now := b.now().UTC()

	defer func() {
		if r := recover(); r != nil {
			statusLog.WithField("panic", r).Error("snapshot computation failed")
			metrics.SnapshotSource.WithLabelValues("offline").Inc()
			stats = models.OfflineStats(now)
		}
	}()

	if withUpstream {
		if up, ok := b.fromUpstream(ctx, now); ok {
			metrics.SnapshotSource.WithLabelValues("upstream").Inc()
			return up
		}
	}

	metrics.SnapshotSource.WithLabelValues("fallback").Inc()
	return b.fromSettings(ctx, now)
}

// fromUpstream, FiveM endpoint'lerini fetchTimeout bütçesiyle okur.
// Timeout dahil her hata fallback'e düşer, tick'i başarısız kılmaz.
func (b *statusBroadcaster) fromUpstream(ctx context.Context, now time.Time) (models.ServerStats, bool) {
	if b.fetcher == nil {
		return models.ServerStats{}, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()

	st, err := b.fetcher.FetchStatus(fetchCtx)
	if err != nil {
		statusLog.WithError(err).Debug("upstream unavailable, using settings fallback")
		return models.ServerStats{}, false
	}

	maxPlayers := st.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = models.DefaultMaxPlayers
	}

	return models.ServerStats{
		Online:      true,
		Players:     st.Players,
		MaxPlayers:  maxPlayers,
		LastRestart: now,
		Ping:        b.syntheticPing(),
	}, true
}

// fromSettings, ayarlardan simüle edilmiş snapshot üretir.
// Okunamayan veya bozuk ayar kendi varsayılanına düşer.
func (b *statusBroadcaster) fromSettings(ctx context.Context, now time.Time) models.ServerStats {
	values, err := b.settingRepo.GetMany(ctx,
		models.SettingServerOnline,
		models.SettingServerPlayers,
		models.SettingServerMaxPlayers,
	)
	if err != nil {
		statusLog.WithError(err).Warn("failed to read fallback settings, using defaults")
		values = nil
	}

	online := settingOr(values, models.SettingServerOnline, defaultFallbackOnline) == "true"
	base := atoiOr(values[models.SettingServerPlayers], defaultFallbackPlayers)
	maxPlayers := atoiOr(values[models.SettingServerMaxPlayers], models.DefaultMaxPlayers)

	stats := models.ServerStats{
		Online:      online,
		MaxPlayers:  maxPlayers,
		LastRestart: now,
	}
	if online {
		// base + [-5, +5) aralığında sapma, [0, max] içine sıkıştırılır.
		stats.Players = clamp(base+b.intn(10)-5, 0, maxPlayers)
		stats.Ping = b.syntheticPing()
	}
	return stats
}

// syntheticPing, [30, 60) aralığında. FiveM API ping vermez.
func (b *statusBroadcaster) syntheticPing() int {
	return 30 + b.intn(30)
}

func (b *statusBroadcaster) Latest(ctx context.Context) models.ServerStats {
	if stats, ok := b.cached(); ok {
		return stats
	}

	v, _, _ := b.initial.Do("latest", func() (any, error) {
		if stats, ok := b.cached(); ok {
			return stats, nil
		}
		stats := b.Snapshot(ctx)
		b.setLatestIfEmpty(stats)
		return stats, nil
	})
	return v.(models.ServerStats)
}

func (b *statusBroadcaster) SendSnapshot(client *ws.Client) {
	stats, ok := b.cached()
	if !ok {
		// İlk tick henüz bitmedi (upstream yavaş olabilir): beklemeden
		// ayarlardan üretilen snapshot gönderilir.
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		stats = b.compute(ctx, false)
	}

	b.hub.SendTo(client, ws.Event{Op: ws.OpServerStats, Data: stats})
}

func (b *statusBroadcaster) cached() (models.ServerStats, bool) {
	b.latestMu.RLock()
	defer b.latestMu.RUnlock()
	if b.latest == nil {
		return models.ServerStats{}, false
	}
	return *b.latest, true
}

func (b *statusBroadcaster) setLatest(stats models.ServerStats) {
	b.latestMu.Lock()
	b.latest = &stats
	b.latestMu.Unlock()
}

// setLatestIfEmpty, arada bir tick sonucu yazıldıysa onu ezmez.
func (b *statusBroadcaster) setLatestIfEmpty(stats models.ServerStats) {
	b.latestMu.Lock()
	if b.latest == nil {
		b.latest = &stats
	}
	b.latestMu.Unlock()
}

// persist, snapshot'ı server_status ayarına JSON olarak yazar.
func (b *statusBroadcaster) persist(ctx context.Context, stats models.ServerStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}

	err = b.settingRepo.Upsert(ctx, &models.Setting{
		Key:      models.SettingServerStatus,
		Value:    string(raw),
		Category: models.SettingCategoryServer,
	})
	if err != nil {
		statusLog.WithError(err).Warn("failed to persist server status")
	}
}

func settingOr(values map[string]string, key, fallback string) string {
	if v, ok := values[key]; ok {
		return v
	}
	return fallback
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
