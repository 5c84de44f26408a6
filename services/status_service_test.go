package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg/fivem"
	"github.com/tokyoedge/portal/repository"
	"github.com/tokyoedge/portal/ws"
)

type fakeFetcher struct {
	status *fivem.Status
	err    error
	delay  time.Duration
	panics bool
	calls  atomic.Int32
}

func (f *fakeFetcher) FetchStatus(ctx context.Context) (*fivem.Status, error) {
	f.calls.Add(1)
	if f.panics {
		panic("upstream decoder exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

// fakeSettings, SettingRepository'nin status broadcaster'ın kullandığı kısmı.
type fakeSettings struct {
	repository.SettingRepository

	mu      sync.Mutex
	values  map[string]string
	getErr  error
	upserts []models.Setting
}

func (f *fakeSettings) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *models.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *s)
	return nil
}

func (f *fakeSettings) lastUpsert() (models.Setting, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.upserts) == 0 {
		return models.Setting{}, false
	}
	return f.upserts[len(f.upserts)-1], true
}

// fakePublisher, hub çağrılarını sırasıyla kaydeder.
type fakePublisher struct {
	mu     sync.Mutex
	calls  []string
	events []ws.Event
	sent   []ws.Event
	count  int
}

func (p *fakePublisher) BroadcastToAll(event ws.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "broadcast")
	p.events = append(p.events, event)
	return p.count
}

func (p *fakePublisher) SendTo(_ *ws.Client, event ws.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, event)
	return true
}

func (p *fakePublisher) Probe() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "probe")
	return 0
}

func (p *fakePublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *fakePublisher) broadcasts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestBroadcaster(fetcher StatusFetcher, settings repository.SettingRepository, hub ws.Publisher, intn func(int) int) *statusBroadcaster {
	b := NewStatusBroadcaster(fetcher, settings, hub, time.Hour, 50*time.Millisecond).(*statusBroadcaster)
	b.now = newTestClock().Now
	if intn != nil {
		b.intn = intn
	}
	return b
}

func maxOffset(n int) int { return n - 1 }
func minOffset(int) int   { return 0 }

func TestSnapshotFromUpstream(t *testing.T) {
	b := newTestBroadcaster(&fakeFetcher{status: &fivem.Status{Players: 17, MaxPlayers: 64}}, &fakeSettings{}, &fakePublisher{}, minOffset)

	stats := b.Snapshot(context.Background())

	assert.True(t, stats.Online)
	assert.Equal(t, 17, stats.Players)
	assert.Equal(t, 64, stats.MaxPlayers)
	assert.Equal(t, 30, stats.Ping)
	assert.Equal(t, b.now().UTC(), stats.LastRestart)
}

func TestSnapshotUpstreamWithoutCapacityUsesDefault(t *testing.T) {
	b := newTestBroadcaster(&fakeFetcher{status: &fivem.Status{Players: 3}}, &fakeSettings{}, &fakePublisher{}, nil)

	stats := b.Snapshot(context.Background())
	assert.Equal(t, models.DefaultMaxPlayers, stats.MaxPlayers)
	assert.GreaterOrEqual(t, stats.Ping, 30)
	assert.Less(t, stats.Ping, 60)
}

func TestSnapshotFallsBackToSettings(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{
		models.SettingServerOnline:     "true",
		models.SettingServerPlayers:    "72",
		models.SettingServerMaxPlayers: "128",
	}}

	tests := []struct {
		name    string
		fetcher StatusFetcher
		intn    func(int) int
		players int
		ping    int
	}{
		{"no upstream, low jitter", nil, minOffset, 67, 30},
		{"no upstream, high jitter", nil, maxOffset, 76, 59},
		{"upstream error", &fakeFetcher{err: errors.New("connection refused")}, minOffset, 67, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroadcaster(tt.fetcher, settings, &fakePublisher{}, tt.intn)
			stats := b.Snapshot(context.Background())

			assert.True(t, stats.Online)
			assert.Equal(t, tt.players, stats.Players)
			assert.Equal(t, 128, stats.MaxPlayers)
			assert.Equal(t, tt.ping, stats.Ping)
		})
	}
}

func TestSnapshotFallbackStaysWithinCapacity(t *testing.T) {
	full := &fakeSettings{values: map[string]string{
		models.SettingServerPlayers:    "127",
		models.SettingServerMaxPlayers: "128",
	}}
	b := newTestBroadcaster(nil, full, &fakePublisher{}, maxOffset)
	assert.Equal(t, 128, b.Snapshot(context.Background()).Players)

	empty := &fakeSettings{values: map[string]string{
		models.SettingServerPlayers: "2",
	}}
	b = newTestBroadcaster(nil, empty, &fakePublisher{}, minOffset)
	assert.Equal(t, 0, b.Snapshot(context.Background()).Players)
}

func TestSnapshotFallbackOffline(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{
		models.SettingServerOnline:  "false",
		models.SettingServerPlayers: "72",
	}}
	b := newTestBroadcaster(nil, settings, &fakePublisher{}, maxOffset)

	stats := b.Snapshot(context.Background())
	assert.False(t, stats.Online)
	assert.Zero(t, stats.Players)
	assert.Zero(t, stats.Ping)
	assert.Equal(t, models.DefaultMaxPlayers, stats.MaxPlayers)
}

func TestSnapshotUpstreamTimeoutFallsBack(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{models.SettingServerOnline: "false"}}
	b := newTestBroadcaster(&fakeFetcher{delay: 5 * time.Second, status: &fivem.Status{Players: 99}}, settings, &fakePublisher{}, nil)

	start := time.Now()
	stats := b.Snapshot(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, stats.Online)
	assert.Zero(t, stats.Players)
}

func TestSnapshotUnreadableSettingsUseDefaults(t *testing.T) {
	b := newTestBroadcaster(nil, &fakeSettings{getErr: errors.New("database is locked")}, &fakePublisher{}, minOffset)

	stats := b.Snapshot(context.Background())
	assert.True(t, stats.Online)
	assert.Equal(t, 67, stats.Players)
	assert.Equal(t, models.DefaultMaxPlayers, stats.MaxPlayers)
}

func TestSnapshotMalformedSettingsUseDefaults(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{
		models.SettingServerPlayers:    "lots",
		models.SettingServerMaxPlayers: "-4",
	}}
	b := newTestBroadcaster(nil, settings, &fakePublisher{}, minOffset)

	stats := b.Snapshot(context.Background())
	assert.Equal(t, 67, stats.Players)
	assert.Equal(t, models.DefaultMaxPlayers, stats.MaxPlayers)
}

func TestSnapshotPanicBecomesOffline(t *testing.T) {
	b := newTestBroadcaster(&fakeFetcher{panics: true}, &fakeSettings{}, &fakePublisher{}, nil)

	stats := b.Snapshot(context.Background())
	assert.Equal(t, models.OfflineStats(b.now().UTC()), stats)
}

func TestTickProbesBroadcastsAndPersists(t *testing.T) {
	hub := &fakePublisher{count: 3}
	settings := &fakeSettings{}
	b := newTestBroadcaster(&fakeFetcher{status: &fivem.Status{Players: 40, MaxPlayers: 128}}, settings, hub, minOffset)

	b.tick()

	assert.Equal(t, []string{"probe", "broadcast"}, hub.calls)
	require.Len(t, hub.events, 1)
	assert.Equal(t, ws.OpServerStats, hub.events[0].Op)
	sent := hub.events[0].Data.(models.ServerStats)
	assert.Equal(t, 40, sent.Players)

	saved, ok := settings.lastUpsert()
	require.True(t, ok)
	assert.Equal(t, models.SettingServerStatus, saved.Key)
	assert.Equal(t, models.SettingCategoryServer, saved.Category)

	var persisted models.ServerStats
	require.NoError(t, json.Unmarshal([]byte(saved.Value), &persisted))
	assert.Equal(t, 40, persisted.Players)

	assert.Equal(t, sent, b.Latest(context.Background()))
}

func TestLatestComputesOnceBeforeFirstTick(t *testing.T) {
	fetcher := &fakeFetcher{status: &fivem.Status{Players: 5, MaxPlayers: 10}}
	b := newTestBroadcaster(fetcher, &fakeSettings{}, &fakePublisher{}, nil)

	first := b.Latest(context.Background())
	fetcher.status = &fivem.Status{Players: 9, MaxPlayers: 10}
	second := b.Latest(context.Background())

	assert.Equal(t, 5, first.Players)
	assert.Equal(t, first, second)
}

func TestLatestSharesOneUpstreamFetch(t *testing.T) {
	fetcher := &fakeFetcher{delay: 100 * time.Millisecond, status: &fivem.Status{Players: 5, MaxPlayers: 10}}
	b := NewStatusBroadcaster(fetcher, &fakeSettings{}, &fakePublisher{}, time.Hour, time.Second)

	var wg sync.WaitGroup
	results := make([]models.ServerStats, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = b.Latest(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, stats := range results {
		assert.Equal(t, 5, stats.Players)
	}
}

func TestSendSnapshotUsesLatestWithoutFetching(t *testing.T) {
	hub := &fakePublisher{}
	fetcher := &fakeFetcher{status: &fivem.Status{Players: 40, MaxPlayers: 128}}
	b := newTestBroadcaster(fetcher, &fakeSettings{}, hub, minOffset)

	b.tick()
	require.Equal(t, int32(1), fetcher.calls.Load())

	fetcher.status = &fivem.Status{Players: 1, MaxPlayers: 128}
	for range 10 {
		b.SendSnapshot(nil)
	}

	assert.Equal(t, int32(1), fetcher.calls.Load())
	require.Len(t, hub.sent, 10)
	assert.Equal(t, 40, hub.sent[9].Data.(models.ServerStats).Players)
}

func TestSendSnapshotTargetsOneSubscriber(t *testing.T) {
	hub := &fakePublisher{}
	b := newTestBroadcaster(nil, &fakeSettings{}, hub, nil)

	b.SendSnapshot(nil)

	assert.Empty(t, hub.events)
	require.Len(t, hub.sent, 1)
	assert.Equal(t, ws.OpServerStats, hub.sent[0].Op)
}

func TestBroadcasterStartStop(t *testing.T) {
	hub := &fakePublisher{}
	b := NewStatusBroadcaster(nil, &fakeSettings{}, hub, 10*time.Millisecond, 10*time.Millisecond)

	b.Start()
	b.Start()
	require.Eventually(t, func() bool { return hub.broadcasts() >= 3 }, 2*time.Second, 5*time.Millisecond)

	b.Stop()
	b.Stop()

	after := hub.broadcasts()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, hub.broadcasts())
}

func TestStopWithoutStart(t *testing.T) {
	b := NewStatusBroadcaster(nil, &fakeSettings{}, &fakePublisher{}, time.Second, time.Second)
	b.Stop()
}

func TestSubscriberReceivesSeededFallbackOnConnect(t *testing.T) {
	db := openTestDB(t)
	settings := repository.NewSQLiteSettingRepo(db.Conn)

	hub := ws.NewHub()
	b := NewStatusBroadcaster(nil, settings, hub, time.Hour, 50*time.Millisecond)
	hub.OnSubscribe(b.SendSnapshot)
	hub.OnPull(b.SendSnapshot)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", ws.NewHandler(hub, nil).HandleConnection)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() models.ServerStats {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev struct {
			Op   string             `json:"op"`
			Data models.ServerStats `json:"d"`
		}
		require.NoError(t, json.Unmarshal(raw, &ev))
		require.Equal(t, ws.OpServerStats, ev.Op)
		return ev.Data
	}

	// Seed: server_online=true, server_players=72, server_max_players=128.
	stats := read()
	assert.True(t, stats.Online)
	assert.Equal(t, 128, stats.MaxPlayers)
	assert.GreaterOrEqual(t, stats.Players, 67)
	assert.LessOrEqual(t, stats.Players, 76)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"get_server_stats"}`)))
	stats = read()
	assert.True(t, stats.Online)
}

func TestSubscriberIsServedWhileUpstreamHangs(t *testing.T) {
	db := openTestDB(t)
	settings := repository.NewSQLiteSettingRepo(db.Conn)

	// Upstream cevap vermiyor: her fetch fetchTimeout dolana kadar bekler.
	fetcher := &fakeFetcher{delay: time.Minute}
	hub := ws.NewHub()
	b := NewStatusBroadcaster(fetcher, settings, hub, time.Hour, 2*time.Second)
	hub.OnSubscribe(b.SendSnapshot)
	hub.OnPull(b.SendSnapshot)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", ws.NewHandler(hub, nil).HandleConnection)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	b.Start()
	t.Cleanup(b.Stop)
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() models.ServerStats {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev struct {
			Op   string             `json:"op"`
			Data models.ServerStats `json:"d"`
		}
		require.NoError(t, json.Unmarshal(raw, &ev))
		require.Equal(t, ws.OpServerStats, ev.Op)
		return ev.Data
	}

	stats := read()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 128, stats.MaxPlayers)

	for range 200 {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"get_server_stats"}`)))
	}
	read()

	// Sadece tick upstream'e gider; subscribe ve pull'lar gitmez.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}
