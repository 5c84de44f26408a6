package ws

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyoedge/portal/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type testServer struct {
	hub *Hub
	srv *httptest.Server
	url string
}

func newTestServer(t *testing.T, setup func(h *Hub)) *testServer {
	t.Helper()

	hub := NewHub()
	if setup != nil {
		setup(hub)
	}
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", NewHandler(hub, nil).HandleConnection)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	return &testServer{
		hub: hub,
		srv: srv,
		url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *testServer) waitForSubscribers(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.hub.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestSubscriberReceivesSnapshotOnConnect(t *testing.T) {
	s := newTestServer(t, func(h *Hub) {
		h.OnSubscribe(func(c *Client) {
			h.SendTo(c, Event{Op: OpServerStats, Data: map[string]int{"players": 42}})
		})
	})

	conn := s.dial(t)
	ev := readEvent(t, conn)

	assert.Equal(t, OpServerStats, ev.Op)
	assert.Positive(t, ev.Seq)
	assert.Equal(t, float64(42), ev.Data.(map[string]any)["players"])
}

func TestPullIsAnsweredOnlyToRequester(t *testing.T) {
	s := newTestServer(t, func(h *Hub) {
		h.OnPull(func(c *Client) {
			h.SendTo(c, Event{Op: OpServerStats, Data: "pulled"})
		})
	})

	requester := s.dial(t)
	other := s.dial(t)
	s.waitForSubscribers(t, 2)

	require.NoError(t, requester.WriteJSON(map[string]string{"op": OpGetServerStats}))
	ev := readEvent(t, requester)
	assert.Equal(t, OpServerStats, ev.Op)
	assert.Equal(t, "pulled", ev.Data)

	// "type" anahtarı inbound alias olarak okunur.
	require.NoError(t, requester.WriteJSON(map[string]string{"type": OpGetServerStats}))
	ev = readEvent(t, requester)
	assert.Equal(t, "pulled", ev.Data)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other subscriber must not receive the pulled snapshot")
}

func TestPullBurstIsCoalesced(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	s := newTestServer(t, func(h *Hub) {
		h.OnPull(func(c *Client) {
			calls.Add(1)
			<-release
		})
	})

	conn := s.dial(t)
	s.waitForSubscribers(t, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"op": OpGetServerStats}))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	for range 50 {
		require.NoError(t, conn.WriteJSON(map[string]string{"op": OpGetServerStats}))
	}
	// ReadPump mesajları sırayla işler: ack geldiyse 50 pull da görülmüştür.
	require.NoError(t, conn.WriteJSON(map[string]string{"op": OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
	assert.Equal(t, int32(1), calls.Load(), "no new pull starts while one is in flight")

	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load(), "queued pulls collapse into a single follow-up")
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	s := newTestServer(t, nil)

	conns := []*websocket.Conn{s.dial(t), s.dial(t), s.dial(t)}
	s.waitForSubscribers(t, 3)

	delivered := s.hub.BroadcastToAll(Event{Op: OpServerStats, Data: "tick"})
	assert.Equal(t, 3, delivered)

	var seqs []int64
	for _, c := range conns {
		ev := readEvent(t, c)
		assert.Equal(t, "tick", ev.Data)
		seqs = append(seqs, ev.Seq)
	}
	// Aynı event herkese aynı seq ile gider.
	assert.Equal(t, seqs[0], seqs[1])
	assert.Equal(t, seqs[0], seqs[2])
}

func TestHeartbeatIsAcknowledged(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	s.waitForSubscribers(t, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"op": OpHeartbeat}))
	ev := readEvent(t, conn)
	assert.Equal(t, OpHeartbeatAck, ev.Op)
}

func TestMalformedMessagesAreIgnored(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	s.waitForSubscribers(t, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"op": "launch_missiles"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"op": OpHeartbeat}))

	ev := readEvent(t, conn)
	assert.Equal(t, OpHeartbeatAck, ev.Op)
	assert.Equal(t, 1, s.hub.Count())
}

func TestProbeEvictsUnresponsiveSubscriber(t *testing.T) {
	s := newTestServer(t, nil)

	responsive := s.dial(t)
	silent := s.dial(t)
	s.waitForSubscribers(t, 2)

	// responsive client okumaya devam eder, böylece gorilla'nın varsayılan
	// ping handler'ı pong döner. silent hiç okumaz.
	go func() {
		for {
			if _, _, err := responsive.ReadMessage(); err != nil {
				return
			}
		}
	}()

	assert.Equal(t, 0, s.hub.Probe(), "first probe only marks and pings")

	require.Eventually(t, func() bool {
		s.hub.mu.RLock()
		defer s.hub.mu.RUnlock()
		alive := 0
		for c := range s.hub.clients {
			if c.alive.Load() {
				alive++
			}
		}
		return alive == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, s.hub.Probe())
	assert.Equal(t, 1, s.hub.Count())

	// Düşürülen bağlantı server tarafından kapatılmıştır.
	require.NoError(t, silent.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := silent.ReadMessage(); err != nil {
			break
		}
	}

	// Sonraki broadcast sadece kalan subscriber'a gider.
	assert.Equal(t, 1, s.hub.BroadcastToAll(Event{Op: OpServerStats}))
}

func TestDisconnectUnregisters(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	s.waitForSubscribers(t, 1)

	require.NoError(t, conn.Close())
	s.waitForSubscribers(t, 0)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "http://portal.test/ws", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://portal.test")
	assert.True(t, check(req), "same host")

	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
