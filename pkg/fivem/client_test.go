package fivem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, info, players string, playersStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/info.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(info))
	})
	mux.HandleFunc("/players.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(playersStatus)
		_, _ = w.Write([]byte(players))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchStatus(t *testing.T) {
	srv := newUpstream(t,
		`{"vars":{"sv_maxClients":"64","sv_projectName":"Tokyo Edge"}}`,
		`[{"id":1,"name":"a"},{"id":2,"name":"b"},{"id":3,"name":"c"}]`,
		http.StatusOK)

	st, err := NewClient(srv.URL+"/", nil).FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Players)
	assert.Equal(t, 64, st.MaxPlayers)
}

func TestFetchStatusNumericAndMissingMaxClients(t *testing.T) {
	assert.Equal(t, 48, maxClients([]byte(`{"vars":{"sv_maxClients":48}}`)))
	assert.Equal(t, DefaultMaxClients, maxClients([]byte(`{"vars":{}}`)))
	assert.Equal(t, DefaultMaxClients, maxClients([]byte(`{"vars":{"sv_maxClients":"lots"}}`)))
}

func TestFetchStatusFailsOnBadPlayers(t *testing.T) {
	srv := newUpstream(t, `{"vars":{}}`, `oops`, http.StatusInternalServerError)
	_, err := NewClient(srv.URL, nil).FetchStatus(context.Background())
	assert.Error(t, err)

	srv = newUpstream(t, `{"vars":{}}`, `{"not":"an array"}`, http.StatusOK)
	_, err = NewClient(srv.URL, nil).FetchStatus(context.Background())
	assert.Error(t, err)
}

func TestFetchStatusHonoursContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewClient(srv.URL, nil).FetchStatus(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
