package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyoedge/portal/config"
	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/ws"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testApp struct {
	srv *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			PublicURL:      "http://localhost:3000",
		},
		JWT: config.JWTConfig{Secret: "route-test-secret", AccessTokenExpiry: 15, RefreshTokenExpiry: 7},
		// Port 1'de kimse dinlemiyor: fetch hızlıca düşer, fallback devreye girer.
		FiveM:  config.FiveMConfig{Host: "127.0.0.1", Port: 1},
		Status: config.StatusConfig{Interval: time.Hour, FetchTimeout: 200 * time.Millisecond},
		Admin:  config.AdminConfig{Username: "boss", Password: "boss-password"},
	}

	repos := initRepositories(db.Conn)
	hub := ws.NewHub()
	svcs, limiters, closers := initServices(db.Conn, repos, hub, cfg)
	require.NoError(t, svcs.Auth.EnsureAdmin(t.Context(), cfg.Admin.Username, cfg.Admin.Password))

	registerHubCallbacks(hub, svcs.Status)
	go hub.Run()

	h := initHandlers(svcs, limiters, hub, db.Conn, cfg)
	frontend := fstest.MapFS{
		"index.html":    {Data: []byte("<html>portal</html>")},
		"assets/app.js": {Data: []byte("console.log('portal')")},
	}

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, frontend)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
		limiters.Login.Stop()
		closers.OAuthStates.Close()
	})

	return &testApp{srv: srv}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()

	resp, env := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func (a *testApp) register(t *testing.T, username string) string {
	t.Helper()

	resp, env := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "kenji-password",
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func submission() map[string]any {
	return map[string]any{
		"age":                   22,
		"timezone":              "UTC-3",
		"languages":             "Português, English",
		"availability":          25,
		"rp_experience":         "Four years of serious roleplay on FiveM servers",
		"moderation_experience": "Moderated a 3k member Discord",
		"server_familiarity":    "Playing here since launch",
		"why_join":              "I want to help new players feel welcome in the city",
		"scenario":              "Separate the parties, gather clips and apply the rules evenly",
		"contribution":          "Weekly events and a cleaner onboarding for newcomers",
	}
}

func TestRoutesAccessControl(t *testing.T) {
	app := newTestApp(t)
	userToken := app.register(t, "kenji")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"public staff", http.MethodGet, "/api/staff", "", http.StatusOK},
		{"public settings", http.MethodGet, "/api/settings/public", "", http.StatusOK},
		{"me without token", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{"me with garbage token", http.MethodGet, "/api/auth/me", "not-a-jwt", http.StatusUnauthorized},
		{"me", http.MethodGet, "/api/auth/me", userToken, http.StatusOK},
		{"submit without token", http.MethodPost, "/api/applications", "", http.StatusUnauthorized},
		{"dashboard without token", http.MethodGet, "/api/admin/dashboard", "", http.StatusUnauthorized},
		{"dashboard as user", http.MethodGet, "/api/admin/dashboard", userToken, http.StatusForbidden},
		{"review as user", http.MethodPut, "/api/admin/applications/1", userToken, http.StatusForbidden},
		{"settings as user", http.MethodGet, "/api/admin/settings", userToken, http.StatusForbidden},
		{"metrics without token", http.MethodGet, "/metrics", "", http.StatusUnauthorized},
		{"metrics as user", http.MethodGet, "/metrics", userToken, http.StatusForbidden},
		{"unknown api path", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := app.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, resp.StatusCode, env.Error)
			assert.Equal(t, tt.want < 400, env.Success)
		})
	}
}

func TestRoutesApplicationFlow(t *testing.T) {
	app := newTestApp(t)
	userToken := app.register(t, "kenji")
	adminToken := app.login(t, "boss", "boss-password")

	resp, env := app.do(t, http.MethodPost, "/api/applications", userToken, submission())
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	resp, env = app.do(t, http.MethodPost, "/api/applications", userToken, submission())
	assert.Equal(t, http.StatusConflict, resp.StatusCode, env.Error)

	resp, env = app.do(t, http.MethodGet, "/api/admin/applications?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var page struct {
		Items []struct {
			ID   int64 `json:"id"`
			User *struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 1, page.Total)
	require.NotNil(t, page.Items[0].User)
	assert.Equal(t, "kenji", page.Items[0].User.Username)

	path := fmt.Sprintf("/api/admin/applications/%d", created.ID)
	resp, env = app.do(t, http.MethodPut, path, adminToken, map[string]any{
		"status":      "approved",
		"admin_notes": "welcome aboard",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	resp, env = app.do(t, http.MethodGet, "/api/applications/my", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var mine []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "approved", mine[0].Status)

	resp, env = app.do(t, http.MethodPost, path+"/reopen", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	resp, env = app.do(t, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	var summary struct {
		Applications map[string]int `json:"applications"`
		UserCount    int            `json:"user_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Applications["in_review"])
	assert.Equal(t, 2, summary.UserCount)
}

func TestRoutesNewsCategoriesAreLiteral(t *testing.T) {
	app := newTestApp(t)

	resp, env := app.do(t, http.MethodGet, "/api/news/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var categories []struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	assert.Len(t, categories, 4)

	resp, _ = app.do(t, http.MethodGet, "/api/news/no-such-article", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutesServerStatusFallsBack(t *testing.T) {
	app := newTestApp(t)

	resp, env := app.do(t, http.MethodGet, "/api/server/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)

	var stats struct {
		Online     bool `json:"online"`
		MaxPlayers int  `json:"max_players"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.True(t, stats.Online, "seeded server_online setting keeps the fallback online")
	assert.Equal(t, 128, stats.MaxPlayers)
}

func TestRoutesMetricsForAdmin(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.login(t, "boss", "boss-password")

	req, err := http.NewRequest(http.MethodGet, app.srv.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSPAFallback(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/noticias/evento-de-verao", "/assets/app.js"} {
		resp, err := http.Get(app.srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		if path == "/assets/app.js" {
			assert.Contains(t, string(body), "console.log")
		} else {
			assert.Contains(t, string(body), "portal")
		}
	}
}
