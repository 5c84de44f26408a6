package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tokyoedge/portal/models"
)

func TestParseWebhookURL(t *testing.T) {
	id, token, err := ParseWebhookURL("https://discord.com/api/webhooks/1234/abcDEF")
	require.NoError(t, err)
	assert.Equal(t, "1234", id)
	assert.Equal(t, "abcDEF", token)

	_, _, err = ParseWebhookURL("https://discord.com/api/channels/1")
	assert.Error(t, err)
}

func TestNotifyNewApplicationBuildsEmbed(t *testing.T) {
	var got *discordgo.WebhookParams
	w := &StaffWebhook{
		id: "1", token: "t", appURL: "https://portal.test",
		exec: func(id, token string, params *discordgo.WebhookParams) error {
			assert.Equal(t, "1", id)
			assert.Equal(t, "t", token)
			got = params
			return nil
		},
	}

	discordName := "kenji#0420"
	app := &models.Application{
		ID: 9, UserID: 3, Age: 20, Availability: 30, Timezone: "UTC-3", Languages: "pt, en",
		WhyJoin: strings.Repeat("a", 400), CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, w.NotifyNewApplication(app, &models.UserSummary{ID: 3, Username: "kenji", DiscordUsername: &discordName}))

	require.NotNil(t, got)
	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "New staff application #9", embed.Title)
	assert.Equal(t, "https://portal.test/admin/applications/9", embed.URL)
	assert.Len(t, []rune(embed.Description), 300)
	assert.Equal(t, "kenji (kenji#0420)", embed.Fields[0].Value)

	w.exec = func(string, string, *discordgo.WebhookParams) error { return errors.New("429") }
	assert.Error(t, w.NotifyNewApplication(app, nil))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "neo", displayName(&discordgo.User{Username: "neo", Discriminator: "0"}))
	assert.Equal(t, "neo#0001", displayName(&discordgo.User{Username: "neo", Discriminator: "0001"}))
}

func TestOAuthExchange(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	o := NewOAuth("cid", "secret", "https://portal.test/api/auth/discord/callback").
		WithEndpoint(oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
			func(ctx context.Context, token *oauth2.Token) (*models.DiscordProfile, error) {
				assert.Equal(t, "tok", token.AccessToken)
				return &models.DiscordProfile{ID: "42", Username: "neo"}, nil
			})

	profile, err := o.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "42", profile.ID)

	_, err = o.Exchange(context.Background(), "bad")
	assert.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	o := NewOAuth("cid", "secret", "https://portal.test/cb")
	u, err := url.Parse(o.AuthURL("state123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "https://portal.test/cb", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state123", q.Get("state"))
	assert.Equal(t, "identify email", q.Get("scope"))
	assert.True(t, strings.HasSuffix(u.Path, "/oauth2/authorize"))
}
