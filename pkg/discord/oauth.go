// Package discord, Discord OAuth2 girişi ve staff kanalı webhook bildirimlerini sağlar.
package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"

	"github.com/tokyoedge/portal/models"
)

// scopes, login için istenen izinler. Email opsiyoneldir; kullanıcı
// email'ini doğrulamamışsa Discord boş döner.
var scopes = []string{"identify", "email"}

// ProfileFetcher, bir OAuth access token'ı ile kullanıcının kendi profilini okur.
type ProfileFetcher func(ctx context.Context, token *oauth2.Token) (*models.DiscordProfile, error)

// OAuth, Discord authorization code flow'u.
type OAuth struct {
	config       *oauth2.Config
	fetchProfile ProfileFetcher
}

// NewOAuth, client bilgileriyle yeni bir OAuth oluşturur.
func NewOAuth(clientID, clientSecret, redirectURI string) *OAuth {
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordgo.EndpointOAuth2 + "authorize",
				TokenURL:  discordgo.EndpointOAuth2 + "token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		fetchProfile: fetchProfile,
	}
}

// WithEndpoint, token endpoint'ini ve profil okuyucuyu değiştirir (testler için).
func (o *OAuth) WithEndpoint(endpoint oauth2.Endpoint, fetcher ProfileFetcher) *OAuth {
	o.config.Endpoint = endpoint
	if fetcher != nil {
		o.fetchProfile = fetcher
	}
	return o
}

// AuthURL, kullanıcının yönlendirileceği Discord onay sayfası URL'i.
func (o *OAuth) AuthURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange, callback'teki code'u token'a çevirir ve Discord profilini döner.
func (o *OAuth) Exchange(ctx context.Context, code string) (*models.DiscordProfile, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("discord: code exchange failed: %w", err)
	}
	return o.fetchProfile(ctx, token)
}

// fetchProfile, discordgo ile /users/@me çağırır. Session Bearer token ile
// açılır; gateway bağlantısı kurulmaz, sadece REST kullanılır.
func fetchProfile(ctx context.Context, token *oauth2.Token) (*models.DiscordProfile, error) {
	session, err := discordgo.New("Bearer " + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Client = &http.Client{Timeout: 10 * time.Second}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("discord: fetch profile: %w", err)
	}

	return &models.DiscordProfile{
		ID:       u.ID,
		Username: displayName(u),
		Avatar:   u.Avatar,
		Email:    u.Email,
	}, nil
}

// displayName, "name#1234" formatı; yeni kullanıcı adı sisteminde
// discriminator "0" gelir ve sadece isim kullanılır.
func displayName(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
