package discord

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tokyoedge/portal/models"
)

// executeFunc, webhook mesajını gönderir (testlerde değiştirilir).
type executeFunc func(webhookID, token string, params *discordgo.WebhookParams) error

// StaffWebhook, yeni başvuruları staff Discord kanalına bildirir.
type StaffWebhook struct {
	exec   executeFunc
	id     string
	token  string
	appURL string
}

// NewStaffWebhook, "https://discord.com/api/webhooks/{id}/{token}" formatında URL alır.
func NewStaffWebhook(webhookURL, appURL string) (*StaffWebhook, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	return &StaffWebhook{
		exec: func(webhookID, token string, params *discordgo.WebhookParams) error {
			_, err := session.WebhookExecute(webhookID, token, false, params)
			return err
		},
		id:     id,
		token:  token,
		appURL: strings.TrimRight(appURL, "/"),
	}, nil
}

// ParseWebhookURL, webhook URL'inden id ve token'ı ayıklar.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("discord: invalid webhook url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("discord: webhook url must look like .../webhooks/{id}/{token}")
}

// NotifyNewApplication, yeni başvuru için staff kanalına embed gönderir.
func (w *StaffWebhook) NotifyNewApplication(app *models.Application, applicant *models.UserSummary) error {
	err := w.exec(w.id, w.token, &discordgo.WebhookParams{
		Username: "Staff Applications",
		Embeds:   []*discordgo.MessageEmbed{applicationEmbed(app, applicant, w.appURL)},
	})
	if err != nil {
		return fmt.Errorf("discord: webhook execute: %w", err)
	}
	return nil
}

// embedColor: #00E5FF
const embedColor = 0x00E5FF

func applicationEmbed(app *models.Application, applicant *models.UserSummary, appURL string) *discordgo.MessageEmbed {
	name := fmt.Sprintf("user #%d", app.UserID)
	if applicant != nil {
		name = applicant.Username
		if applicant.DiscordUsername != nil && *applicant.DiscordUsername != "" {
			name = fmt.Sprintf("%s (%s)", applicant.Username, *applicant.DiscordUsername)
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("New staff application #%d", app.ID),
		URL:         fmt.Sprintf("%s/admin/applications/%d", appURL, app.ID),
		Description: truncate(app.WhyJoin, 300),
		Color:       embedColor,
		Timestamp:   app.CreatedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Applicant", Value: name, Inline: true},
			{Name: "Age", Value: fmt.Sprintf("%d", app.Age), Inline: true},
			{Name: "Availability", Value: fmt.Sprintf("%d h/week", app.Availability), Inline: true},
			{Name: "Timezone", Value: app.Timezone, Inline: true},
			{Name: "Languages", Value: app.Languages, Inline: true},
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
