// Package email, başvuru sahiplerine giden bildirim email'lerini gönderir.
//
// Sender interface'i ile gönderim detayları soyutlanır; şu anki
// implementasyon Resend API kullanır.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v3"
)

// Sender, email gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend implementasyonuna değil.
type Sender interface {
	// SendReviewDecision, başvurunun sonucunu (approved/rejected) başvurana bildirir.
	SendReviewDecision(ctx context.Context, msg ReviewDecision) error
}

// ReviewDecision, karar email'inin içeriği.
type ReviewDecision struct {
	To       string
	Username string
	Approved bool
	Notes    string // boş olabilir
}

// resendSender, Resend API ile email gönderen Sender implementasyonu.
type resendSender struct {
	client     *resend.Client
	fromEmail  string
	appURL     string
	serverName string
}

// NewResendSender, Resend API client'ı ile yeni bir Sender oluşturur.
//
// fromEmail: Resend'de doğrulanmış domain altında bir adres olmalı.
// appURL: portalın public URL'i, email'deki link için kullanılır.
func NewResendSender(apiKey, fromEmail, appURL, serverName string) Sender {
	return &resendSender{
		client:     resend.NewClient(apiKey),
		fromEmail:  fromEmail,
		appURL:     strings.TrimRight(appURL, "/"),
		serverName: serverName,
	}
}

func (s *resendSender) SendReviewDecision(ctx context.Context, msg ReviewDecision) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.serverName, s.fromEmail),
		To:      []string{msg.To},
		Subject: decisionSubject(s.serverName, msg.Approved),
		Html:    renderDecision(s.serverName, s.appURL, msg),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send review decision email: %w", err)
	}
	return nil
}

func decisionSubject(serverName string, approved bool) string {
	if approved {
		return fmt.Sprintf("Your staff application was approved | %s", serverName)
	}
	return fmt.Sprintf("Your staff application was reviewed | %s", serverName)
}

// renderDecision, karar email'inin HTML gövdesini üretir.
// Kullanıcıdan gelen tüm alanlar escape edilir.
func renderDecision(serverName, appURL string, msg ReviewDecision) string {
	headline := "Your application was not approved this time"
	body := "Thank you for your interest in joining the team. You are welcome to apply again in the future."
	accent := "#FF0A54"
	if msg.Approved {
		headline = "Welcome to the team!"
		body = "Your staff application was approved. A member of the team will contact you on Discord with the next steps."
		accent = "#10B981"
	}

	notes := ""
	if strings.TrimSpace(msg.Notes) != "" {
		notes = fmt.Sprintf(`<p style="color:#94a3b8;font-size:14px;line-height:1.6;margin:0 0 24px 0;border-left:3px solid %s;padding-left:12px;">%s</p>`,
			accent, html.EscapeString(msg.Notes))
	}

	link := appURL + "/applications"

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#0b0b14;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#0b0b14;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#141428;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#00E5FF;font-size:22px;margin:0 0 8px 0;">%s</h1>
              <h2 style="color:#e2e8f0;font-size:18px;margin:0 0 24px 0;">%s</h2>
              <p style="color:#e2e8f0;font-size:15px;line-height:1.6;margin:0 0 16px 0;">Hi %s,</p>
              <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 24px 0;">%s</p>
              %s
              <a href="%s" style="color:%s;font-size:14px;">View your applications</a>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		html.EscapeString(serverName),
		headline,
		html.EscapeString(msg.Username),
		body,
		notes,
		html.EscapeString(link),
		accent,
	)
}
