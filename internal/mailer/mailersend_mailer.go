package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client        *mailersend.Mailersend
	from          mailersend.From
	verifyBaseURL string
	enabled       bool
}

func NewMailerSend(apiKey, fromName, fromEmail, verifyBaseURL string) *MailerSendClient {
	m := &MailerSendClient{
		enabled:       apiKey != "" && fromEmail != "",
		verifyBaseURL: verifyBaseURL,
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendVerificationEmail(to, token string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	verifyURL := verificationURL(m.verifyBaseURL, token)

	subject := "Verify your Watchlist account"
	html := fmt.Sprintf(`
		<h2>Welcome to Watchlist!</h2>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="%s">Verify Email</a></p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, verifyURL)

	text := fmt.Sprintf("Please verify your email by clicking this link: %s", verifyURL)

	return m.sendEmail(to, subject, text, html)
}

func (m *MailerSendClient) SendTwoFactorCode(to, code string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your Watchlist sign-in code"
	html := fmt.Sprintf(`
		<h2>Your Sign-In Code</h2>
		<p>Your verification code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>This code will expire in 10 minutes.</p>
	`, code)

	text := fmt.Sprintf("Your sign-in code is: %s\n\nThis code will expire in 10 minutes.", code)

	return m.sendEmail(to, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
