package mailer

import (
	"fmt"

	"github.com/cinetrack/watchlist/pkg/logger"
)

// DevMailer prints emails to the log instead of sending them.
type DevMailer struct {
	verifyBaseURL string
}

func NewDevMailer(verifyBaseURL string) *DevMailer {
	return &DevMailer{verifyBaseURL: verifyBaseURL}
}

func (d *DevMailer) SendVerificationEmail(to, token string) error {
	verifyURL := verificationURL(d.verifyBaseURL, token)

	logger.Info("[DEV MAIL] Verification Email",
		"to", to,
		"verify_url", verifyURL,
		"token", token,
	)

	return nil
}

func (d *DevMailer) SendTwoFactorCode(to, code string) error {
	logger.Info("[DEV MAIL] Two-Factor Code",
		"to", to,
		"code", code,
	)

	return nil
}

func verificationURL(baseURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", baseURL, token)
}
