package mailer

// Service sends the two notification emails of the auth workflow. Sends are
// fire-and-forget: a failure never rolls back the workflow that triggered it.
type Service interface {
	SendVerificationEmail(to, token string) error
	SendTwoFactorCode(to, code string) error
}
