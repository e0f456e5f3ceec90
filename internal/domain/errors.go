package domain

import "fmt"

// ErrorKind classifies a business-rule failure. The HTTP layer maps each
// kind to a status code; infrastructure faults are never wrapped in Error.
type ErrorKind int

const (
	KindUserNotFound ErrorKind = iota
	KindMovieNotFound
	KindUserAlreadyExists
	KindInvalidCredentials
	KindInvalidTwoFactorCode
	KindInvalidVerificationToken
	KindEmailNotVerified
	KindUserSuspended
	KindAccessDenied
	KindInvalidInput
)

// Error is the single domain-error family thrown by workflows.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func ErrUserNotFound(identifier string) *Error {
	return &Error{Kind: KindUserNotFound, Message: fmt.Sprintf("User not found: %s", identifier)}
}

func ErrMovieNotFound(id string) *Error {
	return &Error{Kind: KindMovieNotFound, Message: fmt.Sprintf("Movie not found: %s", id)}
}

func ErrUserAlreadyExists(email string) *Error {
	return &Error{Kind: KindUserAlreadyExists, Message: fmt.Sprintf("User with email %s already exists", email)}
}

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals whether an account exists.
func ErrInvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
}

// ErrInvalidTwoFactorCode covers wrong code, expired code and unknown email
// alike; the caller cannot distinguish the cases.
func ErrInvalidTwoFactorCode() *Error {
	return &Error{Kind: KindInvalidTwoFactorCode, Message: "Invalid or expired two-factor authentication code"}
}

func ErrInvalidVerificationToken() *Error {
	return &Error{Kind: KindInvalidVerificationToken, Message: "Invalid or expired verification token"}
}

func ErrEmailNotVerified() *Error {
	return &Error{Kind: KindEmailNotVerified, Message: "Email not verified. Please verify your email first."}
}

func ErrUserSuspended() *Error {
	return &Error{Kind: KindUserSuspended, Message: "User account is suspended"}
}

func ErrAccessDenied(message string) *Error {
	if message == "" {
		message = "Unauthorized access"
	}
	return &Error{Kind: KindAccessDenied, Message: message}
}

func ErrInvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}
