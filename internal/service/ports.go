package service

import "github.com/cinetrack/watchlist/pkg/auth"

// Hasher is the one-way password hashing port.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) (bool, error)
}

// Tokens issues and verifies bearer credentials and generates the opaque
// values used by the signup protocol.
type Tokens interface {
	GenerateAccessToken(payload auth.TokenPayload) (string, error)
	GenerateRefreshToken(payload auth.TokenPayload) (string, error)
	VerifyAccessToken(token string) (*auth.TokenPayload, error)
	VerifyRefreshToken(token string) (*auth.TokenPayload, error)
	GenerateRandomToken() string
	GenerateTwoFactorCode() string
}

// IDGenerator mints globally unique identifiers for new entities.
type IDGenerator interface {
	NewID() string
}
