package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinetrack/watchlist/pkg/config"
)

// TokenPayload is the identity carried by every issued token.
type TokenPayload struct {
	UserID string
	Email  string
	Role   string
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the bearer credentials of the API.
// Access and refresh tokens use distinct signing secrets and TTLs.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

func (s *TokenService) GenerateAccessToken(p TokenPayload) (string, error) {
	return sign(p, s.accessSecret, s.accessTTL)
}

func (s *TokenService) GenerateRefreshToken(p TokenPayload) (string, error) {
	return sign(p, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) VerifyAccessToken(token string) (*TokenPayload, error) {
	return parse(token, s.accessSecret)
}

func (s *TokenService) VerifyRefreshToken(token string) (*TokenPayload, error) {
	return parse(token, s.refreshSecret)
}

// GenerateRandomToken returns an opaque hex string used for single-use
// email verification links.
func (s *TokenService) GenerateRandomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf)
}

// GenerateTwoFactorCode returns a 6-digit numeric code.
func (s *TokenService) GenerateTwoFactorCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(err)
	}
	code := n.Int64() + 100000
	return big.NewInt(code).String()
}

func sign(p TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"watchlist-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(tokenString string, secret []byte) (*TokenPayload, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return &TokenPayload{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
