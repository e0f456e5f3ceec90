package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cinetrack/watchlist/internal/domain"
	"github.com/cinetrack/watchlist/internal/mailer"
	"github.com/cinetrack/watchlist/internal/repository"
	"github.com/cinetrack/watchlist/pkg/auth"
	"github.com/cinetrack/watchlist/pkg/config"
	"github.com/cinetrack/watchlist/pkg/events"
	"github.com/cinetrack/watchlist/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)
	VerifyEmail(ctx context.Context, token string) (*VerifyEmailOutput, error)
	VerifyTwoFactor(ctx context.Context, input VerifyTwoFactorInput) (*VerifyTwoFactorOutput, error)
	GetCurrentUser(ctx context.Context, userID string) (*UserProfile, error)
	ResendVerification(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string) (*RefreshOutput, error)
	ListUsers(ctx context.Context) ([]*UserProfile, error)
	SuspendUser(ctx context.Context, id string) error
	ActivateUser(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber *string
}

type RegisterOutput struct {
	UserID  string
	Email   string
	Message string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	RequiresTwoFactor bool
	Message           string
}

type VerifyEmailOutput struct {
	Success bool
	Message string
}

type VerifyTwoFactorInput struct {
	Email string
	Code  string
}

type UserSummary struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

type VerifyTwoFactorOutput struct {
	AccessToken  string
	RefreshToken string
	User         UserSummary
}

type RefreshOutput struct {
	AccessToken  string
	RefreshToken string
}

type UserProfile struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	FullName        string
	PhoneNumber     *string
	Role            string
	Status          string
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type authService struct {
	users  repository.UserRepository
	hasher Hasher
	tokens Tokens
	mailer mailer.Service
	ids    IDGenerator
	bus    events.Publisher
	cfg    *config.Config
}

func NewAuthService(
	users repository.UserRepository,
	hasher Hasher,
	tokens Tokens,
	mail mailer.Service,
	ids IDGenerator,
	bus events.Publisher,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mail,
		ids:    ids,
		bus:    bus,
		cfg:    cfg,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUserAlreadyExists(email)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verifyToken := s.tokens.GenerateRandomToken()

	user := domain.NewUser(domain.NewUserParams{
		ID:                     s.ids.NewID(),
		FirstName:              input.FirstName,
		LastName:               input.LastName,
		Email:                  email,
		PasswordHash:           passwordHash,
		PhoneNumber:            input.PhoneNumber,
		Role:                   domain.RoleMember,
		EmailVerificationToken: verifyToken,
	})

	// The account must exist before any email goes out. A concurrent
	// registration for the same address loses here on the unique index.
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID(),
		Email:        user.Email(),
		RegisteredAt: user.CreatedAt(),
	})

	if err := s.mailer.SendVerificationEmail(user.Email(), verifyToken); err != nil {
		// At-most-once email: the account exists, the send is not retried.
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID())
	}

	return &RegisterOutput{
		UserID:  user.ID(),
		Email:   user.Email(),
		Message: "Registration successful. Please check your email to verify your account.",
	}, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials()
	}

	// Suspension and verification are checked before the password on
	// purpose; clients rely on the distinct 403s even for bad passwords.
	if user.IsSuspended() {
		return nil, domain.ErrUserSuspended()
	}

	if !user.IsEmailVerified() {
		return nil, domain.ErrEmailNotVerified()
	}

	valid, err := s.hasher.Compare(input.Password, user.PasswordHash())
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials()
	}

	code := s.tokens.GenerateTwoFactorCode()
	user.SetTwoFactorCode(code, s.cfg.Auth.TwoFactorTTL)

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store two-factor code: %w", err)
	}

	s.publish(ctx, events.TwoFactorRequested, events.TwoFactorRequestedEvent{
		UserID:    user.ID(),
		Email:     user.Email(),
		ExpiresAt: *user.TwoFactorExpiresAt(),
	})

	if err := s.mailer.SendTwoFactorCode(user.Email(), code); err != nil {
		logger.ErrorContext(ctx, "Failed to send two-factor code", "error", err, "user_id", user.ID())
	}

	return &LoginOutput{
		RequiresTwoFactor: true,
		Message:           "Two-factor authentication code sent to your email.",
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*VerifyEmailOutput, error) {
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by verification token: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidVerificationToken()
	}

	user.VerifyEmail()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}

	s.publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.ID(),
		Email:      user.Email(),
		VerifiedAt: *user.EmailVerifiedAt(),
	})

	return &VerifyEmailOutput{
		Success: true,
		Message: "Email verified successfully. You can now log in.",
	}, nil
}

func (s *authService) VerifyTwoFactor(ctx context.Context, input VerifyTwoFactorInput) (*VerifyTwoFactorOutput, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidTwoFactorCode()
	}

	if !user.IsTwoFactorCodeValid(input.Code, time.Now()) {
		return nil, domain.ErrInvalidTwoFactorCode()
	}

	user.ClearTwoFactorCode()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to clear two-factor code: %w", err)
	}

	payload := auth.TokenPayload{
		UserID: user.ID(),
		Email:  user.Email(),
		Role:   string(user.Role()),
	}

	accessToken, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	s.publish(ctx, events.UserLoggedIn, events.UserLoggedInEvent{
		UserID:     user.ID(),
		Email:      user.Email(),
		LoggedInAt: time.Now(),
	})

	return &VerifyTwoFactorOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserSummary{
			ID:        user.ID(),
			Email:     user.Email(),
			FirstName: user.FirstName(),
			LastName:  user.LastName(),
			Role:      string(user.Role()),
		},
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound(userID)
	}

	return toProfile(user), nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal if the account exists or not
		return nil
	}

	if user.IsEmailVerified() {
		return domain.ErrInvalidInput("Account is already verified")
	}

	verifyToken := s.tokens.GenerateRandomToken()
	user.SetEmailVerificationToken(verifyToken)

	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(user.Email(), verifyToken); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID())
	}

	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*RefreshOutput, error) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials()
	}

	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound(payload.UserID)
	}

	if user.IsSuspended() {
		return nil, domain.ErrUserSuspended()
	}

	accessToken, err := s.tokens.GenerateAccessToken(auth.TokenPayload{
		UserID: user.ID(),
		Email:  user.Email(),
		Role:   string(user.Role()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &RefreshOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // the refresh token itself is not rotated
	}, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]*UserProfile, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	profiles := make([]*UserProfile, len(users))
	for i, user := range users {
		profiles[i] = toProfile(user)
	}

	return profiles, nil
}

func (s *authService) SuspendUser(ctx context.Context, id string) error {
	return s.transition(ctx, id, (*domain.User).Suspend)
}

func (s *authService) ActivateUser(ctx context.Context, id string) error {
	return s.transition(ctx, id, (*domain.User).Activate)
}

func (s *authService) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

func (s *authService) transition(ctx context.Context, id string, apply func(*domain.User)) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound(id)
	}

	apply(user)

	return s.users.Save(ctx, user)
}

// publish is best-effort: event-bus failures are logged, never propagated.
func (s *authService) publish(ctx context.Context, subject string, event interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

func toProfile(user *domain.User) *UserProfile {
	return &UserProfile{
		ID:              user.ID(),
		Email:           user.Email(),
		FirstName:       user.FirstName(),
		LastName:        user.LastName(),
		FullName:        user.FullName(),
		PhoneNumber:     user.PhoneNumber(),
		Role:            string(user.Role()),
		Status:          string(user.Status()),
		EmailVerified:   user.IsEmailVerified(),
		EmailVerifiedAt: user.EmailVerifiedAt(),
		CreatedAt:       user.CreatedAt(),
		UpdatedAt:       user.UpdatedAt(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
