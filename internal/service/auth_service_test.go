package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cinetrack/watchlist/internal/domain"
	"github.com/cinetrack/watchlist/internal/service"
	"github.com/cinetrack/watchlist/pkg/auth"
	"github.com/cinetrack/watchlist/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	users   map[string]*domain.User // id -> user
	saveErr error
	saves   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Save(_ context.Context, user *domain.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.users[user.ID()] = user
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range m.users {
		if t := u.EmailVerificationToken(); t != nil && *t == token {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound(id)
	}
	delete(m.users, id)
	return nil
}

type mockHasher struct {
	compares int
}

func (m *mockHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (m *mockHasher) Compare(plaintext, digest string) (bool, error) {
	m.compares++
	return digest == "hashed:"+plaintext, nil
}

type stubTokens struct {
	randomToken  string
	twoFactor    string
	refreshValid map[string]auth.TokenPayload // refresh token -> payload
}

func newStubTokens() *stubTokens {
	return &stubTokens{
		randomToken:  "verify-token-1",
		twoFactor:    "123456",
		refreshValid: make(map[string]auth.TokenPayload),
	}
}

func (s *stubTokens) GenerateAccessToken(p auth.TokenPayload) (string, error) {
	return "access-" + p.UserID, nil
}

func (s *stubTokens) GenerateRefreshToken(p auth.TokenPayload) (string, error) {
	token := "refresh-" + p.UserID
	s.refreshValid[token] = p
	return token, nil
}

func (s *stubTokens) VerifyAccessToken(token string) (*auth.TokenPayload, error) {
	return nil, errors.New("not used in these tests")
}

func (s *stubTokens) VerifyRefreshToken(token string) (*auth.TokenPayload, error) {
	p, ok := s.refreshValid[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &p, nil
}

func (s *stubTokens) GenerateRandomToken() string   { return s.randomToken }
func (s *stubTokens) GenerateTwoFactorCode() string { return s.twoFactor }

type mockMailer struct {
	verifications []string // "to:token"
	codes         []string // "to:code"
	sendErr       error
}

func (m *mockMailer) SendVerificationEmail(to, token string) error {
	m.verifications = append(m.verifications, to+":"+token)
	return m.sendErr
}

func (m *mockMailer) SendTwoFactorCode(to, code string) error {
	m.codes = append(m.codes, to+":"+code)
	return m.sendErr
}

type stubIDs struct {
	next int
}

func (s *stubIDs) NewID() string {
	s.next++
	return fmt.Sprintf("id-%d", s.next)
}

type captureBus struct {
	subjects []string
	failWith error
}

func (b *captureBus) Publish(_ context.Context, subject string, _ interface{}) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *captureBus) Close() error { return nil }

// ---------- Fixture ----------

type authFixture struct {
	svc    service.AuthService
	users  *mockUserRepo
	hasher *mockHasher
	tokens *stubTokens
	mailer *mockMailer
	bus    *captureBus
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  newMockUserRepo(),
		hasher: &mockHasher{},
		tokens: newStubTokens(),
		mailer: &mockMailer{},
		bus:    &captureBus{},
	}
	cfg := &config.Config{
		Auth: config.AuthConfig{
			TwoFactorTTL: 10 * time.Minute,
		},
	}
	f.svc = service.NewAuthService(f.users, f.hasher, f.tokens, f.mailer, &stubIDs{}, f.bus, cfg)
	return f
}

func (f *authFixture) seedUser(t *testing.T, email string, status domain.UserStatus, verified bool) *domain.User {
	t.Helper()
	var verifiedAt *time.Time
	var token *string
	if verified {
		at := time.Now().Add(-time.Hour)
		verifiedAt = &at
	} else {
		tok := "pending-token"
		token = &tok
	}
	user := domain.RehydrateUser(domain.UserSnapshot{
		ID:                     "seed-" + email,
		FirstName:              "Test",
		LastName:               "User",
		Email:                  email,
		PasswordHash:           "hashed:secret",
		Status:                 status,
		Role:                   domain.RoleMember,
		EmailVerificationToken: token,
		EmailVerifiedAt:        verifiedAt,
		CreatedAt:              time.Now().Add(-time.Hour),
		UpdatedAt:              time.Now().Add(-time.Hour),
	})
	if err := f.users.Save(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	f.users.saves = 0
	return user
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	var derr *domain.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if derr.Kind != kind {
		t.Fatalf("expected error kind %d, got %d (%s)", kind, derr.Kind, derr.Message)
	}
}

// ---------- Register ----------

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture()

	out, err := f.svc.Register(context.Background(), service.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.COM ",
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if out.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %q", out.Email)
	}

	saved := f.users.users[out.UserID]
	if saved == nil {
		t.Fatal("expected the user to be persisted")
	}
	if !saved.IsPending() {
		t.Errorf("expected pending status, got %q", saved.Status())
	}
	if saved.Role() != domain.RoleMember {
		t.Errorf("expected member role, got %q", saved.Role())
	}

	if len(f.mailer.verifications) != 1 || f.mailer.verifications[0] != "ada@example.com:verify-token-1" {
		t.Errorf("expected one verification email, got %v", f.mailer.verifications)
	}
	if len(f.bus.subjects) != 1 || f.bus.subjects[0] != "user.registered" {
		t.Errorf("expected user.registered event, got %v", f.bus.subjects)
	}
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusActive, true)

	_, err := f.svc.Register(context.Background(), service.RegisterInput{
		Email:    "ADA@example.com",
		Password: "secret",
	})

	wantKind(t, err, domain.KindUserAlreadyExists)
	if f.users.saves != 0 {
		t.Errorf("expected no save on duplicate registration, got %d", f.users.saves)
	}
	if len(f.mailer.verifications) != 0 {
		t.Error("expected no email on duplicate registration")
	}
}

func TestRegister_EmailFailure_StillSucceeds(t *testing.T) {
	f := newAuthFixture()
	f.mailer.sendErr = errors.New("smtp down")

	out, err := f.svc.Register(context.Background(), service.RegisterInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("expected registration to survive a mail failure, got %v", err)
	}
	if f.users.users[out.UserID] == nil {
		t.Error("expected the user to be persisted despite the mail failure")
	}
}

// ---------- Login ----------

func TestLogin_UnknownEmail_InvalidCredentials(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		Email:    "ghost@example.com",
		Password: "secret",
	})

	wantKind(t, err, domain.KindInvalidCredentials)
	if f.hasher.compares != 0 {
		t.Error("expected no password comparison for unknown accounts")
	}
}

func TestLogin_Suspended_BeforePasswordCheck(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusSuspended, true)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})

	wantKind(t, err, domain.KindUserSuspended)
	if f.hasher.compares != 0 {
		t.Error("suspension must be reported before the password is checked")
	}
}

func TestLogin_Unverified_BeforePasswordCheck(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusPending, false)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})

	wantKind(t, err, domain.KindEmailNotVerified)
	if f.hasher.compares != 0 {
		t.Error("verification must be reported before the password is checked")
	}
}

func TestLogin_WrongPassword_InvalidCredentials(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusActive, true)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		Email:    "ada@example.com",
		Password: "not-the-password",
	})

	wantKind(t, err, domain.KindInvalidCredentials)
	if f.users.saves != 0 {
		t.Error("expected no state change on a failed login")
	}
}

func TestLogin_Success_SendsTwoFactorCode(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)

	out, err := f.svc.Login(context.Background(), service.LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !out.RequiresTwoFactor {
		t.Error("expected RequiresTwoFactor to be true")
	}
	if !user.IsTwoFactorCodeValid("123456", time.Now()) {
		t.Error("expected the two-factor code to be stored on the account")
	}
	if f.users.saves != 1 {
		t.Errorf("expected the code to be persisted, got %d saves", f.users.saves)
	}
	if len(f.mailer.codes) != 1 || f.mailer.codes[0] != "ada@example.com:123456" {
		t.Errorf("expected one code email, got %v", f.mailer.codes)
	}
}

// ---------- Email verification ----------

func TestVerifyEmail_ActivatesAccount(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusPending, false)

	out, err := f.svc.VerifyEmail(context.Background(), "pending-token")
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	if !out.Success {
		t.Error("expected success")
	}
	if !user.IsActive() || !user.IsEmailVerified() {
		t.Error("expected the account to be active and verified")
	}
	if user.EmailVerificationToken() != nil {
		t.Error("expected the token to be consumed")
	}
}

func TestVerifyEmail_ReplayFails(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusPending, false)

	if _, err := f.svc.VerifyEmail(context.Background(), "pending-token"); err != nil {
		t.Fatalf("first VerifyEmail: %v", err)
	}

	_, err := f.svc.VerifyEmail(context.Background(), "pending-token")
	wantKind(t, err, domain.KindInvalidVerificationToken)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.VerifyEmail(context.Background(), "no-such-token")
	wantKind(t, err, domain.KindInvalidVerificationToken)
}

// ---------- Two-factor verification ----------

func TestVerifyTwoFactor_IssuesTokens(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)
	user.SetTwoFactorCode("123456", 10*time.Minute)

	out, err := f.svc.VerifyTwoFactor(context.Background(), service.VerifyTwoFactorInput{
		Email: "ada@example.com",
		Code:  "123456",
	})
	if err != nil {
		t.Fatalf("VerifyTwoFactor: %v", err)
	}

	if out.AccessToken != "access-"+user.ID() {
		t.Errorf("unexpected access token %q", out.AccessToken)
	}
	if out.RefreshToken != "refresh-"+user.ID() {
		t.Errorf("unexpected refresh token %q", out.RefreshToken)
	}
	if out.User.Email != "ada@example.com" {
		t.Errorf("unexpected user summary %+v", out.User)
	}
	if user.IsTwoFactorCodeValid("123456", time.Now()) {
		t.Error("expected the code to be single-use")
	}
}

func TestVerifyTwoFactor_WrongCode(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)
	user.SetTwoFactorCode("123456", 10*time.Minute)

	_, err := f.svc.VerifyTwoFactor(context.Background(), service.VerifyTwoFactorInput{
		Email: "ada@example.com",
		Code:  "000000",
	})

	wantKind(t, err, domain.KindInvalidTwoFactorCode)
	if !user.IsTwoFactorCodeValid("123456", time.Now()) {
		t.Error("a wrong guess must not consume the stored code")
	}
}

func TestVerifyTwoFactor_ExpiredCode(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)
	user.SetTwoFactorCode("123456", -time.Minute)

	_, err := f.svc.VerifyTwoFactor(context.Background(), service.VerifyTwoFactorInput{
		Email: "ada@example.com",
		Code:  "123456",
	})

	wantKind(t, err, domain.KindInvalidTwoFactorCode)
}

func TestVerifyTwoFactor_UnknownEmail_SameError(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.VerifyTwoFactor(context.Background(), service.VerifyTwoFactorInput{
		Email: "ghost@example.com",
		Code:  "123456",
	})

	wantKind(t, err, domain.KindInvalidTwoFactorCode)
}

// ---------- Resend verification ----------

func TestResendVerification_UnknownEmail_Silent(t *testing.T) {
	f := newAuthFixture()

	if err := f.svc.ResendVerification(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silence for unknown accounts, got %v", err)
	}
	if len(f.mailer.verifications) != 0 {
		t.Error("expected no email for unknown accounts")
	}
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "ada@example.com", domain.StatusActive, true)

	err := f.svc.ResendVerification(context.Background(), "ada@example.com")
	wantKind(t, err, domain.KindInvalidInput)
}

func TestResendVerification_RotatesToken(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusPending, false)

	if err := f.svc.ResendVerification(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}

	if tok := user.EmailVerificationToken(); tok == nil || *tok != "verify-token-1" {
		t.Errorf("expected a fresh token to be stored, got %v", tok)
	}
	if len(f.mailer.verifications) != 1 {
		t.Errorf("expected one verification email, got %d", len(f.mailer.verifications))
	}
}

// ---------- Refresh ----------

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)
	refresh, _ := f.tokens.GenerateRefreshToken(auth.TokenPayload{
		UserID: user.ID(),
		Email:  user.Email(),
		Role:   string(user.Role()),
	})

	out, err := f.svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if out.AccessToken != "access-"+user.ID() {
		t.Errorf("unexpected access token %q", out.AccessToken)
	}
	if out.RefreshToken != refresh {
		t.Error("expected the refresh token to be returned unrotated")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Refresh(context.Background(), "forged")
	wantKind(t, err, domain.KindInvalidCredentials)
}

func TestRefresh_SuspendedAccount(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)
	refresh, _ := f.tokens.GenerateRefreshToken(auth.TokenPayload{UserID: user.ID()})

	user.Suspend()

	_, err := f.svc.Refresh(context.Background(), refresh)
	wantKind(t, err, domain.KindUserSuspended)
}

// ---------- Admin operations ----------

func TestSuspendAndActivateUser(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "ada@example.com", domain.StatusActive, true)

	if err := f.svc.SuspendUser(context.Background(), user.ID()); err != nil {
		t.Fatalf("SuspendUser: %v", err)
	}
	if !user.IsSuspended() {
		t.Error("expected the account to be suspended")
	}

	if err := f.svc.ActivateUser(context.Background(), user.ID()); err != nil {
		t.Fatalf("ActivateUser: %v", err)
	}
	if !user.IsActive() {
		t.Error("expected the account to be active again")
	}
}

func TestSuspendUser_Unknown(t *testing.T) {
	f := newAuthFixture()

	err := f.svc.SuspendUser(context.Background(), "missing")
	wantKind(t, err, domain.KindUserNotFound)
}

// ---------- Full signup flow ----------

func TestSignupFlow_RegisterVerifyLoginTwoFactor(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, service.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Login is refused until the email is verified.
	_, err = f.svc.Login(ctx, service.LoginInput{Email: "ada@example.com", Password: "secret"})
	wantKind(t, err, domain.KindEmailNotVerified)

	if _, err := f.svc.VerifyEmail(ctx, "verify-token-1"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	login, err := f.svc.Login(ctx, service.LoginInput{Email: "ada@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !login.RequiresTwoFactor {
		t.Fatal("expected a two-factor challenge")
	}

	session, err := f.svc.VerifyTwoFactor(ctx, service.VerifyTwoFactorInput{
		Email: "ada@example.com",
		Code:  "123456",
	})
	if err != nil {
		t.Fatalf("VerifyTwoFactor: %v", err)
	}
	if session.User.ID != reg.UserID {
		t.Errorf("expected tokens for the registered user, got %q", session.User.ID)
	}

	profile, err := f.svc.GetCurrentUser(ctx, reg.UserID)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if profile.Status != string(domain.StatusActive) || !profile.EmailVerified {
		t.Errorf("unexpected profile state %+v", profile)
	}
}
