package domain

import "time"

type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
	StatusDeleted   UserStatus = "deleted"
)

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

// User is the account aggregate. Its fields are deliberately unexported:
// state changes only happen through the named transition methods below, and
// every mutation refreshes updatedAt. The entity knows nothing about
// hashing, tokens or HTTP.
type User struct {
	id                     string
	firstName              string
	lastName               string
	email                  string
	passwordHash           string
	phoneNumber            *string
	status                 UserStatus
	role                   UserRole
	emailVerificationToken *string
	emailVerifiedAt        *time.Time
	twoFactorCode          *string
	twoFactorExpiresAt     *time.Time
	createdAt              time.Time
	updatedAt              time.Time
}

// NewUserParams carries the caller-supplied fields for a fresh account.
// The password must already be hashed.
type NewUserParams struct {
	ID                     string
	FirstName              string
	LastName               string
	Email                  string
	PasswordHash           string
	PhoneNumber            *string
	Role                   UserRole
	EmailVerificationToken string
}

// NewUser builds a pending, unverified account and stamps both audit
// timestamps with the current time.
func NewUser(p NewUserParams) *User {
	now := time.Now()
	token := p.EmailVerificationToken
	return &User{
		id:                     p.ID,
		firstName:              p.FirstName,
		lastName:               p.LastName,
		email:                  p.Email,
		passwordHash:           p.PasswordHash,
		phoneNumber:            p.PhoneNumber,
		status:                 StatusPending,
		role:                   p.Role,
		emailVerificationToken: &token,
		createdAt:              now,
		updatedAt:              now,
	}
}

// UserSnapshot is the persistence view of a User. Repositories map it to
// and from rows; nothing else should construct one.
type UserSnapshot struct {
	ID                     string
	FirstName              string
	LastName               string
	Email                  string
	PasswordHash           string
	PhoneNumber            *string
	Status                 UserStatus
	Role                   UserRole
	EmailVerificationToken *string
	EmailVerifiedAt        *time.Time
	TwoFactorCode          *string
	TwoFactorExpiresAt     *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// RehydrateUser rebuilds an entity from stored state without touching
// timestamps or enforcing creation defaults.
func RehydrateUser(s UserSnapshot) *User {
	return &User{
		id:                     s.ID,
		firstName:              s.FirstName,
		lastName:               s.LastName,
		email:                  s.Email,
		passwordHash:           s.PasswordHash,
		phoneNumber:            s.PhoneNumber,
		status:                 s.Status,
		role:                   s.Role,
		emailVerificationToken: s.EmailVerificationToken,
		emailVerifiedAt:        s.EmailVerifiedAt,
		twoFactorCode:          s.TwoFactorCode,
		twoFactorExpiresAt:     s.TwoFactorExpiresAt,
		createdAt:              s.CreatedAt,
		updatedAt:              s.UpdatedAt,
	}
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:                     u.id,
		FirstName:              u.firstName,
		LastName:               u.lastName,
		Email:                  u.email,
		PasswordHash:           u.passwordHash,
		PhoneNumber:            u.phoneNumber,
		Status:                 u.status,
		Role:                   u.role,
		EmailVerificationToken: u.emailVerificationToken,
		EmailVerifiedAt:        u.emailVerifiedAt,
		TwoFactorCode:          u.twoFactorCode,
		TwoFactorExpiresAt:     u.twoFactorExpiresAt,
		CreatedAt:              u.createdAt,
		UpdatedAt:              u.updatedAt,
	}
}

// Getters

func (u *User) ID() string                      { return u.id }
func (u *User) FirstName() string               { return u.firstName }
func (u *User) LastName() string                { return u.lastName }
func (u *User) FullName() string                { return u.firstName + " " + u.lastName }
func (u *User) Email() string                   { return u.email }
func (u *User) PasswordHash() string            { return u.passwordHash }
func (u *User) PhoneNumber() *string            { return u.phoneNumber }
func (u *User) Status() UserStatus              { return u.status }
func (u *User) Role() UserRole                  { return u.role }
func (u *User) EmailVerificationToken() *string { return u.emailVerificationToken }
func (u *User) EmailVerifiedAt() *time.Time     { return u.emailVerifiedAt }
func (u *User) TwoFactorExpiresAt() *time.Time  { return u.twoFactorExpiresAt }
func (u *User) CreatedAt() time.Time            { return u.createdAt }
func (u *User) UpdatedAt() time.Time            { return u.updatedAt }

// Predicates

func (u *User) IsPending() bool   { return u.status == StatusPending }
func (u *User) IsActive() bool    { return u.status == StatusActive }
func (u *User) IsSuspended() bool { return u.status == StatusSuspended }
func (u *User) IsAdmin() bool     { return u.role == RoleAdmin }

func (u *User) IsEmailVerified() bool {
	return u.emailVerifiedAt != nil
}

// Transitions

// VerifyEmail marks the email as verified, clears the single-use token and
// activates the account. Calling it twice is legal and overwrites the
// verification timestamp; replay is prevented by the token being cleared,
// not by this method.
func (u *User) VerifyEmail() {
	now := time.Now()
	u.emailVerifiedAt = &now
	u.emailVerificationToken = nil
	u.status = StatusActive
	u.touch()
}

func (u *User) SetEmailVerificationToken(token string) {
	u.emailVerificationToken = &token
	u.touch()
}

// SetTwoFactorCode stores the code with an absolute expiry of now+ttl. Code
// and expiry are always set together.
func (u *User) SetTwoFactorCode(code string, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	u.twoFactorCode = &code
	u.twoFactorExpiresAt = &expiresAt
	u.touch()
}

func (u *User) ClearTwoFactorCode() {
	u.twoFactorCode = nil
	u.twoFactorExpiresAt = nil
	u.touch()
}

// IsTwoFactorCodeValid reports whether code matches the stored, unexpired
// two-factor code at the given instant. It never mutates the entity.
func (u *User) IsTwoFactorCodeValid(code string, now time.Time) bool {
	if u.twoFactorCode == nil || u.twoFactorExpiresAt == nil {
		return false
	}

	if now.After(*u.twoFactorExpiresAt) {
		return false
	}

	return *u.twoFactorCode == code
}

func (u *User) UpdatePassword(passwordHash string) {
	u.passwordHash = passwordHash
	u.touch()
}

func (u *User) Suspend() {
	u.status = StatusSuspended
	u.touch()
}

func (u *User) Activate() {
	u.status = StatusActive
	u.touch()
}

func (u *User) touch() {
	u.updatedAt = time.Now()
}
