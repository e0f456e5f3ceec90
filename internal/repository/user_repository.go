package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinetrack/watchlist/internal/domain"
)

// UserRepository persists User entities. Lookups return (nil, nil) when no
// row matches. Email uniqueness is enforced here, not in the workflow: a
// concurrent duplicate insert fails on the unique index and surfaces as
// UserAlreadyExists.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, first_name, last_name, email, password_hash, phone_number, status, role,
	email_verification_token, email_verified_at, two_factor_code, two_factor_expires_at,
	created_at, updated_at`

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	const q = `
		INSERT INTO users (id, first_name, last_name, email, password_hash, phone_number, status, role,
			email_verification_token, email_verified_at, two_factor_code, two_factor_expires_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			phone_number = EXCLUDED.phone_number,
			status = EXCLUDED.status,
			role = EXCLUDED.role,
			email_verification_token = EXCLUDED.email_verification_token,
			email_verified_at = EXCLUDED.email_verified_at,
			two_factor_code = EXCLUDED.two_factor_code,
			two_factor_expires_at = EXCLUDED.two_factor_expires_at,
			updated_at = EXCLUDED.updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s := user.Snapshot()
	_, err := r.pool.Exec(ctx, q,
		s.ID, s.FirstName, s.LastName, s.Email, s.PasswordHash, s.PhoneNumber, s.Status, s.Role,
		s.EmailVerificationToken, s.EmailVerifiedAt, s.TwoFactorCode, s.TwoFactorExpiresAt,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrUserAlreadyExists(s.Email)
		}
		return err
	}

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	return r.findOne(ctx, q, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1)`
	return r.findOne(ctx, q, email)
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email_verification_token = $1`
	return r.findOne(ctx, q, token)
}

func (r *userRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound(id)
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	user, err := scanUser(r.pool.QueryRow(ctx, q, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var s domain.UserSnapshot
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.PasswordHash, &s.PhoneNumber, &s.Status, &s.Role,
		&s.EmailVerificationToken, &s.EmailVerifiedAt, &s.TwoFactorCode, &s.TwoFactorExpiresAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateUser(s), nil
}
