package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinetrack/watchlist/internal/domain"
)

type MovieRepository interface {
	Save(ctx context.Context, movie *domain.Movie) error
	FindByID(ctx context.Context, id string) (*domain.Movie, error)
	FindByUserID(ctx context.Context, userID string) ([]*domain.Movie, error)
	FindAll(ctx context.Context) ([]*domain.Movie, error)
	Delete(ctx context.Context, id string) error
}

type movieRepository struct {
	pool *pgxpool.Pool
}

func NewMovieRepository(pool *pgxpool.Pool) MovieRepository {
	return &movieRepository{pool: pool}
}

const movieCols = `id, user_id, title, year, genre, director, rating, notes, watched_at, created_at, updated_at`

func (r *movieRepository) Save(ctx context.Context, movie *domain.Movie) error {
	const q = `
		INSERT INTO movies (id, user_id, title, year, genre, director, rating, notes, watched_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			genre = EXCLUDED.genre,
			director = EXCLUDED.director,
			rating = EXCLUDED.rating,
			notes = EXCLUDED.notes,
			watched_at = EXCLUDED.watched_at,
			updated_at = EXCLUDED.updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s := movie.Snapshot()
	_, err := r.pool.Exec(ctx, q,
		s.ID, s.UserID, s.Title, s.Year, s.Genre, s.Director, s.Rating, s.Notes,
		s.WatchedAt, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *movieRepository) FindByID(ctx context.Context, id string) (*domain.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	movie, err := scanMovie(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return movie, nil
}

func (r *movieRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE user_id = $1 ORDER BY watched_at DESC`
	return r.findMany(ctx, q, userID)
}

func (r *movieRepository) FindAll(ctx context.Context) ([]*domain.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies ORDER BY watched_at DESC`
	return r.findMany(ctx, q)
}

func (r *movieRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM movies WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrMovieNotFound(id)
	}

	return nil
}

func (r *movieRepository) findMany(ctx context.Context, q string, args ...any) ([]*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []*domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	return movies, rows.Err()
}

func scanMovie(row pgx.Row) (*domain.Movie, error) {
	var s domain.MovieSnapshot
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Year, &s.Genre, &s.Director, &s.Rating, &s.Notes,
		&s.WatchedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateMovie(s), nil
}
