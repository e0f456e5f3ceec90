package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cinetrack/watchlist/internal/domain"
	"github.com/cinetrack/watchlist/internal/repository"
	"github.com/cinetrack/watchlist/pkg/events"
	"github.com/cinetrack/watchlist/pkg/logger"
)

type MovieService interface {
	AddMovie(ctx context.Context, input AddMovieInput) (*MovieOutput, error)
	GetMovie(ctx context.Context, movieID string, requester Requester) (*MovieOutput, error)
	UpdateMovie(ctx context.Context, movieID string, input UpdateMovieInput, requester Requester) (*MovieOutput, error)
	DeleteMovie(ctx context.Context, movieID string, requester Requester) error
	GetUserWatchlist(ctx context.Context, userID string, requester Requester) (*WatchlistOutput, error)
	GetAllWatchlists(ctx context.Context, requester Requester) (*AllWatchlistsOutput, error)
}

// Requester identifies the authenticated caller for ownership checks.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) isAdmin() bool {
	return r.Role == string(domain.RoleAdmin)
}

type AddMovieInput struct {
	UserID    string
	Title     string
	Year      int
	Genre     *string
	Director  *string
	Rating    *int
	Notes     *string
	WatchedAt *time.Time
}

type UpdateMovieInput struct {
	Title     *string
	Year      *int
	Genre     *string
	Director  *string
	Rating    *int
	HasRating bool
	Notes     *string
	HasNotes  bool
	WatchedAt *time.Time
}

type MovieOutput struct {
	ID        string
	UserID    string
	Title     string
	Year      int
	Genre     *string
	Director  *string
	Rating    *int
	Notes     *string
	WatchedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WatchlistOutput struct {
	Movies []*MovieOutput
	Total  int
}

type MovieWithOwner struct {
	MovieOutput
	UserEmail string
}

type AllWatchlistsOutput struct {
	Movies []*MovieWithOwner
	Total  int
}

type movieService struct {
	movies repository.MovieRepository
	users  repository.UserRepository
	ids    IDGenerator
	bus    events.Publisher
}

func NewMovieService(
	movies repository.MovieRepository,
	users repository.UserRepository,
	ids IDGenerator,
	bus events.Publisher,
) MovieService {
	return &movieService{
		movies: movies,
		users:  users,
		ids:    ids,
		bus:    bus,
	}
}

func (s *movieService) AddMovie(ctx context.Context, input AddMovieInput) (*MovieOutput, error) {
	watchedAt := time.Time{}
	if input.WatchedAt != nil {
		watchedAt = *input.WatchedAt
	}

	movie, err := domain.NewMovie(domain.NewMovieParams{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		Title:     input.Title,
		Year:      input.Year,
		Genre:     input.Genre,
		Director:  input.Director,
		Rating:    input.Rating,
		Notes:     input.Notes,
		WatchedAt: watchedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := s.movies.Save(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to save movie: %w", err)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.MovieAdded, events.MovieAddedEvent{
			MovieID: movie.ID(),
			UserID:  movie.UserID(),
			Title:   movie.Title(),
			Year:    movie.Year(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "subject", events.MovieAdded, "error", err)
		}
	}

	return toMovieOutput(movie), nil
}

func (s *movieService) GetMovie(ctx context.Context, movieID string, requester Requester) (*MovieOutput, error) {
	movie, err := s.loadOwned(ctx, movieID, requester)
	if err != nil {
		return nil, err
	}

	return toMovieOutput(movie), nil
}

func (s *movieService) UpdateMovie(ctx context.Context, movieID string, input UpdateMovieInput, requester Requester) (*MovieOutput, error) {
	movie, err := s.loadOwned(ctx, movieID, requester)
	if err != nil {
		return nil, err
	}

	movie.UpdateDetails(domain.MovieDetails{
		Title:    input.Title,
		Year:     input.Year,
		Genre:    input.Genre,
		Director: input.Director,
	})

	if input.HasRating {
		if err := movie.UpdateRating(input.Rating); err != nil {
			return nil, err
		}
	}

	if input.HasNotes {
		movie.UpdateNotes(input.Notes)
	}

	if input.WatchedAt != nil {
		movie.UpdateWatchedAt(*input.WatchedAt)
	}

	if err := s.movies.Save(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	return toMovieOutput(movie), nil
}

func (s *movieService) DeleteMovie(ctx context.Context, movieID string, requester Requester) error {
	if _, err := s.loadOwned(ctx, movieID, requester); err != nil {
		return err
	}

	return s.movies.Delete(ctx, movieID)
}

func (s *movieService) GetUserWatchlist(ctx context.Context, userID string, requester Requester) (*WatchlistOutput, error) {
	if !requester.isAdmin() && userID != requester.UserID {
		return nil, domain.ErrAccessDenied("You can only access your own watchlist")
	}

	movies, err := s.movies.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	out := make([]*MovieOutput, len(movies))
	for i, movie := range movies {
		out[i] = toMovieOutput(movie)
	}

	return &WatchlistOutput{Movies: out, Total: len(out)}, nil
}

func (s *movieService) GetAllWatchlists(ctx context.Context, requester Requester) (*AllWatchlistsOutput, error) {
	if !requester.isAdmin() {
		return nil, domain.ErrAccessDenied("Only admins can access all watchlists")
	}

	movies, err := s.movies.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlists: %w", err)
	}

	emails := make(map[string]string)
	out := make([]*MovieWithOwner, len(movies))
	for i, movie := range movies {
		email, ok := emails[movie.UserID()]
		if !ok {
			email = "Unknown"
			if owner, err := s.users.FindByID(ctx, movie.UserID()); err == nil && owner != nil {
				email = owner.Email()
			}
			emails[movie.UserID()] = email
		}

		out[i] = &MovieWithOwner{
			MovieOutput: *toMovieOutput(movie),
			UserEmail:   email,
		}
	}

	return &AllWatchlistsOutput{Movies: out, Total: len(out)}, nil
}

// loadOwned fetches a movie and enforces ownership, with an admin override.
func (s *movieService) loadOwned(ctx context.Context, movieID string, requester Requester) (*domain.Movie, error) {
	movie, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movie: %w", err)
	}
	if movie == nil {
		return nil, domain.ErrMovieNotFound(movieID)
	}

	if !requester.isAdmin() && !movie.BelongsTo(requester.UserID) {
		return nil, domain.ErrAccessDenied("You do not have access to this movie")
	}

	return movie, nil
}

func toMovieOutput(movie *domain.Movie) *MovieOutput {
	return &MovieOutput{
		ID:        movie.ID(),
		UserID:    movie.UserID(),
		Title:     movie.Title(),
		Year:      movie.Year(),
		Genre:     movie.Genre(),
		Director:  movie.Director(),
		Rating:    movie.Rating(),
		Notes:     movie.Notes(),
		WatchedAt: movie.WatchedAt(),
		CreatedAt: movie.CreatedAt(),
		UpdatedAt: movie.UpdatedAt(),
	}
}
