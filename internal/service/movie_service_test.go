package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cinetrack/watchlist/internal/domain"
	"github.com/cinetrack/watchlist/internal/service"
)

// ---------- Mocks ----------

type mockMovieRepo struct {
	movies map[string]*domain.Movie
}

func newMockMovieRepo() *mockMovieRepo {
	return &mockMovieRepo{movies: make(map[string]*domain.Movie)}
}

func (m *mockMovieRepo) Save(_ context.Context, movie *domain.Movie) error {
	m.movies[movie.ID()] = movie
	return nil
}

func (m *mockMovieRepo) FindByID(_ context.Context, id string) (*domain.Movie, error) {
	return m.movies[id], nil
}

func (m *mockMovieRepo) FindByUserID(_ context.Context, userID string) ([]*domain.Movie, error) {
	var out []*domain.Movie
	for _, movie := range m.movies {
		if movie.UserID() == userID {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (m *mockMovieRepo) FindAll(_ context.Context) ([]*domain.Movie, error) {
	out := make([]*domain.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		out = append(out, movie)
	}
	return out, nil
}

func (m *mockMovieRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.movies[id]; !ok {
		return domain.ErrMovieNotFound(id)
	}
	delete(m.movies, id)
	return nil
}

// ---------- Fixture ----------

var (
	member      = service.Requester{UserID: "user-1", Role: "MEMBER"}
	otherMember = service.Requester{UserID: "user-2", Role: "MEMBER"}
	admin       = service.Requester{UserID: "admin-1", Role: "ADMIN"}
)

type movieFixture struct {
	svc    service.MovieService
	movies *mockMovieRepo
	users  *mockUserRepo
	bus    *captureBus
}

func newMovieFixture() *movieFixture {
	f := &movieFixture{
		movies: newMockMovieRepo(),
		users:  newMockUserRepo(),
		bus:    &captureBus{},
	}
	f.svc = service.NewMovieService(f.movies, f.users, &stubIDs{}, f.bus)
	return f
}

func (f *movieFixture) seedMovie(t *testing.T, id, userID string) *domain.Movie {
	t.Helper()
	movie := domain.RehydrateMovie(domain.MovieSnapshot{
		ID:        id,
		UserID:    userID,
		Title:     "Stalker",
		Year:      1979,
		WatchedAt: time.Now().Add(-24 * time.Hour),
		CreatedAt: time.Now().Add(-24 * time.Hour),
		UpdatedAt: time.Now().Add(-24 * time.Hour),
	})
	f.movies.movies[id] = movie
	return movie
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

// ---------- Tests ----------

func TestAddMovie_SavesAndPublishes(t *testing.T) {
	f := newMovieFixture()

	out, err := f.svc.AddMovie(context.Background(), service.AddMovieInput{
		UserID: "user-1",
		Title:  "Stalker",
		Year:   1979,
		Rating: intp(9),
	})
	if err != nil {
		t.Fatalf("AddMovie: %v", err)
	}

	if f.movies.movies[out.ID] == nil {
		t.Fatal("expected the movie to be persisted")
	}
	if out.WatchedAt.IsZero() {
		t.Error("expected watchedAt to default when omitted")
	}
	if len(f.bus.subjects) != 1 || f.bus.subjects[0] != "movie.added" {
		t.Errorf("expected movie.added event, got %v", f.bus.subjects)
	}
}

func TestAddMovie_InvalidRating(t *testing.T) {
	f := newMovieFixture()

	_, err := f.svc.AddMovie(context.Background(), service.AddMovieInput{
		UserID: "user-1",
		Title:  "Stalker",
		Year:   1979,
		Rating: intp(12),
	})

	wantKind(t, err, domain.KindInvalidInput)
	if len(f.movies.movies) != 0 {
		t.Error("expected nothing to be persisted")
	}
}

func TestGetMovie_OwnershipEnforced(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "user-1")

	if _, err := f.svc.GetMovie(context.Background(), "movie-1", member); err != nil {
		t.Errorf("owner should read their movie: %v", err)
	}

	_, err := f.svc.GetMovie(context.Background(), "movie-1", otherMember)
	wantKind(t, err, domain.KindAccessDenied)

	if _, err := f.svc.GetMovie(context.Background(), "movie-1", admin); err != nil {
		t.Errorf("admin should read any movie: %v", err)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	f := newMovieFixture()

	_, err := f.svc.GetMovie(context.Background(), "missing", member)
	wantKind(t, err, domain.KindMovieNotFound)
}

func TestUpdateMovie_PartialFieldSemantics(t *testing.T) {
	f := newMovieFixture()
	movie := f.seedMovie(t, "movie-1", "user-1")
	if err := movie.UpdateRating(intp(5)); err != nil {
		t.Fatalf("seed rating: %v", err)
	}

	// Absent rating leaves it alone; an explicit null clears it.
	out, err := f.svc.UpdateMovie(context.Background(), "movie-1", service.UpdateMovieInput{
		Title: strp("Solaris"),
	}, member)
	if err != nil {
		t.Fatalf("UpdateMovie: %v", err)
	}
	if out.Rating == nil || *out.Rating != 5 {
		t.Error("absent rating must not clear the stored value")
	}
	if out.Title != "Solaris" {
		t.Errorf("expected title update, got %q", out.Title)
	}

	out, err = f.svc.UpdateMovie(context.Background(), "movie-1", service.UpdateMovieInput{
		HasRating: true,
		Rating:    nil,
	}, member)
	if err != nil {
		t.Fatalf("UpdateMovie: %v", err)
	}
	if out.Rating != nil {
		t.Error("explicit null rating must clear the stored value")
	}
}

func TestUpdateMovie_RejectsInvalidRating(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "user-1")

	_, err := f.svc.UpdateMovie(context.Background(), "movie-1", service.UpdateMovieInput{
		HasRating: true,
		Rating:    intp(0),
	}, member)

	wantKind(t, err, domain.KindInvalidInput)
}

func TestUpdateMovie_NonOwnerDenied(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "user-1")

	_, err := f.svc.UpdateMovie(context.Background(), "movie-1", service.UpdateMovieInput{
		Title: strp("Hijacked"),
	}, otherMember)

	wantKind(t, err, domain.KindAccessDenied)
}

func TestDeleteMovie_OwnerAndAdmin(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "user-1")
	f.seedMovie(t, "movie-2", "user-1")

	err := f.svc.DeleteMovie(context.Background(), "movie-1", otherMember)
	wantKind(t, err, domain.KindAccessDenied)

	if err := f.svc.DeleteMovie(context.Background(), "movie-1", member); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := f.svc.DeleteMovie(context.Background(), "movie-2", admin); err != nil {
		t.Errorf("admin delete: %v", err)
	}
	if len(f.movies.movies) != 0 {
		t.Error("expected both movies to be gone")
	}
}

func TestGetUserWatchlist_AccessRules(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "user-1")
	f.seedMovie(t, "movie-2", "user-1")
	f.seedMovie(t, "movie-3", "user-2")

	out, err := f.svc.GetUserWatchlist(context.Background(), "user-1", member)
	if err != nil {
		t.Fatalf("GetUserWatchlist: %v", err)
	}
	if out.Total != 2 {
		t.Errorf("expected 2 movies, got %d", out.Total)
	}

	_, err = f.svc.GetUserWatchlist(context.Background(), "user-1", otherMember)
	wantKind(t, err, domain.KindAccessDenied)

	if _, err := f.svc.GetUserWatchlist(context.Background(), "user-1", admin); err != nil {
		t.Errorf("admin should read any watchlist: %v", err)
	}
}

func TestGetAllWatchlists_AdminOnlyWithOwnerEmails(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "owner-1")

	owner := domain.RehydrateUser(domain.UserSnapshot{
		ID:     "owner-1",
		Email:  "owner@example.com",
		Status: domain.StatusActive,
		Role:   domain.RoleMember,
	})
	f.users.users["owner-1"] = owner

	_, err := f.svc.GetAllWatchlists(context.Background(), member)
	wantKind(t, err, domain.KindAccessDenied)

	out, err := f.svc.GetAllWatchlists(context.Background(), admin)
	if err != nil {
		t.Fatalf("GetAllWatchlists: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("expected 1 movie, got %d", out.Total)
	}
	if out.Movies[0].UserEmail != "owner@example.com" {
		t.Errorf("expected owner email, got %q", out.Movies[0].UserEmail)
	}
}

func TestGetAllWatchlists_MissingOwnerFallsBack(t *testing.T) {
	f := newMovieFixture()
	f.seedMovie(t, "movie-1", "deleted-user")

	out, err := f.svc.GetAllWatchlists(context.Background(), admin)
	if err != nil {
		t.Fatalf("GetAllWatchlists: %v", err)
	}
	if out.Movies[0].UserEmail != "Unknown" {
		t.Errorf("expected Unknown fallback, got %q", out.Movies[0].UserEmail)
	}
}
