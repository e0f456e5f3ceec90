package domain

import "time"

// Movie is a watched-movie entry on a user's list.
type Movie struct {
	id        string
	userID    string
	title     string
	year      int
	genre     *string
	director  *string
	rating    *int
	notes     *string
	watchedAt time.Time
	createdAt time.Time
	updatedAt time.Time
}

type NewMovieParams struct {
	ID        string
	UserID    string
	Title     string
	Year      int
	Genre     *string
	Director  *string
	Rating    *int
	Notes     *string
	WatchedAt time.Time
}

func NewMovie(p NewMovieParams) (*Movie, error) {
	if err := validateRating(p.Rating); err != nil {
		return nil, err
	}

	now := time.Now()
	watchedAt := p.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = now
	}

	return &Movie{
		id:        p.ID,
		userID:    p.UserID,
		title:     p.Title,
		year:      p.Year,
		genre:     p.Genre,
		director:  p.Director,
		rating:    p.Rating,
		notes:     p.Notes,
		watchedAt: watchedAt,
		createdAt: now,
		updatedAt: now,
	}, nil
}

type MovieSnapshot struct {
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

func RehydrateMovie(s MovieSnapshot) *Movie {
	return &Movie{
		id:        s.ID,
		userID:    s.UserID,
		title:     s.Title,
		year:      s.Year,
		genre:     s.Genre,
		director:  s.Director,
		rating:    s.Rating,
		notes:     s.Notes,
		watchedAt: s.WatchedAt,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
}

func (m *Movie) Snapshot() MovieSnapshot {
	return MovieSnapshot{
		ID:        m.id,
		UserID:    m.userID,
		Title:     m.title,
		Year:      m.year,
		Genre:     m.genre,
		Director:  m.director,
		Rating:    m.rating,
		Notes:     m.notes,
		WatchedAt: m.watchedAt,
		CreatedAt: m.createdAt,
		UpdatedAt: m.updatedAt,
	}
}

func (m *Movie) ID() string           { return m.id }
func (m *Movie) UserID() string       { return m.userID }
func (m *Movie) Title() string        { return m.title }
func (m *Movie) Year() int            { return m.year }
func (m *Movie) Genre() *string       { return m.genre }
func (m *Movie) Director() *string    { return m.director }
func (m *Movie) Rating() *int         { return m.rating }
func (m *Movie) Notes() *string       { return m.notes }
func (m *Movie) WatchedAt() time.Time { return m.watchedAt }
func (m *Movie) CreatedAt() time.Time { return m.createdAt }
func (m *Movie) UpdatedAt() time.Time { return m.updatedAt }

func (m *Movie) BelongsTo(userID string) bool {
	return m.userID == userID
}

// MovieDetails carries optional field updates; nil leaves a field unchanged.
type MovieDetails struct {
	Title    *string
	Year     *int
	Genre    *string
	Director *string
}

func (m *Movie) UpdateDetails(d MovieDetails) {
	if d.Title != nil {
		m.title = *d.Title
	}
	if d.Year != nil {
		m.year = *d.Year
	}
	if d.Genre != nil {
		m.genre = d.Genre
	}
	if d.Director != nil {
		m.director = d.Director
	}
	m.touch()
}

func (m *Movie) UpdateRating(rating *int) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	m.rating = rating
	m.touch()
	return nil
}

func (m *Movie) UpdateNotes(notes *string) {
	m.notes = notes
	m.touch()
}

func (m *Movie) UpdateWatchedAt(watchedAt time.Time) {
	m.watchedAt = watchedAt
	m.touch()
}

func (m *Movie) touch() {
	m.updatedAt = time.Now()
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 10) {
		return ErrInvalidInput("Rating must be between 1 and 10")
	}
	return nil
}
