package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cinetrack/watchlist/internal/service"
)

type movieResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail,omitempty"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Genre     *string   `json:"genre"`
	Director  *string   `json:"director"`
	Rating    *int      `json:"rating"`
	Notes     *string   `json:"notes"`
	WatchedAt time.Time `json:"watchedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type createMovieRequest struct {
	Title     string     `json:"title"`
	Year      int        `json:"year"`
	Genre     *string    `json:"genre,omitempty"`
	Director  *string    `json:"director,omitempty"`
	Rating    *int       `json:"rating,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	WatchedAt *time.Time `json:"watchedAt,omitempty"`
}

// AddMovie handles POST /movies.
func (h *Handlers) AddMovie(w http.ResponseWriter, r *http.Request) {
	var req createMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Title == "" || req.Year == 0 {
		writeError(w, http.StatusBadRequest, "title and year are required")
		return
	}

	identity := Identity(r)

	result, err := h.movies.AddMovie(r.Context(), service.AddMovieInput{
		UserID:    identity.UserID,
		Title:     req.Title,
		Year:      req.Year,
		Genre:     req.Genre,
		Director:  req.Director,
		Rating:    req.Rating,
		Notes:     req.Notes,
		WatchedAt: req.WatchedAt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMovieResponse(result))
}

// GetMovie handles GET /movies/{id}.
func (h *Handlers) GetMovie(w http.ResponseWriter, r *http.Request) {
	result, err := h.movies.GetMovie(r.Context(), chi.URLParam(r, "id"), requester(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMovieResponse(result))
}

type updateMovieRequest struct {
	Title     *string    `json:"title,omitempty"`
	Year      *int       `json:"year,omitempty"`
	Genre     *string    `json:"genre,omitempty"`
	Director  *string    `json:"director,omitempty"`
	Rating    *int       `json:"rating"`
	Notes     *string    `json:"notes"`
	WatchedAt *time.Time `json:"watchedAt,omitempty"`
}

// UpdateMovie handles PATCH /movies/{id}. Rating and notes distinguish
// "absent" from "set to null" via raw-message presence checks.
func (h *Handlers) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	var req updateMovieRequest
	buf, _ := json.Marshal(raw)
	if err := json.Unmarshal(buf, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	_, hasRating := raw["rating"]
	_, hasNotes := raw["notes"]

	result, err := h.movies.UpdateMovie(r.Context(), chi.URLParam(r, "id"), service.UpdateMovieInput{
		Title:     req.Title,
		Year:      req.Year,
		Genre:     req.Genre,
		Director:  req.Director,
		Rating:    req.Rating,
		HasRating: hasRating,
		Notes:     req.Notes,
		HasNotes:  hasNotes,
		WatchedAt: req.WatchedAt,
	}, requester(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toMovieResponse(result))
}

// DeleteMovie handles DELETE /movies/{id}.
func (h *Handlers) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	if err := h.movies.DeleteMovie(r.Context(), chi.URLParam(r, "id"), requester(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUserWatchlist handles GET /movies/watchlist/{userId}.
func (h *Handlers) GetUserWatchlist(w http.ResponseWriter, r *http.Request) {
	result, err := h.movies.GetUserWatchlist(r.Context(), chi.URLParam(r, "userId"), requester(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	movies := make([]movieResponse, len(result.Movies))
	for i, m := range result.Movies {
		movies[i] = toMovieResponse(m)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"movies": movies,
		"total":  result.Total,
	})
}

// GetAllWatchlists handles GET /movies (admin only).
func (h *Handlers) GetAllWatchlists(w http.ResponseWriter, r *http.Request) {
	result, err := h.movies.GetAllWatchlists(r.Context(), requester(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	movies := make([]movieResponse, len(result.Movies))
	for i, m := range result.Movies {
		movies[i] = toMovieResponse(&m.MovieOutput)
		movies[i].UserEmail = m.UserEmail
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"movies": movies,
		"total":  result.Total,
	})
}

func requester(r *http.Request) service.Requester {
	identity := Identity(r)
	return service.Requester{
		UserID: identity.UserID,
		Role:   identity.Role,
	}
}

func toMovieResponse(m *service.MovieOutput) movieResponse {
	return movieResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Year:      m.Year,
		Genre:     m.Genre,
		Director:  m.Director,
		Rating:    m.Rating,
		Notes:     m.Notes,
		WatchedAt: m.WatchedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
