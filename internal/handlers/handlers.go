package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cinetrack/watchlist/internal/domain"
	"github.com/cinetrack/watchlist/internal/service"
	"github.com/cinetrack/watchlist/pkg/logger"
)

type Handlers struct {
	auth   service.AuthService
	movies service.MovieService
}

func New(auth service.AuthService, movies service.MovieService) *Handlers {
	return &Handlers{
		auth:   auth,
		movies: movies,
	}
}

// errorEnvelope is the uniform failure body for every endpoint.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorEnvelope{
		StatusCode: statusCode,
		Error:      http.StatusText(statusCode),
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps the domain-error family onto HTTP statuses. Unknown
// domain kinds default to 400; anything outside the family is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		writeError(w, statusForKind(derr.Kind), derr.Message)
		return
	}

	logger.ErrorContext(r.Context(), "Unhandled error", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUserNotFound, domain.KindMovieNotFound:
		return http.StatusNotFound
	case domain.KindUserAlreadyExists:
		return http.StatusConflict
	case domain.KindInvalidCredentials, domain.KindInvalidTwoFactorCode:
		return http.StatusUnauthorized
	case domain.KindEmailNotVerified, domain.KindUserSuspended, domain.KindAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
