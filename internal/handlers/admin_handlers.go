package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListUsers handles GET /admin/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	users := make([]userResponse, len(profiles))
	for i, p := range profiles {
		users[i] = userResponse{
			ID:            p.ID,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			Email:         p.Email,
			PhoneNumber:   p.PhoneNumber,
			Status:        p.Status,
			Role:          p.Role,
			EmailVerified: p.EmailVerified,
		}
	}

	writeJSON(w, http.StatusOK, users)
}

// SuspendUser handles POST /admin/users/{id}/suspend.
func (h *Handlers) SuspendUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SuspendUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User suspended",
	})
}

// ActivateUser handles POST /admin/users/{id}/activate.
func (h *Handlers) ActivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ActivateUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User activated",
	})
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
