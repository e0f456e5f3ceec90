package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cinetrack/watchlist/internal/service"
)

type registerRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

type userResponse struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	PhoneNumber   *string `json:"phoneNumber"`
	Status        string  `json:"status"`
	Role          string  `json:"role"`
	EmailVerified bool    `json:"emailVerified"`
}

// Register handles POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "firstName, lastName, email and password are required")
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": result.Message,
		"user": userResponse{
			ID:            result.UserID,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         result.Email,
			PhoneNumber:   req.PhoneNumber,
			Status:        "pending",
			Role:          "MEMBER",
			EmailVerified: false,
		},
	})
}

// Login handles POST /auth/login. A successful login never returns a
// session token; it only triggers the two-factor email.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requiresTwoFactor": result.RequiresTwoFactor,
		"message":           result.Message,
	})
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	result, err := h.auth.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": result.Message,
	})
}

// VerifyTwoFactor handles POST /auth/verify-two-factor. This is the only
// path that yields bearer credentials.
func (h *Handlers) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	result, err := h.auth.VerifyTwoFactor(r.Context(), service.VerifyTwoFactorInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user": userResponse{
			ID:            result.User.ID,
			FirstName:     result.User.FirstName,
			LastName:      result.User.LastName,
			Email:         result.User.Email,
			PhoneNumber:   nil,
			Status:        "active",
			Role:          result.User.Role,
			EmailVerified: true,
		},
	})
}

// ResendVerification handles POST /auth/resend-verification.
func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email sent",
	})
}

// Refresh handles POST /auth/refresh.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Me handles GET /auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity := Identity(r)

	profile, err := h.auth.GetCurrentUser(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:            profile.ID,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Email:         profile.Email,
		PhoneNumber:   profile.PhoneNumber,
		Status:        profile.Status,
		Role:          profile.Role,
		EmailVerified: profile.EmailVerified,
	})
}
