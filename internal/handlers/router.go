package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/cinetrack/watchlist/pkg/middleware"
)

type route struct {
	method  string
	pattern string
	policy  RoutePolicy
	handler http.HandlerFunc
	limited bool // subject to the public-endpoint rate limit
}

// Routes builds the router from an explicit per-route access table: every
// endpoint declares up front whether it is public and which roles it needs,
// and the guard enforces exactly that declaration.
func (h *Handlers) Routes(guard *Guard, limiter *mw.RateLimiter) chi.Router {
	table := []route{
		{http.MethodPost, "/auth/register", Public, h.Register, true},
		{http.MethodPost, "/auth/login", Public, h.Login, true},
		{http.MethodPost, "/auth/verify-email", Public, h.VerifyEmail, true},
		{http.MethodPost, "/auth/verify-two-factor", Public, h.VerifyTwoFactor, true},
		{http.MethodPost, "/auth/resend-verification", Public, h.ResendVerification, true},
		{http.MethodPost, "/auth/refresh", Public, h.Refresh, true},
		{http.MethodGet, "/auth/me", Authenticated, h.Me, false},

		{http.MethodPost, "/movies", Authenticated, h.AddMovie, false},
		{http.MethodGet, "/movies", AdminOnly, h.GetAllWatchlists, false},
		{http.MethodGet, "/movies/watchlist/{userId}", Authenticated, h.GetUserWatchlist, false},
		{http.MethodGet, "/movies/{id}", Authenticated, h.GetMovie, false},
		{http.MethodPatch, "/movies/{id}", Authenticated, h.UpdateMovie, false},
		{http.MethodDelete, "/movies/{id}", Authenticated, h.DeleteMovie, false},

		{http.MethodGet, "/admin/users", AdminOnly, h.ListUsers, false},
		{http.MethodPost, "/admin/users/{id}/suspend", AdminOnly, h.SuspendUser, false},
		{http.MethodPost, "/admin/users/{id}/activate", AdminOnly, h.ActivateUser, false},
		{http.MethodDelete, "/admin/users/{id}", AdminOnly, h.DeleteUser, false},
	}

	r := chi.NewRouter()

	for _, rt := range table {
		var handler http.Handler = rt.handler

		handler = guard.Enforce(rt.policy)(handler)

		if rt.limited && limiter != nil {
			handler = limiter.Limit("auth")(handler)
		}

		r.Method(rt.method, rt.pattern, handler)
	}

	return r
}
