package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vaughan-dsouza/salonbook/internal/apperr"
	"github.com/vaughan-dsouza/salonbook/internal/auth"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/metrics"
	"github.com/vaughan-dsouza/salonbook/internal/middleware"
	"github.com/vaughan-dsouza/salonbook/internal/models"
	"github.com/vaughan-dsouza/salonbook/internal/store"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

// UserHandler serves the caller's own account under /users/me.
type UserHandler struct {
	users   store.UserStore
	tokens  *auth.Issuer
	cookies cookieJar
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewUserHandler(users store.UserStore, tokens *auth.Issuer, cookies cookieJar, log logging.Logger, m *metrics.Metrics) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, cookies: cookies, log: log, metrics: m}
}

type updateUserReq struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72,maxbytes=72"`
}

func (r *updateUserReq) Normalize() {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		*r.Email = normalizeEmail(*r.Email)
	}
}

// current loads the account behind the request identity.
func (h *UserHandler) current(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return nil, false
	}

	u, err := h.users.GetByID(r.Context(), id.ID)
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(w, apperr.UserGone())
		return nil, false
	}
	if err != nil {
		serverError(w, r, h.log, "user lookup failed", err)
		return nil, false
	}
	return u, true
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, u.Identity())
}

// Update applies a partial profile change. A new password re-hashes the
// credential, which revokes every refresh token issued before; the caller's
// own session gets a fresh refresh cookie.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateUserReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	u, ok := h.current(w, r)
	if !ok {
		return
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Password != nil {
		hash, salt, err := auth.HashPassword(*req.Password)
		if err != nil {
			serverError(w, r, h.log, "password hashing failed", err)
			return
		}
		u.Password, u.Salt = hash, salt
	}

	err := h.users.Update(ctx, u)
	if errors.Is(err, store.ErrEmailExists) {
		utils.Error(w, apperr.EmailExists())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(w, apperr.UserGone())
		return
	}
	if err != nil {
		serverError(w, r, h.log, "user update failed", err)
		return
	}

	if req.Password != nil {
		pair, err := h.tokens.IssueTokenPair(u)
		if err != nil {
			serverError(w, r, h.log, "token issue failed", err)
			return
		}
		h.cookies.set(w, pair.RefreshToken)
		h.metrics.AuthEvent(metrics.EventPasswordChange)
		h.log.Info(ctx, "password changed", "user_id", u.ID)
	}

	h.log.Info(ctx, "user updated", "user_id", u.ID)
	utils.JSON(w, http.StatusOK, u.Identity())
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return
	}

	err := h.users.Delete(r.Context(), id.ID)
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(w, apperr.UserGone())
		return
	}
	if err != nil {
		serverError(w, r, h.log, "user delete failed", err)
		return
	}

	h.cookies.clear(w)
	h.log.Info(r.Context(), "user deleted", "user_id", id.ID)

	w.WriteHeader(http.StatusNoContent)
}
