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

type AuthHandler struct {
	users         store.UserStore
	tokens        *auth.Issuer
	cookies       cookieJar
	elevatedEmail string
	log           logging.Logger
	metrics       *metrics.Metrics
}

func NewAuthHandler(users store.UserStore, tokens *auth.Issuer, cookies cookieJar, elevatedEmail string, log logging.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		users:         users,
		tokens:        tokens,
		cookies:       cookies,
		elevatedEmail: normalizeEmail(elevatedEmail),
		log:           log,
		metrics:       m,
	}
}

// ----------- Request/Response DTOs -------------

type registerReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

func (r *registerReq) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginReq) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

type sessionResp struct {
	User        models.Identity `json:"user"`
	AccessToken string          `json:"accessToken"`
}

type accessResp struct {
	AccessToken string `json:"accessToken"`
}

// -------------- REGISTER ----------------------

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.log.Warn(ctx, "registration validation failed", "error", err)
		return
	}

	_, err := h.users.GetByEmail(ctx, req.Email)
	if err == nil {
		h.log.Warn(ctx, "registration with existing email", "email", req.Email)
		utils.Error(w, apperr.EmailExists())
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, h.log, "registration lookup failed", err)
		return
	}

	hash, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(w, r, h.log, "password hashing failed", err)
		return
	}

	role := models.RoleUser
	if h.elevatedEmail != "" && req.Email == h.elevatedEmail {
		role = models.RoleAdmin
	}

	u := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Salt:     salt,
		Role:     role,
	}

	// a concurrent registration may still win the unique constraint
	err = h.users.Create(ctx, u)
	if errors.Is(err, store.ErrEmailExists) {
		h.log.Warn(ctx, "registration with existing email", "email", req.Email)
		utils.Error(w, apperr.EmailExists())
		return
	}
	if err != nil {
		serverError(w, r, h.log, "user insert failed", err)
		return
	}

	pair, err := h.tokens.IssueTokenPair(u)
	if err != nil {
		serverError(w, r, h.log, "token issue failed", err)
		return
	}

	h.log.Info(ctx, "user registered",
		"user_id", u.ID,
		"email", u.Email,
		"ip", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)
	h.metrics.AuthEvent(metrics.EventRegister)

	h.cookies.set(w, pair.RefreshToken)
	utils.JSON(w, http.StatusCreated, sessionResp{User: u.Identity(), AccessToken: pair.AccessToken})
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.log.Warn(ctx, "login validation failed", "error", err)
		return
	}

	u, err := h.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		h.loginFailed(w, r, "login with unknown email", req.Email, nil)
		return
	}
	if err != nil {
		serverError(w, r, h.log, "login lookup failed", err)
		return
	}

	if err := auth.CheckPassword(u.Password, req.Password); err != nil {
		h.loginFailed(w, r, "login with invalid password", req.Email, err)
		return
	}

	pair, err := h.tokens.IssueTokenPair(u)
	if err != nil {
		serverError(w, r, h.log, "token issue failed", err)
		return
	}

	h.log.Info(ctx, "login succeeded",
		"user_id", u.ID,
		"email", u.Email,
		"session_id", pair.SessionID,
		"ip", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)
	h.metrics.AuthEvent(metrics.EventLoginSuccess)

	h.cookies.set(w, pair.RefreshToken)
	utils.JSON(w, http.StatusOK, sessionResp{User: u.Identity(), AccessToken: pair.AccessToken})
}

// loginFailed answers INVALID_CREDENTIALS whatever the cause; a corrupt
// stored hash is logged at error level but looks the same to the client.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, msg, email string, cause error) {
	args := []any{"email", email, "ip", r.RemoteAddr}
	if cause != nil && !errors.Is(cause, auth.ErrPasswordMismatch) {
		h.log.Error(r.Context(), "password comparison failed", append(args, "error", cause)...)
	} else {
		h.log.Warn(r.Context(), msg, args...)
	}
	h.metrics.AuthEvent(metrics.EventLoginFailure)
	utils.Error(w, apperr.InvalidCredentials())
}

// ---------------- REFRESH ---------------------

// Refresh exchanges the refresh cookie for a new pair. The token is honoured
// only while its password fingerprint matches the stored hash.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		h.log.Warn(ctx, "refresh without token", "ip", r.RemoteAddr)
		utils.Error(w, apperr.Unauthorized())
		return
	}

	claims, err := h.tokens.ParseRefresh(c.Value)
	if err != nil {
		h.refreshRejected(w, r, "error", err)
		return
	}

	u, err := h.users.GetByID(ctx, claims.UserID())
	if errors.Is(err, store.ErrNotFound) {
		h.refreshRejected(w, r, "user_id", claims.UserID(), "reason", "user not found")
		return
	}
	if err != nil {
		serverError(w, r, h.log, "refresh lookup failed", err)
		return
	}

	if !claims.Matches(u.Password) {
		h.refreshRejected(w, r, "user_id", u.ID, "reason", "password changed")
		return
	}

	pair, err := h.tokens.IssueTokenPair(u)
	if err != nil {
		serverError(w, r, h.log, "token issue failed", err)
		return
	}

	h.log.Info(ctx, "token renewed", "user_id", u.ID, "email", u.Email, "session_id", pair.SessionID)
	h.metrics.AuthEvent(metrics.EventRefresh)

	h.cookies.set(w, pair.RefreshToken)
	utils.JSON(w, http.StatusOK, accessResp{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) refreshRejected(w http.ResponseWriter, r *http.Request, args ...any) {
	h.log.Warn(r.Context(), "refresh with invalid token", append(args, "ip", r.RemoteAddr)...)
	h.metrics.AuthEvent(metrics.EventRefreshReject)
	utils.Error(w, apperr.InvalidToken())
}

// -------------- LOGOUT -----------------------

// Logout clears the refresh cookie. The token itself stays valid until it
// expires or the password changes.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.Error(w, apperr.Unauthorized())
		return
	}

	h.cookies.clear(w)

	h.log.Info(r.Context(), "user logged out", "user_id", id.ID, "email", id.Email)
	h.metrics.AuthEvent(metrics.EventLogout)

	w.WriteHeader(http.StatusNoContent)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
