package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rsheridan/inkwell/internal/authn"
	"github.com/rsheridan/inkwell/internal/middleware"
)

type AuthHandler struct {
	svc    *authn.Service
	logger *slog.Logger
}

func NewAuthHandler(svc *authn.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}

	err := h.svc.RequestCode(req.Email, middleware.RealIP(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, authn.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Invalid email")
	case errors.Is(err, authn.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, authn.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many requests, try again later.")
	case errors.Is(err, authn.ErrEmailDelivery):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to send email",
			"details": err.Error(),
		})
	default:
		h.logger.Error("request code", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing email or code")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "Missing email or code")
		return
	}

	session, err := h.svc.VerifyCode(req.Email, req.Code, middleware.RealIP(r))
	switch {
	case err == nil:
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    session.Token,
			Path:     "/",
			MaxAge:   int(h.svc.SessionTTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, authn.ErrCodeNotFound):
		writeError(w, http.StatusUnauthorized, "Code expired or not found")
	case errors.Is(err, authn.ErrCodeExpired):
		writeError(w, http.StatusUnauthorized, "Code expired")
	case errors.Is(err, authn.ErrCodeMismatch):
		writeError(w, http.StatusUnauthorized, "Invalid code")
	case errors.Is(err, authn.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later.")
	default:
		h.logger.Error("verify code", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
		if err := h.svc.Logout(c.Value); err != nil {
			h.logger.Error("logout", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
