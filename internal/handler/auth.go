package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/gwenythashlie/examgenie/internal/i18n"
	"github.com/gwenythashlie/examgenie/internal/model"
)

const sessionCookieName = "examgenie_session"

// userResponse is the public view of a user record. The password hash
// never leaves the server.
type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func publicUser(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "username required and password must be at least 8 characters")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("failed to look up username", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, appI18n.T(r.Context(), "RegisterError"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         model.UserRoleLearner,
		Active:       true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	u, err := h.store.GetUserByID(id)
	if err != nil || u == nil {
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	h.startSession(w, r, u, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	u, err := h.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if u == nil || !u.Active {
		writeError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "LoginError"))
		return
	}

	h.startSession(w, r, u, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *model.User, status int) {
	token, err := h.store.CreateAuthSession(u.ID)
	if err != nil {
		slog.Error("failed to create session", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	slog.Info("user logged in", "user_id", u.ID, "username", u.Username)
	writeJSON(w, status, map[string]any{"user": publicUser(u)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.store.DeleteAuthSession(c.Value); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// requireAuth resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session get a 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sess, err := h.store.GetAuthSession(c.Value)
		if err != nil {
			slog.Error("failed to load session", "error", err)
			writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
			return
		}
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		u, err := h.store.GetUserByID(sess.UserID)
		if err != nil {
			slog.Error("failed to load user", "error", err)
			writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
			return
		}
		if u == nil || !u.Active {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), u)))
	})
}
