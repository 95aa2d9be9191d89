package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/surajmeruva0786/restosaas2/internal/server/authctx"
	"github.com/surajmeruva0786/restosaas2/internal/session"
)

// AuthHandler exposes the two login gates. Tenant admins log in against a
// restaurant's stored credentials and get a token scoped to that
// restaurant; the platform operator logs in against the fixed credential
// pair and gets an unscoped token.
type AuthHandler struct {
	AdminGate    *session.AdminGate
	OperatorGate *session.OperatorGate
	JWTSecret    string
	TokenTTL     time.Duration
}

// RegisterAdminRoutes and RegisterOperatorRoutes are mounted inside their
// respective route trees, ahead of the auth middleware.
func (h AuthHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/login", h.adminLogin)
	r.Post("/logout", h.adminLogout)
}

func (h AuthHandler) RegisterOperatorRoutes(r chi.Router) {
	r.Post("/login", h.operatorLogin)
	r.Post("/logout", h.operatorLogout)
}

type tokenResponse struct {
	Token        string `json:"token"`
	ExpiresAt    string `json:"expiresAt"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurantId,omitempty"`
}

func (h AuthHandler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug     string `json:"slug"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	restaurantID, err := h.AdminGate.Login(r.Context(), req.Slug, req.Username, req.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, exp, err := issueToken(h.JWTSecret, h.TokenTTL, authctx.RoleTenantAdmin, restaurantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:        token,
		ExpiresAt:    exp.Format(time.RFC3339),
		Role:         authctx.RoleTenantAdmin,
		RestaurantID: restaurantID,
	})
}

func (h AuthHandler) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminGate.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AuthHandler) operatorLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.OperatorGate.Login(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, exp, err := issueToken(h.JWTSecret, h.TokenTTL, authctx.RolePlatformOperator, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: exp.Format(time.RFC3339),
		Role:      authctx.RolePlatformOperator,
	})
}

func (h AuthHandler) operatorLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.OperatorGate.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
