package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/auth"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Authenticated bool      `json:"authenticated"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Login exchanges the admin password for a session token.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		tok, err := d.Auth.Login(req.Password)
		switch {
		case errors.Is(err, auth.ErrNotConfigured):
			respond.Error(w, http.StatusInternalServerError, "Admin password not configured")
			return
		case errors.Is(err, auth.ErrInvalidPassword):
			d.Logger.Warn("admin login rejected", logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			respond.Error(w, http.StatusUnauthorized, "Invalid password")
			return
		case err != nil:
			d.Logger.Error("admin login failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to issue token")
			return
		}

		_ = respond.JSON(w, http.StatusOK, loginResponse{
			Authenticated: true,
			Token:         tok.Token,
			ExpiresAt:     tok.ExpiresAt,
		})
	}
}
