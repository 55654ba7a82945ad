package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/pinmap/internal/auth"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// RequireAdmin rejects requests without a valid "Authorization: Bearer" admin token.
func RequireAdmin(a *auth.Authenticator, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing admin token")
				return
			}
			if err := a.Verify(raw); err != nil {
				log.Debug("admin token rejected",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				respond.Error(w, http.StatusUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
