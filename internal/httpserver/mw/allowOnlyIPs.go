package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the listed addresses and CIDR ranges.
// An empty list lets every client through.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)

	return func(next http.Handler) http.Handler {
		if m.IsEmpty() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if m.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.Info("client outside allowed networks",
				logger.String("remote_ip", ip),
				logger.String("path", r.URL.Path),
				logger.Bool("trust_proxy", trustProxy))
			respond.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}
