package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	register Registrar
	mws      []Middleware
}

var groups []group

// Register adds a route group from an init function. mws wrap every route of the group.
func Register(reg Registrar, mws ...Middleware) {
	groups = append(groups, group{register: reg, mws: mws})
}

// RegisterAll mounts every registered group on r. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		target := r
		if len(g.mws) > 0 {
			target = r.With(g.mws...)
		}
		g.register(target, d)
	}
}

// writeLimit is the per-client rate limit of visitor writes.
// Each call builds separate buckets.
func writeLimit(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RateRefill,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
	})
}

func adminOnly(d deps.Deps) Middleware {
	return mw.RequireAdmin(d.Auth, d.Logger)
}
