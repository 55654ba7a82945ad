package deps

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pinmap/internal/auth"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/notify"
	"github.com/MrSnakeDoc/pinmap/internal/store"
	redisstore "github.com/MrSnakeDoc/pinmap/internal/store/redis"
)

// EventSink receives event-created notifications without blocking the caller.
type EventSink interface {
	Dispatch(ev notify.EventCreated)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time        // for testing, defaults to time.Now
	NewID          func() string           // record ids, defaults to uuid.NewString
	Location       *time.Location          // calendar day boundaries
	SiteURL        string                  // public base URL for feed links
	RequestTimeout time.Duration           // per-request handler timeout
	CORSOrigins    []string                // allowed CORS origins
	AllowedCIDRS   []string                // IPs allowed to access readyz
	TrustProxy     bool                    // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst      int                     // token bucket size on write endpoints
	RateRefill     int                     // tokens refilled per minute
	Store          store.Store             // pins, page views, site config
	Cache          *redisstore.Cache       // stats and site config cache (may be disabled)
	Auth           *auth.Authenticator     // admin password and tokens
	Events         EventSink               // event-created notifications (nil disables)
	Pingers        map[string]store.Pinger // backends checked by readyz
}

// WithDefaults fills the optional fields left empty.
func (d Deps) WithDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.TimeNow == nil {
		d.TimeNow = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.StartTime.IsZero() {
		d.StartTime = d.TimeNow()
	}
	if d.Cache == nil {
		d.Cache = redisstore.NewCache(nil, 0, 0)
	}
	if d.Auth == nil {
		d.Auth = auth.New(auth.Options{})
	}
	return d
}
