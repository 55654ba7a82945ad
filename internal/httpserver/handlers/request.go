package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/store"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

const maxBodyBytes = 1 << 20

var (
	errEmptyBody        = errors.New("request body is empty")
	errPartialYearMonth = errors.New("year and month must be provided together")
)

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseYearMonth reads the year and 1-indexed month query parameters.
// ok is false when neither is present; one without the other is an error.
func parseYearMonth(r *http.Request) (year, month int, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))

	switch {
	case ys == "" && ms == "":
		return 0, 0, false, nil
	case ys == "" || ms == "":
		return 0, 0, false, errPartialYearMonth
	}

	year, err = strconv.Atoi(ys)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid year %q", ys)
	}
	month, err = strconv.Atoi(ms)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid month %q", ms)
	}
	if _, err := domain.DaysInMonth(year, month); err != nil {
		return 0, 0, false, err
	}
	return year, month, true, nil
}

// siteConfig returns the cached configuration, then the stored one, then the default.
func siteConfig(ctx context.Context, d deps.Deps) (domain.SiteConfig, error) {
	if cfg, ok, err := d.Cache.GetSiteConfig(ctx); err != nil {
		d.Logger.Warn("site config cache read failed", logger.Error(err))
	} else if ok {
		return cfg, nil
	}

	cfg, err := d.Store.GetSiteConfig(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cfg = domain.DefaultSiteConfig()
	case err != nil:
		return domain.SiteConfig{}, err
	}

	if err := d.Cache.SetSiteConfig(ctx, cfg); err != nil {
		d.Logger.Warn("site config cache write failed", logger.Error(err))
	}
	return cfg, nil
}

// visitorHash derives an anonymous visitor key from the client IP and user agent.
func visitorHash(r *http.Request, trustProxy bool) string {
	sum := sha256.Sum256([]byte(utils.ClientIP(r, trustProxy) + "|" + r.UserAgent()))
	return hex.EncodeToString(sum[:16])
}

// invalidateStats drops cached stats after pins or page views change.
func invalidateStats(ctx context.Context, d deps.Deps) {
	if err := d.Cache.InvalidateStats(ctx); err != nil {
		d.Logger.Warn("stats cache invalidation failed", logger.Error(err))
	}
}
