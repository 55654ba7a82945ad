package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// GetConfig returns the site configuration.
func GetConfig(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := siteConfig(r.Context(), d)
		if err != nil {
			d.Logger.Error("load site config failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to load site config")
			return
		}
		_ = respond.JSON(w, http.StatusOK, cfg)
	}
}

// UpdateConfig applies a partial update of site_name, theme and legend.
func UpdateConfig(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var patch domain.ConfigPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if patch.Empty() {
			respond.Error(w, http.StatusBadRequest, "nothing to update")
			return
		}

		current, err := siteConfig(ctx, d)
		if err != nil {
			d.Logger.Error("load site config failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to load site config")
			return
		}

		updated, err := patch.Apply(current)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := d.Store.SaveSiteConfig(ctx, updated); err != nil {
			d.Logger.Error("save site config failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to save site config")
			return
		}
		if err := d.Cache.InvalidateSiteConfig(ctx); err != nil {
			d.Logger.Warn("site config cache invalidation failed", logger.Error(err))
		}

		d.Logger.Info("site config updated",
			logger.String("site_name", updated.SiteName),
			logger.Int("legend_entries", len(updated.Legend)))
		_ = respond.JSON(w, http.StatusOK, updated)
	}
}
