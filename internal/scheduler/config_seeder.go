package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/sources/siteconfig"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

// ConfigSeeder writes the initial site configuration on first start.
type ConfigSeeder struct {
	store    store.SiteConfigStore
	seedFile string
	logger   logger.Logger
}

// NewConfigSeeder creates a seeder. An empty seedFile seeds the defaults.
func NewConfigSeeder(st store.SiteConfigStore, seedFile string, log logger.Logger) *ConfigSeeder {
	return &ConfigSeeder{store: st, seedFile: seedFile, logger: log}
}

// Seed saves the seed configuration unless one is already stored.
// It reports whether a configuration was written.
func (cs *ConfigSeeder) Seed(ctx context.Context) (bool, error) {
	_, err := cs.store.GetSiteConfig(ctx)
	switch {
	case err == nil:
		cs.logger.Debug("site config already present, skipping seed")
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, fmt.Errorf("failed to read site config: %w", err)
	}

	cfg, err := siteconfig.LoadFile(cs.seedFile)
	if err != nil {
		return false, err
	}
	if cfg.ID == "" {
		cfg.ID = domain.DefaultSiteConfig().ID
	}

	if err := cs.store.SaveSiteConfig(ctx, cfg); err != nil {
		return false, fmt.Errorf("failed to save site config: %w", err)
	}

	source := cs.seedFile
	if source == "" {
		source = "defaults"
	}
	cs.logger.Info("✅ site config seeded",
		logger.String("source", source),
		logger.String("site_name", cfg.SiteName),
		logger.Int("legend_entries", len(cfg.Legend)))

	return true, nil
}
