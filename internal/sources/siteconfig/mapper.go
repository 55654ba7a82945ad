package siteconfig

import (
	"fmt"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
)

// ToSiteConfig layers f on top of the default configuration and validates it.
func ToSiteConfig(f File) (domain.SiteConfig, error) {
	base := domain.DefaultSiteConfig()
	patch := domain.ConfigPatch{SiteName: f.SiteName}

	if f.Theme != nil {
		theme := base.Theme
		if f.Theme.PrimaryColor != "" {
			theme.PrimaryColor = f.Theme.PrimaryColor
		}
		if f.Theme.BackgroundColor != "" {
			theme.BackgroundColor = f.Theme.BackgroundColor
		}
		if f.Theme.Font != "" {
			theme.Font = f.Theme.Font
		}
		if f.Theme.DarkMode != nil {
			theme.DarkMode = *f.Theme.DarkMode
		}
		patch.Theme = &theme
	}

	if len(f.Legend) > 0 {
		legend := f.Legend
		patch.Legend = &legend
	}

	cfg, err := patch.Apply(base)
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("invalid site config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads path and returns the resulting configuration.
// An empty path yields the default configuration.
func LoadFile(path string) (domain.SiteConfig, error) {
	if path == "" {
		return domain.DefaultSiteConfig(), nil
	}
	f, err := NewLoader(path).Load()
	if err != nil {
		return domain.SiteConfig{}, err
	}
	return ToSiteConfig(f)
}
