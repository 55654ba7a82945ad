package siteconfig

import "github.com/MrSnakeDoc/pinmap/internal/domain"

// File is the layout of the site configuration seed (site.yaml).
// Omitted sections keep their default values.
type File struct {
	SiteName *string             `yaml:"site_name"`
	Theme    *ThemeProps         `yaml:"theme"`
	Legend   []domain.LegendItem `yaml:"legend"`
}

// ThemeProps is the theme section. Unset colors keep their defaults.
type ThemeProps struct {
	PrimaryColor    string `yaml:"primary_color"`
	BackgroundColor string `yaml:"background_color"`
	Font            string `yaml:"font"`
	DarkMode        *bool  `yaml:"dark_mode"`
}
