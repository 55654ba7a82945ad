package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Shape is the marker outline drawn for a legend category.
type Shape string

const (
	ShapeCircle   Shape = "circle"
	ShapeSquare   Shape = "square"
	ShapeStar     Shape = "star"
	ShapeTriangle Shape = "triangle"
	ShapeDiamond  Shape = "diamond"
)

// Shapes lists every supported shape in display order.
var Shapes = []Shape{ShapeCircle, ShapeSquare, ShapeStar, ShapeTriangle, ShapeDiamond}

// FallbackStyle is used when a category matches nothing and the legend is empty.
var FallbackStyle = LegendItem{Name: "Other", Color: "#6b7280", Shape: ShapeCircle}

var (
	ErrLegendNameRequired = errors.New("legend entry name is required")
	ErrLegendDuplicate    = errors.New("duplicate legend entry")
	ErrInvalidShape       = errors.New("invalid shape")
	ErrInvalidColor       = errors.New("invalid color")
	ErrSiteNameRequired   = errors.New("site_name cannot be empty")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseShape returns the shape named s, case-insensitively.
func ParseShape(s string) (Shape, bool) {
	v := Shape(strings.ToLower(strings.TrimSpace(s)))
	for _, sh := range Shapes {
		if sh == v {
			return v, true
		}
	}
	return "", false
}

// IsHexColor reports whether c is a #rgb or #rrggbb color.
func IsHexColor(c string) bool {
	return hexColor.MatchString(c)
}

// LegendItem maps a category name to its marker style.
type LegendItem struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Shape Shape  `json:"shape" yaml:"shape"`
}

// Theme holds the site-wide presentation settings.
type Theme struct {
	PrimaryColor    string `json:"primary_color" yaml:"primary_color"`
	BackgroundColor string `json:"background_color" yaml:"background_color"`
	Font            string `json:"font" yaml:"font"`
	DarkMode        bool   `json:"dark_mode" yaml:"dark_mode"`
}

// SiteConfig is the single administrator-owned configuration record.
type SiteConfig struct {
	ID       string       `json:"id" yaml:"id"`
	SiteName string       `json:"site_name" yaml:"site_name"`
	Theme    Theme        `json:"theme" yaml:"theme"`
	Legend   []LegendItem `json:"legend" yaml:"legend"`
}

// DefaultSiteConfig is served until an administrator saves a configuration.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		ID:       "default",
		SiteName: "Community Pin Map",
		Theme: Theme{
			PrimaryColor:    "#3b82f6",
			BackgroundColor: "#ffffff",
			Font:            "Inter",
			DarkMode:        false,
		},
		Legend: []LegendItem{
			{Name: "Default", Color: "#3b82f6", Shape: ShapeCircle},
		},
	}
}

// StyleFor looks up the legend entry for category.
// Unknown categories get the first legend entry, then FallbackStyle.
func (c SiteConfig) StyleFor(category string) LegendItem {
	for _, item := range c.Legend {
		if item.Name == category {
			return item
		}
	}
	if len(c.Legend) > 0 {
		return c.Legend[0]
	}
	return FallbackStyle
}

// ValidateLegend checks names, shapes and colors of every entry.
func ValidateLegend(items []LegendItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return fmt.Errorf("legend[%d]: %w", i, ErrLegendNameRequired)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("legend[%d] %q: %w", i, name, ErrLegendDuplicate)
		}
		seen[name] = struct{}{}

		if _, ok := ParseShape(string(item.Shape)); !ok {
			return fmt.Errorf("legend[%d] %q: %w: %q", i, name, ErrInvalidShape, item.Shape)
		}
		if !IsHexColor(item.Color) {
			return fmt.Errorf("legend[%d] %q: %w: %q", i, name, ErrInvalidColor, item.Color)
		}
	}
	return nil
}

// ConfigPatch is a partial update of SiteConfig. Nil fields are left untouched.
type ConfigPatch struct {
	SiteName *string       `json:"site_name"`
	Theme    *Theme        `json:"theme"`
	Legend   *[]LegendItem `json:"legend"`
}

// Empty reports whether the patch changes nothing.
func (p ConfigPatch) Empty() bool {
	return p.SiteName == nil && p.Theme == nil && p.Legend == nil
}

// Apply validates the patch and returns the updated configuration.
// Shapes are normalized to their lower-case form.
func (p ConfigPatch) Apply(cfg SiteConfig) (SiteConfig, error) {
	if p.SiteName != nil {
		name := strings.TrimSpace(*p.SiteName)
		if name == "" {
			return cfg, ErrSiteNameRequired
		}
		cfg.SiteName = name
	}

	if p.Theme != nil {
		for _, c := range []string{p.Theme.PrimaryColor, p.Theme.BackgroundColor} {
			if c != "" && !IsHexColor(c) {
				return cfg, fmt.Errorf("theme: %w: %q", ErrInvalidColor, c)
			}
		}
		cfg.Theme = *p.Theme
	}

	if p.Legend != nil {
		if err := ValidateLegend(*p.Legend); err != nil {
			return cfg, err
		}
		legend := make([]LegendItem, len(*p.Legend))
		for i, item := range *p.Legend {
			shape, _ := ParseShape(string(item.Shape))
			legend[i] = LegendItem{Name: strings.TrimSpace(item.Name), Color: item.Color, Shape: shape}
		}
		cfg.Legend = legend
	}

	return cfg, nil
}
