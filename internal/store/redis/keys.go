package redis

const (
	// KeyPrefix namespaces every key written by pinmap
	KeyPrefix = "pinmap:"
	// KeyStats holds the aggregated dashboard statistics
	KeyStats = KeyPrefix + "stats"
	// KeySiteConfig holds the current site configuration
	KeySiteConfig = KeyPrefix + "site_config"
)

// StatsKey returns the Redis key for cached stats of a given UTC day.
// The day is part of the key so a cached entry never outlives its "today".
func StatsKey(day string) string {
	return KeyStats + ":" + day
}

// SiteConfigKey returns the Redis key for the cached site config
func SiteConfigKey() string {
	return KeySiteConfig
}
