package domain

import "time"

// RecentViewDays is the length of the RecentViews window, today included.
const RecentViewDays = 7

const dayLayout = "2006-01-02"

// PageView is a single recorded visit.
type PageView struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Path        string    `json:"path"`
	VisitorHash string    `json:"visitor_hash"`
}

// DailyViews is the number of page views recorded on one UTC day.
type DailyViews struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalPins      int            `json:"total_pins"`
	TotalVisitors  int            `json:"total_visitors"`
	PinsToday      int            `json:"pins_today"`
	VisitorsToday  int            `json:"visitors_today"`
	PinsByCategory map[string]int `json:"pins_by_category"`
	RecentViews    []DailyViews   `json:"recent_views"`
}

// AggregateStats summarizes pins and page views as seen at now.
// "Today" is the UTC calendar date of now.
func AggregateStats(pins []Pin, views []PageView, now time.Time) Stats {
	today := now.UTC().Format(dayLayout)

	stats := Stats{
		TotalPins:      len(pins),
		PinsByCategory: make(map[string]int),
		RecentViews:    make([]DailyViews, RecentViewDays),
	}

	for _, p := range pins {
		stats.PinsByCategory[p.Category]++
		if p.CreatedAt.UTC().Format(dayLayout) == today {
			stats.PinsToday++
		}
	}

	slot := make(map[string]int, RecentViewDays)
	for i := 0; i < RecentViewDays; i++ {
		d := now.UTC().AddDate(0, 0, i-(RecentViewDays-1)).Format(dayLayout)
		stats.RecentViews[i] = DailyViews{Date: d}
		slot[d] = i
	}

	visitors := make(map[string]struct{})
	visitorsToday := make(map[string]struct{})
	for _, v := range views {
		visitors[v.VisitorHash] = struct{}{}

		day := v.Timestamp.UTC().Format(dayLayout)
		if day == today {
			visitorsToday[v.VisitorHash] = struct{}{}
		}
		if i, ok := slot[day]; ok {
			stats.RecentViews[i].Count++
		}
	}
	stats.TotalVisitors = len(visitors)
	stats.VisitorsToday = len(visitorsToday)

	return stats
}
