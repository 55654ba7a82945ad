// Package sqlstore implements the store contracts on PostgreSQL and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/database"
	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

const pinColumns = "id, lat, lng, title, description, category, created_at, visitor_id, start_date, end_date, address"

// Store handles SQL operations for pins, page views and the site config
type Store struct {
	db  *database.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates a SQL store on an open pool
func New(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Pins
// ─────────────────────────────────────────────────────────────────

// InsertPin stores a new pin
func (s *Store) InsertPin(ctx context.Context, p domain.Pin) error {
	q := s.db.Rebind(`INSERT INTO pins (` + pinColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, q,
		p.ID,
		nullFloat(p.Lat),
		nullFloat(p.Lng),
		p.Title,
		p.Description,
		p.Category,
		p.CreatedAt.UTC(),
		p.VisitorID,
		nullTime(p.StartDate),
		nullTime(p.EndDate),
		nullString(p.Address),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pin: %w", err)
	}
	return nil
}

// DeletePin removes a pin, store.ErrNotFound when nothing matched
func (s *Store) DeletePin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM pins WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete pin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete pin: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListPins returns pins newest first
func (s *Store) ListPins(ctx context.Context, f store.PinFilter) ([]domain.Pin, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveAt != nil {
		where = append(where, "(end_date IS NULL OR end_date >= ?)")
		args = append(args, f.ActiveAt.UTC())
	}

	q := `SELECT ` + pinColumns + ` FROM pins`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	return s.queryPins(ctx, q, args...)
}

// ListEvents returns pins with a start date, ordered by it
func (s *Store) ListEvents(ctx context.Context, from, to *time.Time) ([]domain.Pin, error) {
	where := []string{"start_date IS NOT NULL"}
	var args []any
	if from != nil {
		where = append(where, "start_date >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		where = append(where, "start_date <= ?")
		args = append(args, to.UTC())
	}

	q := `SELECT ` + pinColumns + ` FROM pins WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY start_date ASC, created_at ASC`

	return s.queryPins(ctx, q, args...)
}

func (s *Store) queryPins(ctx context.Context, q string, args ...any) ([]domain.Pin, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pins: %w", err)
	}
	defer rows.Close()

	pins := make([]domain.Pin, 0)
	for rows.Next() {
		var (
			p          domain.Pin
			lat, lng   sql.NullFloat64
			start, end sql.NullTime
			address    sql.NullString
		)
		if err := rows.Scan(
			&p.ID,
			&lat,
			&lng,
			&p.Title,
			&p.Description,
			&p.Category,
			&p.CreatedAt,
			&p.VisitorID,
			&start,
			&end,
			&address,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}

		p.CreatedAt = p.CreatedAt.UTC()
		p.Lat = floatPtr(lat)
		p.Lng = floatPtr(lng)
		p.StartDate = timePtr(start)
		p.EndDate = timePtr(end)
		p.Address = stringPtr(address)
		pins = append(pins, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pins: %w", err)
	}
	return pins, nil
}

// ─────────────────────────────────────────────────────────────────
// Page views
// ─────────────────────────────────────────────────────────────────

// InsertPageView records a visit
func (s *Store) InsertPageView(ctx context.Context, v domain.PageView) error {
	q := s.db.Rebind(`INSERT INTO page_views (id, ts, path, visitor_hash) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, v.ID, v.Timestamp.UTC(), v.Path, v.VisitorHash); err != nil {
		return fmt.Errorf("failed to insert page view: %w", err)
	}
	return nil
}

// ListPageViews returns all visits, oldest first
func (s *Store) ListPageViews(ctx context.Context) ([]domain.PageView, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ts, path, visitor_hash FROM page_views ORDER BY ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	views := make([]domain.PageView, 0)
	for rows.Next() {
		var v domain.PageView
		if err := rows.Scan(&v.ID, &v.Timestamp, &v.Path, &v.VisitorHash); err != nil {
			return nil, fmt.Errorf("failed to scan page view: %w", err)
		}
		v.Timestamp = v.Timestamp.UTC()
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read page views: %w", err)
	}
	return views, nil
}

// DeletePageViewsBefore removes visits older than cutoff
func (s *Store) DeletePageViewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM page_views WHERE ts < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete page views: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete page views: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────
// Site config
// ─────────────────────────────────────────────────────────────────

// GetSiteConfig returns the most recently saved configuration
func (s *Store) GetSiteConfig(ctx context.Context) (domain.SiteConfig, error) {
	var (
		cfg           domain.SiteConfig
		theme, legend string
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, site_name, theme, legend FROM site_config ORDER BY updated_at DESC LIMIT 1`)
	if err := row.Scan(&cfg.ID, &cfg.SiteName, &theme, &legend); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SiteConfig{}, store.ErrNotFound
		}
		return domain.SiteConfig{}, fmt.Errorf("failed to get site config: %w", err)
	}

	if err := json.Unmarshal([]byte(theme), &cfg.Theme); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("failed to unmarshal theme: %w", err)
	}
	if err := json.Unmarshal([]byte(legend), &cfg.Legend); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("failed to unmarshal legend: %w", err)
	}
	return cfg, nil
}

// SaveSiteConfig upserts the configuration by ID
func (s *Store) SaveSiteConfig(ctx context.Context, cfg domain.SiteConfig) error {
	theme, err := json.Marshal(cfg.Theme)
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}
	if cfg.Legend == nil {
		cfg.Legend = []domain.LegendItem{}
	}
	legend, err := json.Marshal(cfg.Legend)
	if err != nil {
		return fmt.Errorf("failed to marshal legend: %w", err)
	}

	q := `INSERT INTO site_config (id, site_name, theme, legend, updated_at) VALUES (?, ?, ?, ?, ?)`
	switch s.db.Dialect {
	case database.MySQL:
		q += ` ON DUPLICATE KEY UPDATE site_name = VALUES(site_name), theme = VALUES(theme), legend = VALUES(legend), updated_at = VALUES(updated_at)`
	default:
		q += ` ON CONFLICT (id) DO UPDATE SET site_name = EXCLUDED.site_name, theme = EXCLUDED.theme, legend = EXCLUDED.legend, updated_at = EXCLUDED.updated_at`
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(q), cfg.ID, cfg.SiteName, string(theme), string(legend), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save site config: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Null helpers
// ─────────────────────────────────────────────────────────────────

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time.UTC()
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
