package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MrSnakeDoc/pinmap/internal/database"
	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

var (
	created = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	start   = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	end     = time.Date(2024, 6, 11, 2, 0, 0, 0, time.UTC)
)

var pinCols = []string{"id", "lat", "lng", "title", "description", "category", "created_at", "visitor_id", "start_date", "end_date", "address"}

func newMock(t *testing.T, d database.Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	s := New(database.New(db, d))
	s.now = func() time.Time { return created }
	return s, mock
}

func TestInsertPin(t *testing.T) {
	s, mock := newMock(t, database.Postgres)
	lat, lng := 48.85, 2.35

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pins (id, lat, lng, title, description, category, created_at, visitor_id, start_date, end_date, address) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)).
		WithArgs("p1", lat, lng, "Fair", "", "Art", created, "anonymous", start, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.InsertPin(context.Background(), domain.Pin{
		ID: "p1", Lat: &lat, Lng: &lng, Title: "Fair", Category: "Art",
		CreatedAt: created, VisitorID: "anonymous", StartDate: &start,
	})
	if err != nil {
		t.Fatalf("InsertPin() error = %v", err)
	}
}

func TestDeletePin(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"deleted", 1, nil},
		{"missing", 0, store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t, database.MySQL)
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM pins WHERE id = ?`)).
				WithArgs("p1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := s.DeletePin(context.Background(), "p1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DeletePin() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListPinsActive(t *testing.T) {
	s, mock := newMock(t, database.Postgres)
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(pinCols).
		AddRow("p2", nil, nil, "Fair", "", "Art", created, "v1", start, end, "1 Main St").
		AddRow("p1", 1.5, 2.5, "Cafe", "nice", "Food", created, "anonymous", nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pins WHERE (end_date IS NULL OR end_date >= $1) ORDER BY created_at DESC`)).
		WithArgs(now).
		WillReturnRows(rows)

	pins, err := s.ListPins(context.Background(), store.PinFilter{ActiveAt: &now})
	if err != nil {
		t.Fatalf("ListPins() error = %v", err)
	}
	if len(pins) != 2 {
		t.Fatalf("ListPins() returned %d pins, want 2", len(pins))
	}

	fair := pins[0]
	if fair.HasCoordinates() || fair.Address == nil || *fair.Address != "1 Main St" {
		t.Errorf("pin p2 = %+v", fair)
	}
	if domain.Classify(fair) != domain.PinTypeTemporaryEvent || !fair.EndDate.Equal(end) {
		t.Errorf("pin p2 dates = %v/%v", fair.StartDate, fair.EndDate)
	}

	cafe := pins[1]
	if !cafe.HasCoordinates() || *cafe.Lat != 1.5 || cafe.StartDate != nil || cafe.Address != nil {
		t.Errorf("pin p1 = %+v", cafe)
	}
}

func TestListPinsAll(t *testing.T) {
	s, mock := newMock(t, database.MySQL)

	mock.ExpectQuery(`SELECT .* FROM pins ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(pinCols))

	pins, err := s.ListPins(context.Background(), store.PinFilter{})
	if err != nil {
		t.Fatalf("ListPins() error = %v", err)
	}
	if pins == nil || len(pins) != 0 {
		t.Errorf("ListPins() = %v, want empty non-nil slice", pins)
	}
}

func TestListEventsRange(t *testing.T) {
	s, mock := newMock(t, database.Postgres)
	from, to, _ := domain.MonthBounds(2024, 6)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE start_date IS NOT NULL AND start_date >= $1 AND start_date <= $2 ORDER BY start_date ASC`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(pinCols).
			AddRow("p2", nil, nil, "Fair", "", "Art", created, "v1", start, nil, nil))

	pins, err := s.ListEvents(context.Background(), &from, &to)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(pins) != 1 || domain.Classify(pins[0]) != domain.PinTypePermanentEvent {
		t.Errorf("ListEvents() = %+v", pins)
	}
}

func TestListPinsQueryError(t *testing.T) {
	s, mock := newMock(t, database.MySQL)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`FROM pins`).WillReturnError(boom)

	if _, err := s.ListPins(context.Background(), store.PinFilter{}); !errors.Is(err, boom) {
		t.Errorf("ListPins() error = %v, want wrapped %v", err, boom)
	}
}

func TestPageViews(t *testing.T) {
	s, mock := newMock(t, database.MySQL)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO page_views (id, ts, path, visitor_hash) VALUES (?, ?, ?, ?)`)).
		WithArgs("v1", created, "/", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, ts, path, visitor_hash FROM page_views ORDER BY ts ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ts", "path", "visitor_hash"}).
			AddRow("v1", created, "/", "hash"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM page_views WHERE ts < ?`)).
		WithArgs(created).
		WillReturnResult(sqlmock.NewResult(0, 4))

	if err := s.InsertPageView(ctx, domain.PageView{ID: "v1", Timestamp: created, Path: "/", VisitorHash: "hash"}); err != nil {
		t.Fatalf("InsertPageView() error = %v", err)
	}
	views, err := s.ListPageViews(ctx)
	if err != nil || len(views) != 1 || views[0].VisitorHash != "hash" {
		t.Fatalf("ListPageViews() = %+v, %v", views, err)
	}
	n, err := s.DeletePageViewsBefore(ctx, created)
	if err != nil || n != 4 {
		t.Errorf("DeletePageViewsBefore() = %d, %v; want 4", n, err)
	}
}

func TestGetSiteConfig(t *testing.T) {
	s, mock := newMock(t, database.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, site_name, theme, legend FROM site_config`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_name", "theme", "legend"}).
			AddRow("main", "Town Map",
				`{"primary_color":"#111111","background_color":"#ffffff","font":"Inter","dark_mode":true}`,
				`[{"name":"Art","color":"#ff0000","shape":"star"}]`))

	cfg, err := s.GetSiteConfig(context.Background())
	if err != nil {
		t.Fatalf("GetSiteConfig() error = %v", err)
	}
	if cfg.SiteName != "Town Map" || !cfg.Theme.DarkMode || len(cfg.Legend) != 1 || cfg.Legend[0].Shape != domain.ShapeStar {
		t.Errorf("GetSiteConfig() = %+v", cfg)
	}
}

func TestGetSiteConfigMissing(t *testing.T) {
	s, mock := newMock(t, database.MySQL)

	mock.ExpectQuery(`FROM site_config`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_name", "theme", "legend"}))

	if _, err := s.GetSiteConfig(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSiteConfig() error = %v, want ErrNotFound", err)
	}
}

func TestSaveSiteConfigUpsert(t *testing.T) {
	tests := []struct {
		dialect database.Dialect
		clause  string
	}{
		{database.Postgres, `ON CONFLICT (id) DO UPDATE SET`},
		{database.MySQL, `ON DUPLICATE KEY UPDATE`},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			s, mock := newMock(t, tt.dialect)
			cfg := domain.DefaultSiteConfig()

			mock.ExpectExec(regexp.QuoteMeta(tt.clause)).
				WithArgs(cfg.ID, cfg.SiteName, sqlmock.AnyArg(), `[{"name":"Default","color":"#3b82f6","shape":"circle"}]`, created).
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := s.SaveSiteConfig(context.Background(), cfg); err != nil {
				t.Fatalf("SaveSiteConfig() error = %v", err)
			}
		})
	}
}
