package database

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"postgres", Postgres, "SELECT * FROM pins WHERE id = ? AND category = ?", "SELECT * FROM pins WHERE id = $1 AND category = $2"},
		{"postgres without args", Postgres, "SELECT 1", "SELECT 1"},
		{"mysql untouched", MySQL, "DELETE FROM pins WHERE id = ?", "DELETE FROM pins WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.dialect, tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	for _, d := range []Dialect{Postgres, MySQL} {
		t.Run(string(d), func(t *testing.T) {
			stmts, err := Schema(d)
			if err != nil {
				t.Fatalf("Schema() error = %v", err)
			}
			joined := strings.Join(stmts, "\n")
			for _, table := range []string{"pins", "page_views", "site_config"} {
				if !strings.Contains(joined, "CREATE TABLE IF NOT EXISTS "+table) {
					t.Errorf("schema is missing table %s", table)
				}
			}
		})
	}

	if _, err := Schema("sqlite"); err == nil {
		t.Error("Schema(sqlite) should fail")
	}
}

func TestMigrate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer sqlDB.Close()

	stmts, _ := Schema(MySQL)
	for range stmts {
		mock.ExpectExec(regexp.QuoteMeta("CREATE")).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	db := New(sqlDB, MySQL)
	if err := db.Migrate(context.Background(), logger.NewNop()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "sqlite"}, logger.NewNop()); err == nil {
		t.Error("Open() with unknown driver should fail")
	}
}
