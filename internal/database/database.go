// Package database opens the SQL connection pool for the configured dialect
// and applies the embedded schema.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/utils"
)

// Dialect names a supported SQL flavor.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Options configures the connection pool.
type Options struct {
	Driver          Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retry           utils.Backoff
}

// DB is a connection pool that knows its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New wraps an existing pool. Used by tests with sqlmock.
func New(db *sql.DB, d Dialect) *DB {
	return &DB{DB: db, Dialect: d}
}

// Open creates the pool and waits until the database answers.
func Open(ctx context.Context, opts Options, log logger.Logger) (*DB, error) {
	var (
		db   *sql.DB
		addr string
	)

	switch opts.Driver {
	case Postgres:
		cfg, err := pgx.ParseConfig(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres dsn: %w", err)
		}
		addr = cfg.Host + ":" + strconv.Itoa(int(cfg.Port))
		db = stdlib.OpenDB(*cfg)

	case MySQL:
		cfg, err := mysql.ParseDSN(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// DATETIME -> time.Time, always read and written as UTC
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		addr = cfg.Addr
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql config: %w", err)
		}
		db = sql.OpenDB(connector)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := utils.WaitFor(ctx, string(opts.Driver), addr, opts.Retry, log, db.PingContext); err != nil {
		utils.Close(db)
		return nil, err
	}
	return &DB{DB: db, Dialect: opts.Driver}, nil
}

// Rebind rewrites "?" placeholders to the dialect's syntax ($1, $2... for postgres).
// Queries must not contain literal question marks.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind is the dialect-level form of DB.Rebind.
func Rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context, log logger.Logger) error {
	stmts, err := Schema(db.Dialect)
	if err != nil {
		return err
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	log.Info("database schema applied",
		logger.String("dialect", string(db.Dialect)),
		logger.Int("statements", len(stmts)))
	return nil
}

// Schema returns the schema statements of a dialect.
func Schema(d Dialect) ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no schema for dialect %q: %w", d, err)
	}

	var stmts []string
	for _, part := range strings.Split(string(raw), ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}
