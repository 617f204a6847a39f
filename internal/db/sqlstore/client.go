// Package sqlstore implements db.Client on top of sqlx for SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rottengram/rottenshield/resources"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Client struct {
	db     *sqlx.DB
	driver string
	mutex  sync.RWMutex
	logger *log.Entry
}

// Open connects without touching the schema.
func Open(ctx context.Context, driver, dsn string) (*Client, error) {
	var source string
	switch driver {
	case DriverSQLite:
		source = dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case DriverPostgres:
		source = dsn
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	dbx, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		dbx.SetMaxOpenConns(1)
	} else {
		dbx.SetMaxOpenConns(16)
	}

	return &Client{
		db:     dbx,
		driver: driver,
		logger: log.WithFields(log.Fields{"object": "SQLStore", "driver": driver}),
	}, nil
}

// New opens the database and applies pending migrations.
func New(ctx context.Context, driver, dsn string) (*Client, error) {
	c, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := c.Migrate(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) migrationSource() (*migrate.EmbedFileSystemMigrationSource, string) {
	if c.driver == DriverPostgres {
		return &migrate.EmbedFileSystemMigrationSource{FileSystem: resources.FS, Root: "migrations/postgres"}, "postgres"
	}
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: resources.FS, Root: "migrations/sqlite"}, "sqlite3"
}

// Migrate applies pending up migrations and returns how many ran.
func (c *Client) Migrate() (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	source, dialect := c.migrationSource()
	if _, _, err := migrate.PlanMigration(c.db.DB, dialect, source, migrate.Up, 0); err != nil {
		return 0, fmt.Errorf("plan migrations: %w", err)
	}
	n, err := migrate.Exec(c.db.DB, dialect, source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	if n > 0 {
		c.logger.Infof("applied %d migrations", n)
	}
	return n, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
