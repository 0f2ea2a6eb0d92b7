// Package postgres provides a PostgreSQL-backed aggregate.Store.
//
// Records live in one table keyed by (collection, account_id); Put is an
// upsert and nothing is ever deleted. The schema is managed with
// golang-migrate from migrations embedded in this package.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/warp/pnl-ledger/aggregate"
	"github.com/warp/pnl-ledger/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	selectRecordSQL = `
		SELECT value
		FROM records
		WHERE collection = $1 AND account_id = $2
	`

	upsertRecordSQL = `
		INSERT INTO records (collection, account_id, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, account_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
)

// Store implements aggregate.Store over a *sql.DB.
type Store struct {
	db         *sql.DB
	collection string
}

// New wraps an open database. The records table must already exist.
func New(db *sql.DB, collection string) *Store {
	if collection == "" {
		collection = aggregate.DefaultCollection
	}
	return &Store{db: db, collection: collection}
}

// Open connects to dsn, optionally runs migrations, and returns a Store.
func Open(ctx context.Context, dsn, collection string, autoMigrate bool, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := Migrate(db, autoMigrate, log); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, collection), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, account aggregate.AccountID) (aggregate.Record, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectRecordSQL, s.collection, string(account)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load record: %w", err)
	}
	return aggregate.Record(value), true, nil
}

func (s *Store) Put(ctx context.Context, account aggregate.AccountID, rec aggregate.Record) error {
	if _, err := s.db.ExecContext(ctx, upsertRecordSQL, s.collection, string(account), string(rec)); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date. With autoMigrate false it only
// reports the current version.
func Migrate(db *sql.DB, autoMigrate bool, log *logger.Logger) error {
	sourceDriver, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return apply(m, autoMigrate, log)
}

// migrator is the part of *migrate.Migrate that apply drives.
type migrator interface {
	Version() (version uint, dirty bool, err error)
	Up() error
}

func apply(m migrator, autoMigrate bool, log *logger.Logger) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at migration version %d", version)
	}
	if !autoMigrate {
		log.Info("auto-migration disabled", "current_version", version)
		return nil
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations applied", "from_version", version)
	return nil
}

var (
	_ aggregate.Store = (*Store)(nil)
	_ migrator        = (*migrate.Migrate)(nil)
)
