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
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration in migrations/ to db, in
// the style the teacher's libs/database.ConnectWithMigrations calls out to
// (that package names the function without shipping it; this is that
// implementation, backed by golang-migrate rather than hand-rolled DDL).
func RunMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("postgres: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("postgres: init migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: apply migrations: %w", err)
	}
	return nil
}

// ConnectWithMigrations connects and applies every pending migration
// before returning, mirroring the teacher's
// libs/database.ConnectWithMigrations helper.
func ConnectWithMigrations(ctx context.Context, cfg Config) (*Store, error) {
	st, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(st.db); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
