package sqldb

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLiteURL = "./postboard.db?_pragma=foreign_keys(1)"
)

//go:embed migrations
var migrations embed.FS

// Open connects to the database and brings its schema up to date.
func Open(driverName, dataSourceName string) (*sql.DB, error) {
	if driverName == DriverSQLite && dataSourceName == "" {
		dataSourceName = DefaultSQLiteURL
	}
	if driverName != DriverSQLite && driverName != DriverPostgres {
		return nil, errors.Errorf("unsupported database driver %q", driverName)
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := Migrate(db, driverName); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the embedded schema migrations for driverName. A schema that
// is already current is not an error.
func Migrate(db *sql.DB, driverName string) error {
	src, err := iofs.New(migrations, "migrations/"+driverName)
	if err != nil {
		return errors.Wrap(err, "loading migrations")
	}

	var driver database.Driver
	switch driverName {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return errors.Errorf("unsupported database driver %q", driverName)
	}
	if err != nil {
		return errors.Wrap(err, "preparing migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return errors.Wrap(err, "preparing migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}
