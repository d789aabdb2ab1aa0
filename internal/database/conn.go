package database

import (
	"context"
	"database/sql"
	"strings"

	// Drivers are selected by connection-string shape; both are linked in.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names as registered with database/sql.
const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// resolveDriver picks a database/sql driver for the connection string and
// normalizes it for that driver. Postgres URLs and keyword DSNs pass through
// unchanged; everything else is treated as a SQLite path, with an optional
// sqlite:// scheme stripped.
func resolveDriver(connString string) (driver, dsn string) {
	lowered := strings.ToLower(connString)
	switch {
	case strings.HasPrefix(lowered, "postgres://"),
		strings.HasPrefix(lowered, "postgresql://"),
		strings.Contains(lowered, "host="):
		return driverPostgres, connString
	case strings.HasPrefix(lowered, "sqlite:///"):
		return driverSQLite, connString[len("sqlite:///"):]
	case strings.HasPrefix(lowered, "sqlite://"):
		return driverSQLite, connString[len("sqlite://"):]
	default:
		return driverSQLite, connString
	}
}

// open validates the connection string, opens the database, and verifies
// reachability with a ping. Callers must close the returned handle.
func open(ctx context.Context, connString string) (*sql.DB, string, error) {
	if strings.TrimSpace(connString) == "" {
		return nil, "", ErrEmptyConnection
	}
	driver, dsn := resolveDriver(connString)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", &ConnectionError{Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", &ConnectionError{Err: err}
	}
	return db, driver, nil
}
