package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Dialect selects the schema and pool settings for a driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectFor maps a database/sql driver name to its dialect.
// "sqlite3" is mattn/go-sqlite3, "sqlite" is modernc.org/sqlite.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driverName)
	}
}

func Connect(driverName, dsn string) (*sql.DB, error) {
	dialect, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite && isSQLiteFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	switch dialect {
	case DialectSQLite:
		// SQLite works best with a single writer; one connection also keeps
		// a :memory: database alive for the lifetime of the pool.
		db.SetMaxOpenConns(1)
		if isSQLiteFilePath(dsn) {
			if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
			}
		}
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	return db, nil
}

// plain paths only; URI DSNs ("file:...") and :memory: are left to the driver
func isSQLiteFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
