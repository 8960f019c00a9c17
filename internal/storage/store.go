// Package storage implements the key-value capability on top of a SQL table,
// with SQLite, Postgres and MySQL dialects.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

func (d Dialect) driverName() string {
	return string(d)
}

// SQLStore keeps one row per key in kv_entries.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	getSQL  string
	setSQL  string
}

// OpenSQLite creates the parent directory of dbPath if needed, opens the
// database and brings its schema up to date.
func OpenSQLite(dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

// OpenPostgres opens a Postgres database from a lib/pq connection string.
func OpenPostgres(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("missing postgres dsn")
	}
	return open(DialectPostgres, dsn)
}

// OpenMySQL opens a MySQL database from a go-sql-driver DSN such as
// user:pass@tcp(host:3306)/spendlog.
func OpenMySQL(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("missing mysql dsn")
	}
	return open(DialectMySQL, dsn)
}

func open(dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dialect == DialectSQLite {
		// one writer at a time; avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	switch dialect {
	case DialectPostgres:
		s.getSQL = `SELECT value FROM kv_entries WHERE key = $1`
		s.setSQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	case DialectMySQL:
		// key is reserved in MySQL
		s.getSQL = "SELECT value FROM kv_entries WHERE `key` = ?"
		s.setSQL = "INSERT INTO kv_entries (`key`, value, updated_at) VALUES (?, ?, ?)\n" +
			"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"
	default:
		s.getSQL = `SELECT value FROM kv_entries WHERE key = ?`
		s.setSQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	}
	return s, nil
}

func (s *SQLStore) Dialect() Dialect { return s.dialect }

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.getSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.setSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
