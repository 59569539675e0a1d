package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"grimoire/internal/platform/config"
)

// New opens the application database. The handle is constructed once at
// process start and injected into every repository; there is no ambient
// global connection.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
