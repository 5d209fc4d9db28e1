// Package catalog stores the municipal service registry: complaint
// categories, responsible services, buildings, and the assignments that
// bind buildings to their ОСББ or managing company.
//
// The registry is a local SQLite database, one file per deployment.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("catalog: not found")

// Catalog provides access to the municipal service registry.
type Catalog struct {
	db     *sql.DB
	logger *zap.Logger
	city   string
}

// Config holds catalog configuration.
type Config struct {
	// Path is the SQLite database file path. "~" expands to the home
	// directory.
	Path string

	// City is the municipality name used in synthesized fallbacks.
	// Default: "Львів"
	City string
}

// New opens (creating if needed) the registry database at cfg.Path.
func New(cfg Config, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.City == "" {
		cfg.City = "Львів"
	}

	path, err := expandPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding catalog path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, logger: logger, city: cfg.City}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("catalog opened",
		zap.String("path", path),
		zap.String("city", cfg.City),
	)

	return c, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// migrate creates the schema.
func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		category_id TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(name, service_type)
	);
	CREATE INDEX IF NOT EXISTS idx_services_type ON services(service_type);
	CREATE INDEX IF NOT EXISTS idx_services_category ON services(category_id);

	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		street TEXT NOT NULL,
		number TEXT NOT NULL,
		district TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(street, number)
	);
	CREATE INDEX IF NOT EXISTS idx_buildings_street ON buildings(street);

	CREATE TABLE IF NOT EXISTS service_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		building_id INTEGER NOT NULL REFERENCES buildings(id),
		service_id INTEGER NOT NULL REFERENCES services(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(building_id, service_id)
	);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating catalog schema: %w", err)
	}
	return nil
}

// Ping checks database availability.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// City returns the configured municipality name.
func (c *Catalog) City() string {
	return c.city
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
