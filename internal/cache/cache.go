// Package cache mirrors the Firestore directory into a local SQLite file so
// the admin CLI can search and export offline.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const pulledAtKey = "pulled_at"

type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path and applies the schema.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ReplaceEmployees swaps the cached employees for list in one transaction.
func (c *Cache) ReplaceEmployees(ctx context.Context, list []models.Employee) error {
	return c.replace(ctx, "employees", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO employees (kgid, name, district, station, rank, data) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range list {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode employee %s: %w", e.Kgid, err)
			}
			if _, err := stmt.ExecContext(ctx, e.Kgid, e.Name, e.District, e.Station, e.Rank, string(data)); err != nil {
				return fmt.Errorf("failed to insert employee %s: %w", e.Kgid, err)
			}
		}
		return nil
	})
}

// ReplaceOfficers swaps the cached officers for list in one transaction.
func (c *Cache) ReplaceOfficers(ctx context.Context, list []models.Officer) error {
	return c.replace(ctx, "officers", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO officers (agid, name, data) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range list {
			data, err := json.Marshal(o)
			if err != nil {
				return fmt.Errorf("failed to encode officer %s: %w", o.Agid, err)
			}
			if _, err := stmt.ExecContext(ctx, o.Agid, o.Name, string(data)); err != nil {
				return fmt.Errorf("failed to insert officer %s: %w", o.Agid, err)
			}
		}
		return nil
	})
}

func (c *Cache) replace(ctx context.Context, table string, fill func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, pulledAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record pull time: %w", err)
	}
	return tx.Commit()
}

// Employees returns every cached employee ordered by name.
func (c *Cache) Employees(ctx context.Context) ([]models.Employee, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT data FROM employees ORDER BY name, kgid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	return scanJSON[models.Employee](rows)
}

// Officers returns every cached officer ordered by name.
func (c *Cache) Officers(ctx context.Context) ([]models.Officer, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT data FROM officers ORDER BY name, agid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query officers: %w", err)
	}
	return scanJSON[models.Officer](rows)
}

// PulledAt reports when the cache was last refreshed; zero if never.
func (c *Cache) PulledAt(ctx context.Context) (time.Time, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, pulledAtKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read pull time: %w", err)
	}
	return time.Parse(time.RFC3339, v)
}

func scanJSON[T any](rows *sql.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
