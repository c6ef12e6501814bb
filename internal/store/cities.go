package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// LookupCity returns the identifier for name without creating it.
func (s *SQLiteStore) LookupCity(ctx context.Context, name string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cities WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("lookup city", err)
	}
	return id, true, nil
}

// ResolveCity returns the identifier for name, inserting the city on first
// sight. Insert and select share one transaction so the name is never mapped
// to two identifiers.
func (s *SQLiteStore) ResolveCity(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, weather.ErrEmptyCityName
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("resolve city: begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cities (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, formatTime(s.now()),
	)
	if err != nil {
		return 0, storageErr("resolve city: insert", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM cities WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, storageErr("resolve city: select", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("resolve city: commit", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("city registered", "city", name, "id", id)
	}
	return id, nil
}

// Cities lists every known city in discovery order.
func (s *SQLiteStore) Cities(ctx context.Context) ([]weather.City, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM cities ORDER BY id`)
	if err != nil {
		return nil, storageErr("list cities", err)
	}
	defer rows.Close()

	cities := []weather.City{}
	for rows.Next() {
		var c weather.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr("list cities: scan", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list cities", err)
	}
	return cities, nil
}
