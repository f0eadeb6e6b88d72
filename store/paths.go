package store

import (
	"fmt"
	"time"
)

// ProductionPath maps a path code to the ordered operation types it expands to.
type ProductionPath struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Version    int       `json:"version"`
	Operations []string  `json:"operations"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const pathSelectCols = `id, code, name, version, operations, is_active, created_at, updated_at`

func scanPath(row interface{ Scan(...any) error }) (*ProductionPath, error) {
	var p ProductionPath
	var ops, createdAt, updatedAt any
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Version, &ops, &p.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Operations = decodeStrings(ops)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (db *DB) CreatePath(p *ProductionPath) error {
	if p.Version == 0 {
		p.Version = 1
	}
	now := db.Now()
	id, err := db.insert(db.DB, `INSERT INTO production_paths (code, name, version, operations, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Version, encodeStrings(p.Operations), p.IsActive, db.ts(now), db.ts(now))
	if err != nil {
		return fmt.Errorf("create path %s: %w", p.Code, err)
	}
	p.ID = id
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// UpdatePath replaces a path's definition and bumps its version.
func (db *DB) UpdatePath(p *ProductionPath) error {
	_, err := db.Exec(db.Q(`UPDATE production_paths SET name=?, operations=?, is_active=?, version=version+1, updated_at=? WHERE id=?`),
		p.Name, encodeStrings(p.Operations), p.IsActive, db.ts(db.Now()), p.ID)
	if err != nil {
		return fmt.Errorf("update path %d: %w", p.ID, err)
	}
	return nil
}

func (db *DB) SetPathActive(id int64, active bool) error {
	_, err := db.Exec(db.Q(`UPDATE production_paths SET is_active=?, updated_at=? WHERE id=?`), active, db.ts(db.Now()), id)
	return err
}

func (db *DB) GetPathByCode(code string) (*ProductionPath, error) {
	return scanPath(db.QueryRow(db.Q(`SELECT `+pathSelectCols+` FROM production_paths WHERE code=?`), code))
}

func (db *DB) ListPaths() ([]*ProductionPath, error) {
	return db.queryPaths(`SELECT ` + pathSelectCols + ` FROM production_paths ORDER BY code`)
}

func (db *DB) ListActivePaths() ([]*ProductionPath, error) {
	return db.queryPaths(`SELECT `+pathSelectCols+` FROM production_paths WHERE is_active=? ORDER BY code`, true)
}

func (db *DB) queryPaths(query string, args ...any) ([]*ProductionPath, error) {
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []*ProductionPath
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
