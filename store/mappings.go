package store

import (
	"fmt"
	"strings"
	"time"
)

// PathMapping declares that a work center can execute a path code.
type PathMapping struct {
	ID           int64     `json:"id"`
	WorkCenterID int64     `json:"work_center_id"`
	PathCode     string    `json:"path_code"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpsertPathMapping creates the mapping or reactivates a deactivated one.
func (db *DB) UpsertPathMapping(workCenterID int64, pathCode string) (*PathMapping, error) {
	_, err := db.Exec(db.Q(`INSERT INTO work_center_path_mappings (work_center_id, path_code, is_active, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (work_center_id, path_code) DO UPDATE SET is_active = excluded.is_active`),
		workCenterID, pathCode, true, db.ts(db.Now()))
	if err != nil {
		return nil, fmt.Errorf("upsert path mapping %d/%s: %w", workCenterID, pathCode, err)
	}
	var m PathMapping
	var createdAt any
	err = db.QueryRow(db.Q(`SELECT id, work_center_id, path_code, is_active, created_at FROM work_center_path_mappings WHERE work_center_id=? AND path_code=?`), workCenterID, pathCode).
		Scan(&m.ID, &m.WorkCenterID, &m.PathCode, &m.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// DeactivatePathMapping reports false when no active mapping matched.
func (db *DB) DeactivatePathMapping(workCenterID int64, pathCode string) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE work_center_path_mappings SET is_active=? WHERE work_center_id=? AND path_code=? AND is_active=?`),
		false, workCenterID, pathCode, true)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) ListPathMappings(workCenterID int64) ([]*PathMapping, error) {
	rows, err := db.Query(db.Q(`SELECT id, work_center_id, path_code, is_active, created_at FROM work_center_path_mappings WHERE work_center_id=? AND is_active=? ORDER BY path_code`), workCenterID, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*PathMapping
	for rows.Next() {
		var m PathMapping
		var createdAt any
		if err := rows.Scan(&m.ID, &m.WorkCenterID, &m.PathCode, &m.IsActive, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ListMappedCodesForRoom returns the distinct active path codes mapped to
// the room's active work centers.
func (db *DB) ListMappedCodesForRoom(roomID int64) ([]string, error) {
	return db.queryStrings(`SELECT DISTINCT m.path_code FROM work_center_path_mappings m JOIN work_centers wc ON wc.id = m.work_center_id WHERE wc.room_id=? AND wc.is_active=? AND m.is_active=? ORDER BY m.path_code`,
		roomID, true, true)
}

// ListMappedCodes returns every distinct active mapped path code.
func (db *DB) ListMappedCodes() ([]string, error) {
	return db.queryStrings(`SELECT DISTINCT path_code FROM work_center_path_mappings WHERE is_active=? ORDER BY path_code`, true)
}

func (db *DB) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, rows.Err()
}
