package store

import (
	"fmt"
	"time"
)

// ProductAssignment allows a product on a restricted work station.
type ProductAssignment struct {
	ID            int64     `json:"id"`
	WorkStationID int64     `json:"work_station_id"`
	ProductID     string    `json:"product_id"`
	AssignedBy    string    `json:"assigned_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssignProduct is idempotent; an existing assignment is left as is.
func (db *DB) AssignProduct(stationID int64, productID, assignedBy string) error {
	_, err := db.Exec(db.Q(`INSERT INTO machine_product_assignments (work_station_id, product_id, assigned_by, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (work_station_id, product_id) DO NOTHING`),
		stationID, productID, assignedBy, db.ts(db.Now()))
	if err != nil {
		return fmt.Errorf("assign product %s to station %d: %w", productID, stationID, err)
	}
	return nil
}

func (db *DB) UnassignProduct(stationID int64, productID string) (bool, error) {
	res, err := db.Exec(db.Q(`DELETE FROM machine_product_assignments WHERE work_station_id=? AND product_id=?`), stationID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) IsProductAssigned(stationID int64, productID string) (bool, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM machine_product_assignments WHERE work_station_id=? AND product_id=?`), stationID, productID).Scan(&n)
	return n > 0, err
}

func (db *DB) ListProductAssignments(stationID int64) ([]*ProductAssignment, error) {
	rows, err := db.Query(db.Q(`SELECT id, work_station_id, product_id, assigned_by, created_at FROM machine_product_assignments WHERE work_station_id=? ORDER BY product_id`), stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ProductAssignment
	for rows.Next() {
		var a ProductAssignment
		var createdAt any
		if err := rows.Scan(&a.ID, &a.WorkStationID, &a.ProductID, &a.AssignedBy, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, &a)
	}
	return out, rows.Err()
}
