package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Order lifecycle statuses, shared by work orders and production orders.
const (
	OrderPlanned    = "planned"
	OrderApproved   = "approved"
	OrderInProgress = "in_progress"
	OrderPaused     = "paused"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// IsTerminalOrderStatus reports whether no further transition applies.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderCompleted || status == OrderCancelled
}

type WorkOrder struct {
	ID            int64     `json:"id"`
	SourceOrderID string    `json:"source_order_id"`
	RoomID        *int64    `json:"room_id,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const workOrderSelectCols = `id, source_order_id, room_id, status, created_at, updated_at`

func scanWorkOrder(row interface{ Scan(...any) error }) (*WorkOrder, error) {
	var w WorkOrder
	var roomID sql.NullInt64
	var createdAt, updatedAt any
	if err := row.Scan(&w.ID, &w.SourceOrderID, &roomID, &w.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if roomID.Valid {
		w.RoomID = &roomID.Int64
	}
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return &w, nil
}

func (db *DB) CreateWorkOrder(w *WorkOrder) error {
	if w.Status == "" {
		w.Status = OrderPlanned
	}
	now := db.Now()
	id, err := db.insert(db.DB, `INSERT INTO work_orders (source_order_id, room_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		w.SourceOrderID, nullInt64(w.RoomID), w.Status, db.ts(now), db.ts(now))
	if err != nil {
		return fmt.Errorf("create work order: %w", err)
	}
	w.ID = id
	w.CreatedAt, w.UpdatedAt = now, now
	return nil
}

func (db *DB) GetWorkOrder(id int64) (*WorkOrder, error) {
	return scanWorkOrder(db.QueryRow(db.Q(`SELECT `+workOrderSelectCols+` FROM work_orders WHERE id=?`), id))
}

func (db *DB) ListWorkOrdersBySource(sourceOrderID string) ([]*WorkOrder, error) {
	rows, err := db.Query(db.Q(`SELECT `+workOrderSelectCols+` FROM work_orders WHERE source_order_id=? ORDER BY id`), sourceOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWorkOrderStatus moves a work order from one status to another.
// It reports false when the stored status no longer equals from.
func (db *DB) UpdateWorkOrderStatus(id int64, from, to string) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE work_orders SET status=?, updated_at=? WHERE id=? AND status=?`),
		to, db.ts(db.Now()), id, from)
	if err != nil {
		return false, fmt.Errorf("update work order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
