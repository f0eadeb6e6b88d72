package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Log actions written by the operation state machine.
const (
	ActionOperationStarted   = "operation_started"
	ActionOperationPaused    = "operation_paused"
	ActionOperationCompleted = "operation_completed"
	ActionOperationCancelled = "operation_cancelled"
	ActionOperationProblem   = "operation_problem"
	ActionOrderRepaired      = "order_repaired"
)

// ProductionLog is an append-only audit entry. There is no update or delete.
type ProductionLog struct {
	ID                int64     `json:"id"`
	ProductionOrderID int64     `json:"production_order_id"`
	OperationID       *int64    `json:"operation_id,omitempty"`
	Action            string    `json:"action"`
	PreviousStatus    string    `json:"previous_status"`
	NewStatus         string    `json:"new_status"`
	UserID            string    `json:"user_id"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
}

func (db *DB) InsertProductionLog(l *ProductionLog) error {
	now := db.Now()
	id, err := db.insert(db.DB, `INSERT INTO production_logs (production_order_id, operation_id, action, previous_status, new_status, user_id, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ProductionOrderID, nullInt64(l.OperationID), l.Action, l.PreviousStatus, l.NewStatus, l.UserID, l.Notes, db.ts(now))
	if err != nil {
		return fmt.Errorf("insert production log: %w", err)
	}
	l.ID = id
	l.CreatedAt = now
	return nil
}

func (db *DB) ListProductionLogs(orderID int64) ([]*ProductionLog, error) {
	rows, err := db.Query(db.Q(`SELECT id, production_order_id, operation_id, action, previous_status, new_status, user_id, notes, created_at FROM production_logs WHERE production_order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []*ProductionLog
	for rows.Next() {
		var l ProductionLog
		var opID sql.NullInt64
		var createdAt any
		if err := rows.Scan(&l.ID, &l.ProductionOrderID, &opID, &l.Action, &l.PreviousStatus, &l.NewStatus, &l.UserID, &l.Notes, &createdAt); err != nil {
			return nil, err
		}
		if opID.Valid {
			l.OperationID = &opID.Int64
		}
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
