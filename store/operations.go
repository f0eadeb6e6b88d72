package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Operation statuses.
const (
	OpPending   = "pending"
	OpActive    = "active"
	OpPaused    = "paused"
	OpCompleted = "completed"
	OpCancelled = "cancelled"
)

// IsTerminalOpStatus reports whether an operation status accepts no further transition.
func IsTerminalOpStatus(status string) bool {
	return status == OpCompleted || status == OpCancelled
}

type Operation struct {
	ID                int64      `json:"id"`
	ProductionOrderID int64      `json:"production_order_id"`
	Sequence          int        `json:"sequence"`
	PathCode          string     `json:"path_code"`
	OperationType     string     `json:"operation_type"`
	Status            string     `json:"status"`
	OperatorID        string     `json:"operator_id"`
	WorkStationID     *int64     `json:"work_station_id,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	ActualTime        int        `json:"actual_time"`
	OutputQuantity    int        `json:"output_quantity"`
	ProblemNote       string     `json:"problem_note,omitempty"`
	Revision          int64      `json:"revision"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

const operationSelectCols = `id, production_order_id, sequence, path_code, operation_type, status, operator_id, work_station_id, start_time, end_time, actual_time, output_quantity, problem_note, revision, created_at, updated_at`

func scanOperation(row interface{ Scan(...any) error }) (*Operation, error) {
	var op Operation
	var stationID sql.NullInt64
	var startTime, endTime, createdAt, updatedAt any
	err := row.Scan(&op.ID, &op.ProductionOrderID, &op.Sequence, &op.PathCode, &op.OperationType,
		&op.Status, &op.OperatorID, &stationID, &startTime, &endTime,
		&op.ActualTime, &op.OutputQuantity, &op.ProblemNote, &op.Revision, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if stationID.Valid {
		op.WorkStationID = &stationID.Int64
	}
	op.StartTime = parseTimePtr(startTime)
	op.EndTime = parseTimePtr(endTime)
	op.CreatedAt = parseTime(createdAt)
	op.UpdatedAt = parseTime(updatedAt)
	return &op, nil
}

func scanOperations(rows *sql.Rows) ([]*Operation, error) {
	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (db *DB) createOperation(ex execer, op *Operation, now time.Time) error {
	if op.Status == "" {
		op.Status = OpPending
	}
	id, err := db.insert(ex, `INSERT INTO production_operations (production_order_id, sequence, path_code, operation_type, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.ProductionOrderID, op.Sequence, op.PathCode, op.OperationType, op.Status, db.ts(now), db.ts(now))
	if err != nil {
		return fmt.Errorf("create operation: %w", err)
	}
	op.ID = id
	op.CreatedAt, op.UpdatedAt = now, now
	return nil
}

// CreateOperation appends a single operation to an existing order.
func (db *DB) CreateOperation(op *Operation) error {
	return db.createOperation(db.DB, op, db.Now())
}

func (db *DB) GetOperation(id int64) (*Operation, error) {
	return scanOperation(db.QueryRow(db.Q(`SELECT `+operationSelectCols+` FROM production_operations WHERE id=?`), id))
}

func (db *DB) ListOperationsByOrder(orderID int64) ([]*Operation, error) {
	rows, err := db.Query(db.Q(`SELECT `+operationSelectCols+` FROM production_operations WHERE production_order_id=? ORDER BY sequence, id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperations(rows)
}

func (db *DB) ListOperationsByWorkOrder(workOrderID int64) ([]*Operation, error) {
	rows, err := db.Query(db.Q(`SELECT `+prefixCols("op", operationSelectCols)+` FROM production_operations op JOIN production_orders po ON po.id = op.production_order_id WHERE po.work_order_id=? ORDER BY op.id`), workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperations(rows)
}

func (db *DB) ListOperationsBySource(sourceOrderID string) ([]*Operation, error) {
	rows, err := db.Query(db.Q(`SELECT `+prefixCols("op", operationSelectCols)+` FROM production_operations op JOIN production_orders po ON po.id = op.production_order_id WHERE po.source_order_id=? ORDER BY op.id`), sourceOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOperations(rows)
}

// guardedOperationUpdate applies set only while the row still has the
// revision the caller read and a status in from. A false result means the
// operation moved underneath the caller.
func (db *DB) guardedOperationUpdate(op *Operation, from []string, at time.Time, set string, args ...any) (bool, error) {
	query := `UPDATE production_operations SET ` + set + `, revision=revision+1, updated_at=? WHERE id=? AND revision=? AND status IN ` + inClause(len(from))
	args = append(args, db.ts(at), op.ID, op.Revision)
	for _, s := range from {
		args = append(args, s)
	}
	res, err := db.Exec(db.Q(query), args...)
	if err != nil {
		return false, fmt.Errorf("update operation %d: %w", op.ID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// StartOperation moves a pending or paused operation to active with a fresh
// start time. A nil station keeps the current one.
func (db *DB) StartOperation(op *Operation, operatorID string, stationID *int64, at time.Time) (bool, error) {
	return db.guardedOperationUpdate(op, []string{OpPending, OpPaused}, at,
		`status=?, operator_id=?, work_station_id=COALESCE(?, work_station_id), start_time=?`,
		OpActive, operatorID, nullInt64(stationID), db.ts(at))
}

// PauseOperation moves an active operation to paused, adding elapsed minutes.
func (db *DB) PauseOperation(op *Operation, elapsedMinutes int, at time.Time) (bool, error) {
	return db.guardedOperationUpdate(op, []string{OpActive}, at,
		`status=?, actual_time=actual_time+?`,
		OpPaused, elapsedMinutes)
}

// CompleteOperation finishes an active or paused operation.
func (db *DB) CompleteOperation(op *Operation, elapsedMinutes, quantity int, at time.Time) (bool, error) {
	return db.guardedOperationUpdate(op, []string{OpActive, OpPaused}, at,
		`status=?, actual_time=actual_time+?, output_quantity=?, end_time=?`,
		OpCompleted, elapsedMinutes, quantity, db.ts(at))
}

// CancelOperation terminates a non-terminal operation.
func (db *DB) CancelOperation(op *Operation, elapsedMinutes int, at time.Time) (bool, error) {
	return db.guardedOperationUpdate(op, []string{OpPending, OpActive, OpPaused}, at,
		`status=?, actual_time=actual_time+?, end_time=?`,
		OpCancelled, elapsedMinutes, db.ts(at))
}

// SetOperationProblem records a problem note on a non-terminal operation
// without touching its status or revision.
func (db *DB) SetOperationProblem(id int64, note string) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE production_operations SET problem_note=?, updated_at=? WHERE id=? AND status IN (?, ?, ?)`),
		note, db.ts(db.Now()), id, OpPending, OpActive, OpPaused)
	if err != nil {
		return false, fmt.Errorf("set problem on operation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
