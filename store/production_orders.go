package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ProductionOrder is one executed branch of a source sales order.
type ProductionOrder struct {
	ID                int64      `json:"id"`
	SourceOrderID     string     `json:"source_order_id"`
	SourceItemID      string     `json:"source_item_id"`
	ProductID         string     `json:"product_id"`
	ProductCode       string     `json:"product_code"`
	WorkOrderID       *int64     `json:"work_order_id,omitempty"`
	PathExpression    string     `json:"path_expression"`
	BranchCode        *string    `json:"branch_code"`
	BranchPathCodes   []string   `json:"branch_path_codes"`
	Status            string     `json:"status"`
	Quantity          int        `json:"quantity"`
	CompletedQuantity int        `json:"completed_quantity"`
	Priority          int        `json:"priority"`
	EstimatedMinutes  int        `json:"estimated_minutes"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	ActualStartDate   *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate     *time.Time `json:"actual_end_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

const productionOrderSelectCols = `id, source_order_id, source_item_id, product_id, product_code, work_order_id, path_expression, branch_code, branch_path_codes, status, quantity, completed_quantity, priority, estimated_minutes, delivery_date, actual_start_date, actual_end_date, created_at, updated_at`

func scanProductionOrder(row interface{ Scan(...any) error }) (*ProductionOrder, error) {
	var o ProductionOrder
	var workOrderID sql.NullInt64
	var branchCode sql.NullString
	var pathCodes, deliveryDate, startDate, endDate, createdAt, updatedAt any
	err := row.Scan(&o.ID, &o.SourceOrderID, &o.SourceItemID, &o.ProductID, &o.ProductCode,
		&workOrderID, &o.PathExpression, &branchCode, &pathCodes, &o.Status,
		&o.Quantity, &o.CompletedQuantity, &o.Priority, &o.EstimatedMinutes,
		&deliveryDate, &startDate, &endDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if workOrderID.Valid {
		o.WorkOrderID = &workOrderID.Int64
	}
	if branchCode.Valid {
		o.BranchCode = &branchCode.String
	}
	o.BranchPathCodes = decodeStrings(pathCodes)
	o.DeliveryDate = parseTimePtr(deliveryDate)
	o.ActualStartDate = parseTimePtr(startDate)
	o.ActualEndDate = parseTimePtr(endDate)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func scanProductionOrders(rows *sql.Rows) ([]*ProductionOrder, error) {
	var orders []*ProductionOrder
	for rows.Next() {
		o, err := scanProductionOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *DB) createProductionOrder(ex execer, o *ProductionOrder, now time.Time) error {
	if o.Status == "" {
		o.Status = OrderPlanned
	}
	var branch any
	if o.BranchCode != nil {
		branch = *o.BranchCode
	}
	id, err := db.insert(ex, `INSERT INTO production_orders (source_order_id, source_item_id, product_id, product_code, work_order_id, path_expression, branch_code, branch_path_codes, status, quantity, completed_quantity, priority, estimated_minutes, delivery_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.SourceOrderID, o.SourceItemID, o.ProductID, o.ProductCode, nullInt64(o.WorkOrderID),
		o.PathExpression, branch, encodeStrings(o.BranchPathCodes), o.Status,
		o.Quantity, o.CompletedQuantity, o.Priority, o.EstimatedMinutes,
		db.tsPtr(o.DeliveryDate), db.ts(now), db.ts(now))
	if err != nil {
		return fmt.Errorf("create production order: %w", err)
	}
	o.ID = id
	o.CreatedAt, o.UpdatedAt = now, now
	return nil
}

func (db *DB) CreateProductionOrder(o *ProductionOrder) error {
	return db.createProductionOrder(db.DB, o, db.Now())
}

// CreateProductionOrderWithOperations inserts the order and its expanded
// operations atomically. Operation ids and order ids are filled in place.
func (db *DB) CreateProductionOrderWithOperations(o *ProductionOrder, ops []*Operation) error {
	now := db.Now()
	return db.withTx(func(tx *sql.Tx) error {
		if err := db.createProductionOrder(tx, o, now); err != nil {
			return err
		}
		for _, op := range ops {
			op.ProductionOrderID = o.ID
			if err := db.createOperation(tx, op, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) GetProductionOrder(id int64) (*ProductionOrder, error) {
	return scanProductionOrder(db.QueryRow(db.Q(`SELECT `+productionOrderSelectCols+` FROM production_orders WHERE id=?`), id))
}

func (db *DB) ListProductionOrdersBySource(sourceOrderID string) ([]*ProductionOrder, error) {
	rows, err := db.Query(db.Q(`SELECT `+productionOrderSelectCols+` FROM production_orders WHERE source_order_id=? ORDER BY id`), sourceOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

func (db *DB) ListProductionOrdersByWorkOrder(workOrderID int64) ([]*ProductionOrder, error) {
	rows, err := db.Query(db.Q(`SELECT `+productionOrderSelectCols+` FROM production_orders WHERE work_order_id=? ORDER BY id`), workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

// ListProductionOrdersCreatedSince returns orders created at or after since,
// optionally limited to work orders of one room.
func (db *DB) ListProductionOrdersCreatedSince(since time.Time, roomID *int64) ([]*ProductionOrder, error) {
	query := `SELECT ` + prefixCols("po", productionOrderSelectCols) + ` FROM production_orders po`
	args := []any{db.ts(since)}
	if roomID != nil {
		query += ` JOIN work_orders wo ON wo.id = po.work_order_id WHERE po.created_at >= ? AND wo.room_id = ?`
		args = append(args, *roomID)
	} else {
		query += ` WHERE po.created_at >= ?`
	}
	rows, err := db.Query(db.Q(query+` ORDER BY po.id`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

// PromoteProductionOrder flips an order into in_progress on its first
// operation start. The start date is stamped only once.
func (db *DB) PromoteProductionOrder(id int64, at time.Time) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE production_orders SET status=?, actual_start_date=COALESCE(actual_start_date, ?), updated_at=? WHERE id=? AND status IN (?, ?, ?)`),
		OrderInProgress, db.ts(at), db.ts(at), id, OrderPlanned, OrderApproved, OrderPaused)
	if err != nil {
		return false, fmt.Errorf("promote production order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompleteProductionOrder marks a non-terminal order completed.
func (db *DB) CompleteProductionOrder(id int64, completedQty int, at time.Time) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE production_orders SET status=?, completed_quantity=?, actual_end_date=?, updated_at=? WHERE id=? AND status NOT IN (?, ?)`),
		OrderCompleted, completedQty, db.ts(at), db.ts(at), id, OrderCompleted, OrderCancelled)
	if err != nil {
		return false, fmt.Errorf("complete production order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetProductionOrderBranch changes the branch of an order that has no
// operations yet. It reports false once any operation exists.
func (db *DB) SetProductionOrderBranch(id int64, branchCode *string, pathCodes []string) (bool, error) {
	var branch any
	if branchCode != nil {
		branch = *branchCode
	}
	res, err := db.Exec(db.Q(`UPDATE production_orders SET branch_code=?, branch_path_codes=?, updated_at=? WHERE id=? AND NOT EXISTS (SELECT 1 FROM production_operations WHERE production_order_id=?)`),
		branch, encodeStrings(pathCodes), db.ts(db.Now()), id, id)
	if err != nil {
		return false, fmt.Errorf("set branch on production order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListOrphanedProductionOrders returns orders that claim progress but have no operations.
func (db *DB) ListOrphanedProductionOrders() ([]*ProductionOrder, error) {
	rows, err := db.Query(db.Q(`SELECT `+productionOrderSelectCols+` FROM production_orders po WHERE status IN (?, ?, ?) AND NOT EXISTS (SELECT 1 FROM production_operations op WHERE op.production_order_id = po.id) ORDER BY id`),
		OrderInProgress, OrderPaused, OrderApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

// ResetProductionOrderStatus moves an order to planned if it is still in from.
func (db *DB) ResetProductionOrderStatus(id int64, from string) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE production_orders SET status=?, updated_at=? WHERE id=? AND status=?`),
		OrderPlanned, db.ts(db.Now()), id, from)
	if err != nil {
		return false, fmt.Errorf("reset production order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
