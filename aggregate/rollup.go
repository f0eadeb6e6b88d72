package aggregate

import (
	"context"
	"time"

	"prodflow/errs"
	"prodflow/expansion"
	"prodflow/store"
)

// Promote flips a production order into in_progress on its first operation
// start. Terminal and already running orders are left alone.
func (a *Aggregator) Promote(ctx context.Context, orderID int64, at time.Time) error {
	o, err := a.db.GetProductionOrder(orderID)
	if err != nil {
		return errs.FromStore("production order", orderID, err)
	}
	ok, err := a.db.PromoteProductionOrder(orderID, at)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	if ok {
		a.emitter.EmitOrderUpdated(o.ID, o.WorkOrderID, a.roomOf(o.WorkOrderID), o.Status, store.OrderInProgress, o.CompletedQuantity)
	}
	return nil
}

// RollupProductionOrder completes an order once every expected operation
// is completed. The completed quantity is the output of the last step.
func (a *Aggregator) RollupProductionOrder(ctx context.Context, orderID int64) error {
	o, err := a.db.GetProductionOrder(orderID)
	if err != nil {
		return errs.FromStore("production order", orderID, err)
	}
	if store.IsTerminalOrderStatus(o.Status) {
		return nil
	}
	ops, err := a.db.ListOperationsByOrder(orderID)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	expected, known := expansion.ExpectedOperationCount(ctx, a.resolver, o)
	if !allExpectedCompleted(ops, expected, known) {
		return nil
	}
	qty := ops[len(ops)-1].OutputQuantity
	ok, err := a.db.CompleteProductionOrder(orderID, qty, a.db.Now())
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	if ok {
		a.emitter.EmitOrderUpdated(o.ID, o.WorkOrderID, a.roomOf(o.WorkOrderID), o.Status, store.OrderCompleted, qty)
	}
	return nil
}

// WorkOrderStatus derives a work order's status from all of its operations.
// Cancelled operations are ignored unless every operation is cancelled.
func WorkOrderStatus(ops []*store.Operation, current string) string {
	if len(ops) == 0 {
		return store.OrderPlanned
	}
	var live []*store.Operation
	for _, op := range ops {
		if op.Status != store.OpCancelled {
			live = append(live, op)
		}
	}
	if len(live) == 0 {
		return store.OrderCancelled
	}
	switch {
	case !hasStatus(live, store.OpPending, store.OpActive, store.OpPaused):
		return store.OrderCompleted
	case hasStatus(live, store.OpActive):
		return store.OrderInProgress
	case hasStatus(live, store.OpPaused):
		return store.OrderPaused
	case hasStatus(live, store.OpPending):
		return store.OrderApproved
	}
	return current
}

// RollupWorkOrder recomputes a work order status and emits the change.
func (a *Aggregator) RollupWorkOrder(ctx context.Context, workOrderID int64) error {
	wo, err := a.db.GetWorkOrder(workOrderID)
	if err != nil {
		return errs.FromStore("work order", workOrderID, err)
	}
	ops, err := a.db.ListOperationsByWorkOrder(workOrderID)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	next := WorkOrderStatus(ops, wo.Status)
	if next == wo.Status {
		return nil
	}
	ok, err := a.db.UpdateWorkOrderStatus(wo.ID, wo.Status, next)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	if ok {
		a.emitter.EmitWorkOrderUpdated(wo.ID, wo.RoomID, wo.Status, next, len(ops))
	}
	return nil
}

// RepairOrphaned moves orders that claim progress but have no operations
// back to planned. It returns the repaired order ids.
func (a *Aggregator) RepairOrphaned(ctx context.Context) ([]int64, error) {
	orders, err := a.db.ListOrphanedProductionOrders()
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	var fixed []int64
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		ok, err := a.db.ResetProductionOrderStatus(o.ID, o.Status)
		if err != nil {
			a.logFn("aggregate: reset orphaned order %d: %v", o.ID, err)
			continue
		}
		if !ok {
			continue
		}
		fixed = append(fixed, o.ID)
		if err := a.db.InsertProductionLog(&store.ProductionLog{
			ProductionOrderID: o.ID,
			Action:            store.ActionOrderRepaired,
			PreviousStatus:    o.Status,
			NewStatus:         store.OrderPlanned,
			UserID:            "system",
			Notes:             "order had no operations",
		}); err != nil {
			a.logFn("aggregate: log repair of order %d: %v", o.ID, err)
		}
		a.emitter.EmitOrderUpdated(o.ID, o.WorkOrderID, a.roomOf(o.WorkOrderID), o.Status, store.OrderPlanned, o.CompletedQuantity)
	}
	if len(fixed) > 0 {
		a.logFn("aggregate: repaired %d orphaned production orders", len(fixed))
	}
	return fixed, nil
}
