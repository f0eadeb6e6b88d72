package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prodflow/access"
	"prodflow/errs"
	"prodflow/expansion"
	"prodflow/pathexpr"
	"prodflow/store"
)

// Materialize creates one production order per executed branch of every
// approved item, each with its branch path codes snapshotted and its
// operations expanded in the same transaction. Items whose expression needs
// no production are skipped. Branches that already have a production order
// for the same item are not created twice. A work order is only found or
// created when at least one production order will be.
func (m *Manager) Materialize(ctx context.Context, req MaterializeRequest) ([]*store.ProductionOrder, error) {
	if strings.TrimSpace(req.SourceOrderID) == "" {
		return nil, errs.NewValidationError("source_order_id", "is required")
	}

	var wo *store.WorkOrder
	if req.WorkOrderID != nil {
		var err error
		if wo, err = m.requestedWorkOrder(req); err != nil {
			return nil, err
		}
		if err := m.access.Require(ctx, req.Actor, wo.RoomID, access.Manage); err != nil {
			return nil, err
		}
	} else if err := m.access.Require(ctx, req.Actor, req.RoomID, access.Manage); err != nil {
		return nil, err
	}

	planned, err := m.plan(req)
	if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		return nil, nil
	}

	if wo == nil {
		if wo, err = m.workOrderInRoom(req.SourceOrderID, req.RoomID); err != nil {
			return nil, err
		}
	}

	var created []*store.ProductionOrder
	for _, o := range planned {
		o.WorkOrderID = &wo.ID
		ops := expansion.ExpandOperations(ctx, m.resolver, o)
		if err := m.db.CreateProductionOrderWithOperations(o, ops); err != nil {
			m.observe("materialize", "error")
			return created, errs.NewDependencyError("store", err)
		}
		created = append(created, o)
		m.observe("materialize", "ok")
	}

	m.logFn("operations: materialized %d production orders for %s", len(created), req.SourceOrderID)
	if err := m.agg.RollupWorkOrder(ctx, wo.ID); err != nil {
		m.logFn("operations: rollup work order %d: %v", wo.ID, err)
	}
	return created, nil
}

// plan builds the production orders a request still needs, one per
// selected branch without an existing order for the same item.
func (m *Manager) plan(req MaterializeRequest) ([]*store.ProductionOrder, error) {
	existing, err := m.db.ListProductionOrdersBySource(req.SourceOrderID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, o := range existing {
		seen[branchKey(o.SourceItemID, o.BranchCode)] = true
	}

	var out []*store.ProductionOrder
	for _, item := range req.Items {
		branches := pathexpr.Parse(item.PathExpression)
		if branches == nil {
			m.logFn("operations: item %q of %s has no production path, skipped", item.SourceItemID, req.SourceOrderID)
			continue
		}
		indexes, err := selectedBranches(branches, item.Branches)
		if err != nil {
			return nil, err
		}
		for _, idx := range indexes {
			var branchCode *string
			if code := pathexpr.BranchCode(idx, len(branches)); code != "" {
				branchCode = &code
			}
			key := branchKey(item.SourceItemID, branchCode)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, &store.ProductionOrder{
				SourceOrderID:    req.SourceOrderID,
				SourceItemID:     item.SourceItemID,
				ProductID:        item.ProductID,
				ProductCode:      item.ProductCode,
				PathExpression:   item.PathExpression,
				BranchCode:       branchCode,
				BranchPathCodes:  branches[idx],
				Status:           store.OrderApproved,
				Quantity:         item.Quantity,
				Priority:         item.Priority,
				EstimatedMinutes: item.EstimatedMinutes,
				DeliveryDate:     item.DeliveryDate,
			})
		}
	}
	return out, nil
}

// requestedWorkOrder loads the work order a request names and checks it
// belongs to the same source order.
func (m *Manager) requestedWorkOrder(req MaterializeRequest) (*store.WorkOrder, error) {
	wo, err := m.db.GetWorkOrder(*req.WorkOrderID)
	if err != nil {
		return nil, errs.FromStore("work order", *req.WorkOrderID, err)
	}
	if wo.SourceOrderID != req.SourceOrderID {
		return nil, errs.NewValidationError("work_order_id", fmt.Sprintf("belongs to source order %s", wo.SourceOrderID))
	}
	return wo, nil
}

// workOrderInRoom reuses the source order's work order in roomID, so a
// redelivered approval does not open a second one, and creates it otherwise.
func (m *Manager) workOrderInRoom(sourceOrderID string, roomID *int64) (*store.WorkOrder, error) {
	existing, err := m.db.ListWorkOrdersBySource(sourceOrderID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	for _, wo := range existing {
		if sameRoom(wo.RoomID, roomID) && wo.Status != store.OrderCancelled {
			return wo, nil
		}
	}
	wo := &store.WorkOrder{SourceOrderID: sourceOrderID, RoomID: roomID}
	if err := m.db.CreateWorkOrder(wo); err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	return wo, nil
}

func sameRoom(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// selectedBranches maps requested branch letters onto branch indexes. No
// letters selects every branch.
func selectedBranches(branches pathexpr.Branches, letters []string) ([]int, error) {
	if len(letters) == 0 {
		out := make([]int, len(branches))
		for i := range branches {
			out[i] = i
		}
		return out, nil
	}
	var out []int
	for _, l := range letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if _, ok := expansion.SelectBranch(branches, l); !ok {
			return nil, errs.NewValidationError("branches", fmt.Sprintf("no branch %q in expression", l))
		}
		idx, _ := pathexpr.BranchIndex(l)
		out = append(out, idx)
	}
	return out, nil
}

func branchKey(itemID string, branchCode *string) string {
	if branchCode == nil {
		return itemID + "|"
	}
	return itemID + "|" + *branchCode
}

// ReassignBranch points an order at another branch of its expression and
// refreshes the path code snapshot. Only orders without operations can move.
func (m *Manager) ReassignBranch(ctx context.Context, actor access.Actor, orderID int64, branchCode string) (*store.ProductionOrder, error) {
	o, err := m.db.GetProductionOrder(orderID)
	if err != nil {
		return nil, errs.FromStore("production order", orderID, err)
	}
	roomID, err := m.roomOf(o)
	if err != nil {
		return nil, err
	}
	if err := m.access.Require(ctx, actor, roomID, access.Manage); err != nil {
		return nil, err
	}
	branchCode = strings.ToUpper(strings.TrimSpace(branchCode))
	codes, ok := expansion.SelectBranch(pathexpr.Parse(o.PathExpression), branchCode)
	if !ok {
		return nil, errs.NewValidationError("branch_code", fmt.Sprintf("no branch %q in %q", branchCode, o.PathExpression))
	}
	var code *string
	if branchCode != "" {
		code = &branchCode
	}
	ok, err = m.db.SetProductionOrderBranch(o.ID, code, codes)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	if !ok {
		return nil, errs.NewConflictError("production order", o.ID, "", "reassign the branch of")
	}
	o, err = m.db.GetProductionOrder(o.ID)
	if err != nil {
		return nil, errs.FromStore("production order", orderID, err)
	}
	return o, nil
}

// CancelSourceOrder cancels every non-terminal operation of a withdrawn
// sales order and returns how many were cancelled. Operations that finish
// concurrently are skipped.
func (m *Manager) CancelSourceOrder(ctx context.Context, actor access.Actor, sourceOrderID, reason string) (int, error) {
	ops, err := m.db.ListOperationsBySource(sourceOrderID)
	if err != nil {
		return 0, errs.NewDependencyError("store", err)
	}
	n := 0
	for _, op := range ops {
		if store.IsTerminalOpStatus(op.Status) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, err := m.Cancel(ctx, actor, op.ID, reason)
		switch {
		case err == nil:
			n++
		case errors.Is(err, errs.ErrConflict):
			m.logFn("operations: cancel operation %d of %s: %v", op.ID, sourceOrderID, err)
		default:
			return n, err
		}
	}
	if n > 0 {
		m.logFn("operations: cancelled %d operations of withdrawn order %s", n, sourceOrderID)
	}
	return n, nil
}
