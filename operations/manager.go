// Package operations runs the operation lifecycle: start, pause, resume,
// complete, cancel and problem reports, plus materializing approved sales
// orders into production orders and their operations.
package operations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"prodflow/access"
	"prodflow/aggregate"
	"prodflow/errs"
	"prodflow/expansion"
	"prodflow/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...any)

// Observer is told the outcome of every transition and materialized order.
type Observer func(action, result string)

// Manager handles the operation lifecycle state machine.
type Manager struct {
	db       *store.DB
	resolver expansion.Resolver
	access   *access.Resolver
	agg      *aggregate.Aggregator
	emitter  Emitter
	logFn    LogFunc
	observe  Observer
}

// NewManager creates an operation manager.
func NewManager(db *store.DB, resolver expansion.Resolver, acc *access.Resolver, agg *aggregate.Aggregator, emitter Emitter) *Manager {
	return &Manager{
		db:       db,
		resolver: resolver,
		access:   acc,
		agg:      agg,
		emitter:  emitter,
		logFn:    log.Printf,
		observe:  func(string, string) {},
	}
}

func (m *Manager) SetLogFunc(fn LogFunc) { m.logFn = fn }

func (m *Manager) SetObserver(fn Observer) { m.observe = fn }

func (m *Manager) Start(ctx context.Context, actor access.Actor, opID int64, stationID *int64) (*store.Operation, error) {
	return m.Transition(ctx, TransitionRequest{OperationID: opID, Action: ActionStart, Actor: actor, WorkStationID: stationID})
}

func (m *Manager) Pause(ctx context.Context, actor access.Actor, opID int64, reason string) (*store.Operation, error) {
	return m.Transition(ctx, TransitionRequest{OperationID: opID, Action: ActionPause, Actor: actor, Reason: reason})
}

func (m *Manager) Complete(ctx context.Context, actor access.Actor, opID int64, quantity int) (*store.Operation, error) {
	return m.Transition(ctx, TransitionRequest{OperationID: opID, Action: ActionComplete, Actor: actor, Quantity: quantity})
}

func (m *Manager) Cancel(ctx context.Context, actor access.Actor, opID int64, reason string) (*store.Operation, error) {
	return m.Transition(ctx, TransitionRequest{OperationID: opID, Action: ActionCancel, Actor: actor, Reason: reason})
}

func (m *Manager) ReportProblem(ctx context.Context, actor access.Actor, opID int64, note string) (*store.Operation, error) {
	return m.Transition(ctx, TransitionRequest{OperationID: opID, Action: ActionProblem, Actor: actor, Note: note})
}

// Transition applies one action to an operation. A source state that does
// not allow the action, or a concurrent change between read and write,
// yields ConflictError. The audit row is best effort; the state change is not
// rolled back when it fails.
func (m *Manager) Transition(ctx context.Context, req TransitionRequest) (*store.Operation, error) {
	op, err := m.transition(ctx, req)
	m.observe(req.Action, resultOf(err))
	return op, err
}

func (m *Manager) transition(ctx context.Context, req TransitionRequest) (*store.Operation, error) {
	if !IsKnownAction(req.Action) {
		return nil, errs.NewValidationError("action", fmt.Sprintf("unknown action %q", req.Action))
	}
	op, err := m.db.GetOperation(req.OperationID)
	if err != nil {
		return nil, errs.FromStore("operation", req.OperationID, err)
	}
	order, err := m.db.GetProductionOrder(op.ProductionOrderID)
	if err != nil {
		return nil, errs.FromStore("production order", op.ProductionOrderID, err)
	}
	roomID, err := m.roomOf(order)
	if err != nil {
		return nil, err
	}
	if err := m.access.Require(ctx, req.Actor, roomID, access.Operate); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionComplete:
		if req.Quantity <= 0 {
			return nil, errs.NewValidationError("quantity", "must be greater than zero")
		}
	case ActionProblem:
		if req.Note == "" {
			return nil, errs.NewValidationError("note", "is required")
		}
	}
	if !IsValidTransition(op.Status, req.Action) {
		return nil, errs.NewConflictError("operation", op.ID, op.Status, req.Action)
	}
	if req.Action == ActionStart && req.WorkStationID != nil {
		if err := m.access.CheckStationProduct(ctx, *req.WorkStationID, order.ProductID); err != nil {
			return nil, err
		}
	}

	now := m.db.Now()
	elapsed := elapsedMinutes(op, now)
	var ok bool
	switch req.Action {
	case ActionStart:
		ok, err = m.db.StartOperation(op, req.Actor.UserID, req.WorkStationID, now)
	case ActionPause:
		ok, err = m.db.PauseOperation(op, elapsed, now)
	case ActionComplete:
		ok, err = m.db.CompleteOperation(op, elapsed, req.Quantity, now)
	case ActionCancel:
		ok, err = m.db.CancelOperation(op, elapsed, now)
	case ActionProblem:
		ok, err = m.db.SetOperationProblem(op.ID, req.Note)
	}
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	if !ok {
		current := op.Status
		if fresh, err := m.db.GetOperation(op.ID); err == nil {
			current = fresh.Status
		}
		return nil, errs.NewConflictError("operation", op.ID, current, req.Action)
	}

	updated, err := m.db.GetOperation(op.ID)
	if err != nil {
		return nil, errs.FromStore("operation", op.ID, err)
	}
	m.writeLog(req, op, updated)
	m.emit(req, op, updated, OperationRef{
		OperationID: op.ID,
		OrderID:     order.ID,
		WorkOrderID: order.WorkOrderID,
		RoomID:      roomID,
	})

	if req.Action == ActionProblem {
		return updated, nil
	}
	if req.Action == ActionStart {
		if err := m.agg.Promote(ctx, order.ID, now); err != nil {
			m.logFn("operations: promote order %d: %v", order.ID, err)
		}
	}
	if err := m.agg.RollupProductionOrder(ctx, order.ID); err != nil {
		m.logFn("operations: rollup order %d: %v", order.ID, err)
	}
	if order.WorkOrderID != nil {
		if err := m.agg.RollupWorkOrder(ctx, *order.WorkOrderID); err != nil {
			m.logFn("operations: rollup work order %d: %v", *order.WorkOrderID, err)
		}
	}
	return updated, nil
}

func (m *Manager) writeLog(req TransitionRequest, before, after *store.Operation) {
	notes := req.Reason
	switch req.Action {
	case ActionStart:
		if before.Status == store.OpPaused {
			notes = "resumed"
		}
	case ActionComplete:
		notes = fmt.Sprintf("quantity=%d actual_time=%d", req.Quantity, after.ActualTime)
	case ActionProblem:
		notes = req.Note
	}
	opID := before.ID
	if err := m.db.InsertProductionLog(&store.ProductionLog{
		ProductionOrderID: before.ProductionOrderID,
		OperationID:       &opID,
		Action:            logActions[req.Action],
		PreviousStatus:    before.Status,
		NewStatus:         after.Status,
		UserID:            req.Actor.UserID,
		Notes:             notes,
	}); err != nil {
		m.logFn("operations: log %s of operation %d: %v", req.Action, before.ID, err)
	}
}

func (m *Manager) emit(req TransitionRequest, before, after *store.Operation, ref OperationRef) {
	who := req.Actor.UserID
	switch req.Action {
	case ActionStart:
		m.emitter.EmitOperationStarted(ref, who, before.Status == store.OpPaused)
	case ActionPause:
		m.emitter.EmitOperationPaused(ref, who, req.Reason, after.ActualTime)
	case ActionComplete:
		m.emitter.EmitOperationCompleted(ref, who, req.Quantity, after.ActualTime)
	case ActionCancel:
		m.emitter.EmitOperationCancelled(ref, who, req.Reason, after.ActualTime)
	case ActionProblem:
		m.emitter.EmitOperationProblem(ref, who, req.Note)
	}
}

// roomOf returns the room of the order's work order, nil when it has none.
func (m *Manager) roomOf(o *store.ProductionOrder) (*int64, error) {
	if o.WorkOrderID == nil {
		return nil, nil
	}
	wo, err := m.db.GetWorkOrder(*o.WorkOrderID)
	if err != nil {
		return nil, errs.FromStore("work order", *o.WorkOrderID, err)
	}
	return wo.RoomID, nil
}

// elapsedMinutes is the rounded time since start for an active operation.
func elapsedMinutes(op *store.Operation, now time.Time) int {
	if op.Status != store.OpActive || op.StartTime == nil {
		return 0
	}
	d := now.Sub(*op.StartTime)
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Minutes()))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrValidation):
		return "invalid"
	case errors.Is(err, errs.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
