// Package aggregate derives order-level production state from operations:
// the sales-order production status, production-order and work-order
// rollups, KPI windows, orphan repair and deadline priority.
package aggregate

import (
	"log"

	"prodflow/expansion"
	"prodflow/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...any)

// Emitter receives the order-level changes the aggregator makes.
type Emitter interface {
	EmitOrderUpdated(orderID int64, workOrderID, roomID *int64, oldStatus, newStatus string, completedQuantity int)
	EmitWorkOrderUpdated(workOrderID int64, roomID *int64, oldStatus, newStatus string, operationsCount int)
	EmitKPIUpdated(roomID *int64, overview *KPIOverview)
}

type Aggregator struct {
	db       *store.DB
	resolver expansion.Resolver
	emitter  Emitter
	logFn    LogFunc
}

func New(db *store.DB, resolver expansion.Resolver, emitter Emitter) *Aggregator {
	return &Aggregator{db: db, resolver: resolver, emitter: emitter, logFn: log.Printf}
}

// SetLogFunc replaces the default log.Printf sink.
func (a *Aggregator) SetLogFunc(fn LogFunc) { a.logFn = fn }

// roomOf returns the room of an order's work order, if any.
func (a *Aggregator) roomOf(workOrderID *int64) *int64 {
	if workOrderID == nil {
		return nil
	}
	wo, err := a.db.GetWorkOrder(*workOrderID)
	if err != nil {
		a.logFn("aggregate: load work order %d: %v", *workOrderID, err)
		return nil
	}
	return wo.RoomID
}
