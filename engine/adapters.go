package engine

import (
	"prodflow/aggregate"
	"prodflow/operations"
)

// operationEmitter bridges the operations package's emitter interface to the EventBus.
type operationEmitter struct {
	bus *EventBus
}

func (e *operationEmitter) EmitOperationStarted(ref operations.OperationRef, operatorID string, resumed bool) {
	e.bus.Emit(Event{Type: EventOperationStarted, Payload: OperationStartedEvent{
		Ref:        ref,
		OperatorID: operatorID,
		Resumed:    resumed,
	}})
}

func (e *operationEmitter) EmitOperationPaused(ref operations.OperationRef, operatorID, reason string, actualTime int) {
	e.bus.Emit(Event{Type: EventOperationPaused, Payload: OperationPausedEvent{
		Ref:        ref,
		OperatorID: operatorID,
		Reason:     reason,
		ActualTime: actualTime,
	}})
}

func (e *operationEmitter) EmitOperationCompleted(ref operations.OperationRef, operatorID string, quantity, actualTime int) {
	e.bus.Emit(Event{Type: EventOperationCompleted, Payload: OperationCompletedEvent{
		Ref:        ref,
		OperatorID: operatorID,
		Quantity:   quantity,
		ActualTime: actualTime,
	}})
}

func (e *operationEmitter) EmitOperationCancelled(ref operations.OperationRef, operatorID, reason string, actualTime int) {
	e.bus.Emit(Event{Type: EventOperationCancelled, Payload: OperationCancelledEvent{
		Ref:        ref,
		OperatorID: operatorID,
		Reason:     reason,
		ActualTime: actualTime,
	}})
}

func (e *operationEmitter) EmitOperationProblem(ref operations.OperationRef, operatorID, note string) {
	e.bus.Emit(Event{Type: EventOperationProblem, Payload: OperationProblemEvent{
		Ref:        ref,
		OperatorID: operatorID,
		Note:       note,
	}})
}

// aggregateEmitter bridges the aggregator's order-level changes to the EventBus.
type aggregateEmitter struct {
	bus *EventBus
}

func (e *aggregateEmitter) EmitOrderUpdated(orderID int64, workOrderID, roomID *int64, oldStatus, newStatus string, completedQuantity int) {
	e.bus.Emit(Event{Type: EventOrderUpdated, Payload: OrderUpdatedEvent{
		OrderID:           orderID,
		WorkOrderID:       workOrderID,
		RoomID:            roomID,
		OldStatus:         oldStatus,
		NewStatus:         newStatus,
		CompletedQuantity: completedQuantity,
	}})
}

func (e *aggregateEmitter) EmitWorkOrderUpdated(workOrderID int64, roomID *int64, oldStatus, newStatus string, operationsCount int) {
	e.bus.Emit(Event{Type: EventWorkOrderUpdated, Payload: WorkOrderUpdatedEvent{
		WorkOrderID:     workOrderID,
		RoomID:          roomID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
		OperationsCount: operationsCount,
	}})
}

func (e *aggregateEmitter) EmitKPIUpdated(roomID *int64, overview *aggregate.KPIOverview) {
	e.bus.Emit(Event{Type: EventKPIUpdated, Payload: KPIUpdatedEvent{
		RoomID:   roomID,
		Overview: overview,
	}})
}
