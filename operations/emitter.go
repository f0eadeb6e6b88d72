package operations

// OperationRef locates an operation in the order hierarchy for event consumers.
type OperationRef struct {
	OperationID int64
	OrderID     int64
	WorkOrderID *int64
	RoomID      *int64
}

// Emitter is the interface the operations package uses to emit lifecycle events.
type Emitter interface {
	EmitOperationStarted(ref OperationRef, operatorID string, resumed bool)
	EmitOperationPaused(ref OperationRef, operatorID, reason string, actualTime int)
	EmitOperationCompleted(ref OperationRef, operatorID string, quantity, actualTime int)
	EmitOperationCancelled(ref OperationRef, operatorID, reason string, actualTime int)
	EmitOperationProblem(ref OperationRef, operatorID, note string)
}
