package operations

import (
	"time"

	"prodflow/access"
	"prodflow/store"
)

// Actions accepted by Transition.
const (
	ActionStart    = "start"
	ActionPause    = "pause"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
	ActionProblem  = "problem"
)

// allowedFrom lists the operation statuses each action may be applied to.
// Start doubles as resume from paused.
var allowedFrom = map[string][]string{
	ActionStart:    {store.OpPending, store.OpPaused},
	ActionPause:    {store.OpActive},
	ActionComplete: {store.OpActive, store.OpPaused},
	ActionCancel:   {store.OpPending, store.OpActive, store.OpPaused},
	ActionProblem:  {store.OpPending, store.OpActive, store.OpPaused},
}

var logActions = map[string]string{
	ActionStart:    store.ActionOperationStarted,
	ActionPause:    store.ActionOperationPaused,
	ActionComplete: store.ActionOperationCompleted,
	ActionCancel:   store.ActionOperationCancelled,
	ActionProblem:  store.ActionOperationProblem,
}

// IsKnownAction reports whether action is one Transition understands.
func IsKnownAction(action string) bool {
	_, ok := allowedFrom[action]
	return ok
}

// IsValidTransition checks if action may be applied to an operation in from.
func IsValidTransition(from, action string) bool {
	for _, s := range allowedFrom[action] {
		if s == from {
			return true
		}
	}
	return false
}

// TransitionRequest carries one state change. Quantity is read by complete,
// Reason by pause and cancel, Note by problem and WorkStationID by start.
type TransitionRequest struct {
	OperationID   int64        `json:"operationId"`
	Action        string       `json:"action"`
	Actor         access.Actor `json:"actor"`
	WorkStationID *int64       `json:"workStationId,omitempty"`
	Quantity      int          `json:"quantity,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Note          string       `json:"note,omitempty"`
}

// MaterializeItem is one approved line of a sales order. Branches names the
// branch letters to produce; empty produces every branch.
type MaterializeItem struct {
	SourceItemID     string     `json:"sourceItemId"`
	ProductID        string     `json:"productId"`
	ProductCode      string     `json:"productCode"`
	PathExpression   string     `json:"pathExpression"`
	Quantity         int        `json:"quantity"`
	Priority         int        `json:"priority"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	DeliveryDate     *time.Time `json:"deliveryDate,omitempty"`
	Branches         []string   `json:"branches,omitempty"`
}

// MaterializeRequest turns an approved sales order into production orders.
// Without a WorkOrderID a work order is created in RoomID.
type MaterializeRequest struct {
	SourceOrderID string            `json:"sourceOrderId"`
	WorkOrderID   *int64            `json:"workOrderId,omitempty"`
	RoomID        *int64            `json:"roomId,omitempty"`
	Actor         access.Actor      `json:"actor"`
	Items         []MaterializeItem `json:"items"`
}
