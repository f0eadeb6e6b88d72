package engine

import (
	"encoding/json"
	"time"

	"prodflow/aggregate"
	"prodflow/operations"
)

type EventType int

const (
	EventOperationStarted EventType = iota + 1
	EventOperationPaused
	EventOperationCompleted
	EventOperationCancelled
	EventOperationProblem
	EventWorkOrderUpdated
	EventOrderUpdated
	EventKPIUpdated
)

var eventNames = map[EventType]string{
	EventOperationStarted:   "operation.started",
	EventOperationPaused:    "operation.paused",
	EventOperationCompleted: "operation.completed",
	EventOperationCancelled: "operation.cancelled",
	EventOperationProblem:   "operation.problem",
	EventWorkOrderUpdated:   "workorder.updated",
	EventOrderUpdated:       "order.updated",
	EventKPIUpdated:         "kpi.updated",
}

// AllEventTypes lists the closed set of lifecycle events.
var AllEventTypes = []EventType{
	EventOperationStarted, EventOperationPaused, EventOperationCompleted,
	EventOperationCancelled, EventOperationProblem, EventWorkOrderUpdated,
	EventOrderUpdated, EventKPIUpdated,
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// WireType is the event name dashboards receive, e.g. "production.kpi.updated".
func (t EventType) WireType() string { return "production." + t.String() }

// Payload is implemented by every event payload. Data flattens the payload
// for the wire: absent optional fields are left out.
type Payload interface {
	Data() map[string]any
}

// --- Event payloads ---

type OperationStartedEvent struct {
	Ref        operations.OperationRef
	OperatorID string
	Resumed    bool
}

type OperationPausedEvent struct {
	Ref        operations.OperationRef
	OperatorID string
	Reason     string
	ActualTime int
}

type OperationCompletedEvent struct {
	Ref        operations.OperationRef
	OperatorID string
	Quantity   int
	ActualTime int
}

type OperationCancelledEvent struct {
	Ref        operations.OperationRef
	OperatorID string
	Reason     string
	ActualTime int
}

type OperationProblemEvent struct {
	Ref        operations.OperationRef
	OperatorID string
	Note       string
}

type WorkOrderUpdatedEvent struct {
	WorkOrderID     int64
	RoomID          *int64
	OldStatus       string
	NewStatus       string
	OperationsCount int
}

type OrderUpdatedEvent struct {
	OrderID           int64
	WorkOrderID       *int64
	RoomID            *int64
	OldStatus         string
	NewStatus         string
	CompletedQuantity int
}

// KPIUpdatedEvent carries a nil RoomID for the global overview; it is sent
// as an explicit null.
type KPIUpdatedEvent struct {
	RoomID   *int64
	Overview *aggregate.KPIOverview
}

func refData(ref operations.OperationRef, operatorID, status string) map[string]any {
	d := map[string]any{
		"operationId": ref.OperationID,
		"orderId":     ref.OrderID,
		"status":      status,
	}
	putID(d, "workOrderId", ref.WorkOrderID)
	putID(d, "roomId", ref.RoomID)
	putString(d, "userId", operatorID)
	return d
}

func putID(d map[string]any, key string, id *int64) {
	if id != nil {
		d[key] = *id
	}
}

func putString(d map[string]any, key, v string) {
	if v != "" {
		d[key] = v
	}
}

func (e OperationStartedEvent) Data() map[string]any {
	d := refData(e.Ref, e.OperatorID, "active")
	if e.Resumed {
		d["resumed"] = true
	}
	return d
}

func (e OperationPausedEvent) Data() map[string]any {
	d := refData(e.Ref, e.OperatorID, "paused")
	putString(d, "reason", e.Reason)
	d["actualTime"] = e.ActualTime
	return d
}

func (e OperationCompletedEvent) Data() map[string]any {
	d := refData(e.Ref, e.OperatorID, "completed")
	d["quantity"] = e.Quantity
	d["actualTime"] = e.ActualTime
	return d
}

func (e OperationCancelledEvent) Data() map[string]any {
	d := refData(e.Ref, e.OperatorID, "cancelled")
	putString(d, "reason", e.Reason)
	d["actualTime"] = e.ActualTime
	return d
}

func (e OperationProblemEvent) Data() map[string]any {
	d := refData(e.Ref, e.OperatorID, "")
	delete(d, "status")
	putString(d, "note", e.Note)
	return d
}

func (e WorkOrderUpdatedEvent) Data() map[string]any {
	d := map[string]any{
		"workOrderId":     e.WorkOrderID,
		"oldStatus":       e.OldStatus,
		"newStatus":       e.NewStatus,
		"operationsCount": e.OperationsCount,
	}
	putID(d, "roomId", e.RoomID)
	return d
}

func (e OrderUpdatedEvent) Data() map[string]any {
	d := map[string]any{
		"orderId":           e.OrderID,
		"oldStatus":         e.OldStatus,
		"newStatus":         e.NewStatus,
		"status":            e.NewStatus,
		"completedQuantity": e.CompletedQuantity,
	}
	putID(d, "workOrderId", e.WorkOrderID)
	putID(d, "roomId", e.RoomID)
	return d
}

func (e KPIUpdatedEvent) Data() map[string]any {
	d := map[string]any{"roomId": nil}
	putID(d, "roomId", e.RoomID)
	if e.Overview != nil {
		d["today"] = e.Overview.Today
		d["week"] = e.Overview.Week
		d["month"] = e.Overview.Month
	}
	return d
}

// Frame is the JSON document pushed to dashboards for one event.
type Frame struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func NewFrame(evt Event) Frame {
	var data map[string]any
	if evt.Payload != nil {
		data = evt.Payload.Data()
	}
	if data == nil {
		data = map[string]any{}
	}
	return Frame{Type: evt.Type.WireType(), Timestamp: evt.Timestamp, Data: data}
}

func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
