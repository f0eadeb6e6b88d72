package engine

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodflow/access"
	"prodflow/aggregate"
	"prodflow/config"
	"prodflow/operations"
	"prodflow/protocol"
	"prodflow/store"
)

func quiet(string, ...any) {}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

var admin = access.Actor{UserID: "admin", Role: access.RoleAdmin}

func startEngine(t *testing.T, backend string) (*Engine, *store.Room) {
	t.Helper()
	db := testDB(t)
	require.NoError(t, db.CreatePath(&store.ProductionPath{Code: "10", Name: "Print", Operations: []string{"print", "dry"}, IsActive: true}))
	room := &store.Room{Name: "Hall A", IsActive: true}
	require.NoError(t, db.CreateRoom(room))

	cfg := config.Defaults()
	cfg.Messaging.Backend = backend
	e := New(Config{AppConfig: cfg, DB: db, LogFunc: quiet})
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e, room
}

func materialize(t *testing.T, e *Engine, room *store.Room) *store.ProductionOrder {
	t.Helper()
	orders, err := e.Operations().Materialize(context.Background(), operations.MaterializeRequest{
		SourceOrderID: "SO-1",
		RoomID:        &room.ID,
		Actor:         admin,
		Items: []operations.MaterializeItem{
			{SourceItemID: "item-1", ProductID: "P-1", PathExpression: "10", Quantity: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	return orders[0]
}

func TestEventBusFiltersAndUnsubscribes(t *testing.T) {
	bus := NewEventBus()
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	bus.now = func() time.Time { return fixed }

	var all, kpi recorder
	allID := bus.Subscribe(all.record)
	bus.SubscribeTypes(kpi.record, EventKPIUpdated)

	bus.Emit(Event{Type: EventOperationStarted, Payload: OperationStartedEvent{}})
	bus.Emit(Event{Type: EventKPIUpdated, Payload: KPIUpdatedEvent{}})
	require.Len(t, all.events, 2)
	require.Len(t, kpi.events, 1)
	assert.Equal(t, fixed, all.events[0].Timestamp)

	bus.Unsubscribe(allID)
	bus.Emit(Event{Type: EventKPIUpdated, Payload: KPIUpdatedEvent{}})
	assert.Len(t, all.events, 2)
	assert.Len(t, kpi.events, 2)
}

func TestEventBusRecoversPanickingHandler(t *testing.T) {
	bus := NewEventBus()
	var logged []string
	bus.SetLogFunc(func(format string, args ...any) { logged = append(logged, format) })

	var after recorder
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(after.record)
	assert.Equal(t, 2, bus.Len())

	require.NotPanics(t, func() {
		bus.Emit(Event{Type: EventOrderUpdated, Payload: OrderUpdatedEvent{OrderID: 1}})
	})
	assert.Len(t, after.events, 1)
	assert.Len(t, logged, 1)
}

func TestEventTypeNames(t *testing.T) {
	assert.Equal(t, "production.operation.started", EventOperationStarted.WireType())
	assert.Equal(t, "production.workorder.updated", EventWorkOrderUpdated.WireType())
	assert.Equal(t, "production.kpi.updated", EventKPIUpdated.WireType())
	assert.Equal(t, "unknown", EventType(99).String())
	assert.Len(t, AllEventTypes, len(eventNames))
}

func TestPayloadDataOmitsAbsentFields(t *testing.T) {
	wo := int64(7)
	started := OperationStartedEvent{Ref: operations.OperationRef{OperationID: 3, OrderID: 2}}.Data()
	assert.Equal(t, map[string]any{"operationId": int64(3), "orderId": int64(2), "status": "active"}, started)

	paused := OperationPausedEvent{
		Ref:        operations.OperationRef{OperationID: 3, OrderID: 2, WorkOrderID: &wo},
		OperatorID: "op-1",
		Reason:     "break",
		ActualTime: 12,
	}.Data()
	assert.Equal(t, int64(7), paused["workOrderId"])
	assert.Equal(t, "op-1", paused["userId"])
	assert.Equal(t, "break", paused["reason"])
	assert.Equal(t, 12, paused["actualTime"])
	assert.NotContains(t, paused, "roomId")

	problem := OperationProblemEvent{Ref: operations.OperationRef{OperationID: 3, OrderID: 2}, Note: "jam"}.Data()
	assert.NotContains(t, problem, "status")
	assert.Equal(t, "jam", problem["note"])
}

func TestKPIFrameSendsNullRoom(t *testing.T) {
	evt := Event{
		Type:      EventKPIUpdated,
		Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Payload:   KPIUpdatedEvent{Overview: &aggregate.KPIOverview{Today: aggregate.KPIWindow{Total: 2}}},
	}
	data, err := NewFrame(evt).Encode()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "production.kpi.updated", got["type"])
	assert.Equal(t, "2026-03-01T08:00:00Z", got["timestamp"])
	body := got["data"].(map[string]any)
	assert.Contains(t, body, "roomId")
	assert.Nil(t, body["roomId"])
	assert.Equal(t, float64(2), body["today"].(map[string]any)["total"])
}

func TestTransitionsReachBusAndOutbox(t *testing.T) {
	e, room := startEngine(t, "kafka")
	var rec recorder
	e.Events.Subscribe(rec.record)

	order := materialize(t, e, room)
	ops, err := e.DB().ListOperationsByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "print", ops[0].OperationType)

	_, err = e.Operations().Start(context.Background(), admin, ops[0].ID, nil)
	require.NoError(t, err)

	started := rec.ofType(EventOperationStarted)
	require.Len(t, started, 1)
	data := started[0].Payload.Data()
	assert.Equal(t, ops[0].ID, data["operationId"])
	assert.Equal(t, room.ID, data["roomId"])
	assert.Equal(t, "active", data["status"])
	assert.NotEmpty(t, rec.ofType(EventOrderUpdated))

	msgs, err := e.DB().ListPendingOutbox(100, 5)
	require.NoError(t, err)
	var kinds []string
	for _, m := range msgs {
		assert.Equal(t, e.AppConfig().Messaging.EventsTopic, m.Topic)
		assert.Equal(t, protocol.TypeProductionEvent, m.MsgType)
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(m.Payload, &env))
		var pe protocol.ProductionEvent
		require.NoError(t, env.DecodePayload(&pe))
		kinds = append(kinds, pe.Kind)
	}
	assert.Contains(t, kinds, "production.operation.started")
	assert.Contains(t, kinds, "production.order.updated")
}

func TestNoOutboxWithoutMessaging(t *testing.T) {
	e, room := startEngine(t, "")
	order := materialize(t, e, room)
	ops, err := e.DB().ListOperationsByOrder(order.ID)
	require.NoError(t, err)
	_, err = e.Operations().Start(context.Background(), admin, ops[0].ID, nil)
	require.NoError(t, err)

	msgs, err := e.DB().ListPendingOutbox(100, 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStopDetachesHandlers(t *testing.T) {
	e, _ := startEngine(t, "kafka")
	e.Stop()
	e.Events.Emit(Event{Type: EventOperationStarted, Payload: OperationStartedEvent{}})

	msgs, err := e.DB().ListPendingOutbox(100, 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
