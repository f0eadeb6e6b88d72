package operations

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodflow/access"
	"prodflow/aggregate"
	"prodflow/config"
	"prodflow/errs"
	"prodflow/store"
)

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

type mapResolver map[string][]string

func (m mapResolver) Resolve(_ context.Context, code string) []string {
	if ops, ok := m[code]; ok && len(ops) > 0 {
		return ops
	}
	return []string{"generic"}
}

var resolver = mapResolver{"10": {"print", "dry"}, "11": {"cut"}, "12": {"pack"}}

type event struct {
	kind       string
	ref        OperationRef
	operator   string
	resumed    bool
	reason     string
	quantity   int
	actualTime int
	oldStatus  string
	newStatus  string
}

// mockEmitter records both operation and aggregate events.
type mockEmitter struct {
	mu     sync.Mutex
	events []event
}

func (m *mockEmitter) add(e event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockEmitter) EmitOperationStarted(ref OperationRef, operatorID string, resumed bool) {
	m.add(event{kind: "operation.started", ref: ref, operator: operatorID, resumed: resumed})
}

func (m *mockEmitter) EmitOperationPaused(ref OperationRef, operatorID, reason string, actualTime int) {
	m.add(event{kind: "operation.paused", ref: ref, operator: operatorID, reason: reason, actualTime: actualTime})
}

func (m *mockEmitter) EmitOperationCompleted(ref OperationRef, operatorID string, quantity, actualTime int) {
	m.add(event{kind: "operation.completed", ref: ref, operator: operatorID, quantity: quantity, actualTime: actualTime})
}

func (m *mockEmitter) EmitOperationCancelled(ref OperationRef, operatorID, reason string, actualTime int) {
	m.add(event{kind: "operation.cancelled", ref: ref, operator: operatorID, reason: reason, actualTime: actualTime})
}

func (m *mockEmitter) EmitOperationProblem(ref OperationRef, operatorID, note string) {
	m.add(event{kind: "operation.problem", ref: ref, operator: operatorID, reason: note})
}

func (m *mockEmitter) EmitOrderUpdated(orderID int64, workOrderID, roomID *int64, oldStatus, newStatus string, completedQuantity int) {
	m.add(event{kind: "order.updated", oldStatus: oldStatus, newStatus: newStatus, quantity: completedQuantity})
}

func (m *mockEmitter) EmitWorkOrderUpdated(workOrderID int64, roomID *int64, oldStatus, newStatus string, operationsCount int) {
	m.add(event{kind: "workorder.updated", oldStatus: oldStatus, newStatus: newStatus})
}

func (m *mockEmitter) EmitKPIUpdated(roomID *int64, overview *aggregate.KPIOverview) {
	m.add(event{kind: "kpi.updated"})
}

func (m *mockEmitter) byKind(kind string) []event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event
	for _, e := range m.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db    *store.DB
	mgr   *Manager
	em    *mockEmitter
	room  *store.Room
	clock time.Time
}

var (
	admin    = access.Actor{UserID: "admin", Role: access.RoleAdmin}
	operator = access.Actor{UserID: "op-1", Role: access.RoleProduction}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: testDB(t), em: &mockEmitter{}, clock: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	f.db.SetClock(func() time.Time { return f.clock })
	agg := aggregate.New(f.db, resolver, f.em)
	agg.SetLogFunc(func(string, ...any) {})
	f.mgr = NewManager(f.db, resolver, access.NewResolver(f.db), agg, f.em)
	f.mgr.SetLogFunc(func(string, ...any) {})
	f.room = &store.Room{Name: "Print hall", IsActive: true}
	require.NoError(t, f.db.CreateRoom(f.room))
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

// materialize creates the orders for one item and returns them with their operations.
func (f *fixture) materialize(t *testing.T, source, expr string, branches ...string) ([]*store.ProductionOrder, [][]*store.Operation) {
	t.Helper()
	orders, err := f.mgr.Materialize(context.Background(), MaterializeRequest{
		SourceOrderID: source,
		RoomID:        &f.room.ID,
		Actor:         admin,
		Items: []MaterializeItem{{
			SourceItemID:   "item-1",
			ProductID:      "P-1",
			PathExpression: expr,
			Quantity:       50,
			Branches:       branches,
		}},
	})
	require.NoError(t, err)
	var ops [][]*store.Operation
	for _, o := range orders {
		list, err := f.db.ListOperationsByOrder(o.ID)
		require.NoError(t, err)
		ops = append(ops, list)
	}
	return orders, ops
}

func TestOperationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders, ops := f.materialize(t, "SO-1", "10+11")
	require.Len(t, orders, 1)
	require.Len(t, ops[0], 3)
	op1 := ops[0][0]

	got, err := f.mgr.Start(ctx, operator, op1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, store.OpActive, got.Status)
	assert.Equal(t, "op-1", got.OperatorID)
	order, _ := f.db.GetProductionOrder(orders[0].ID)
	assert.Equal(t, store.OrderInProgress, order.Status)
	require.NotNil(t, order.ActualStartDate)

	f.advance(15 * time.Minute)
	got, err = f.mgr.Pause(ctx, operator, op1.ID, "lunch")
	require.NoError(t, err)
	assert.Equal(t, store.OpPaused, got.Status)
	assert.Equal(t, 15, got.ActualTime)

	f.advance(45 * time.Minute)
	got, err = f.mgr.Start(ctx, operator, op1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, store.OpActive, got.Status)
	assert.Equal(t, 15, got.ActualTime, "resume keeps accumulated time")
	assert.True(t, got.StartTime.Equal(f.clock), "fresh start time")

	f.advance(10 * time.Minute)
	got, err = f.mgr.Complete(ctx, operator, op1.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, store.OpCompleted, got.Status)
	assert.Equal(t, 25, got.ActualTime)
	assert.Equal(t, 50, got.OutputQuantity)
	require.NotNil(t, got.EndTime)

	started := f.em.byKind("operation.started")
	require.Len(t, started, 2)
	assert.False(t, started[0].resumed)
	assert.True(t, started[1].resumed)
	assert.Equal(t, orders[0].ID, started[0].ref.OrderID)
	require.NotNil(t, started[0].ref.RoomID)
	assert.Equal(t, f.room.ID, *started[0].ref.RoomID)

	paused := f.em.byKind("operation.paused")
	require.Len(t, paused, 1)
	assert.Equal(t, "lunch", paused[0].reason)
	assert.Equal(t, 15, paused[0].actualTime)

	completed := f.em.byKind("operation.completed")
	require.Len(t, completed, 1)
	assert.Equal(t, 50, completed[0].quantity)
	assert.Equal(t, 25, completed[0].actualTime)

	promoted := f.em.byKind("order.updated")
	require.Len(t, promoted, 1)
	assert.Equal(t, store.OrderApproved, promoted[0].oldStatus)
	assert.Equal(t, store.OrderInProgress, promoted[0].newStatus)

	logs, err := f.db.ListProductionLogs(orders[0].ID)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, store.ActionOperationStarted, logs[0].Action)
	assert.Equal(t, store.ActionOperationPaused, logs[1].Action)
	assert.Equal(t, "lunch", logs[1].Notes)
	assert.Equal(t, "resumed", logs[2].Notes)
	assert.Equal(t, store.OpPaused, logs[2].PreviousStatus)
	assert.Equal(t, store.ActionOperationCompleted, logs[3].Action)
	assert.Equal(t, "op-1", logs[3].UserID)
}

func TestAuditLogFailureKeepsTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-3", "12")
	id := ops[0][0].ID

	var logged []string
	f.mgr.SetLogFunc(func(format string, args ...any) { logged = append(logged, format) })
	_, err := f.db.Exec(`DROP TABLE production_logs`)
	require.NoError(t, err)

	got, err := f.mgr.Start(ctx, operator, id, nil)
	require.NoError(t, err)
	assert.Equal(t, store.OpActive, got.Status)

	stored, err := f.db.GetOperation(id)
	require.NoError(t, err)
	assert.Equal(t, store.OpActive, stored.Status)
	assert.Len(t, f.em.byKind("operation.started"), 1)
	assert.Contains(t, logged, "operations: log %s of operation %d: %v")
}

func TestOrderCompletesWithLastOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders, ops := f.materialize(t, "SO-2", "11+12")
	for i, op := range ops[0] {
		_, err := f.mgr.Start(ctx, operator, op.ID, nil)
		require.NoError(t, err)
		_, err = f.mgr.Complete(ctx, operator, op.ID, 10+i)
		require.NoError(t, err)
	}

	order, _ := f.db.GetProductionOrder(orders[0].ID)
	assert.Equal(t, store.OrderCompleted, order.Status)
	assert.Equal(t, 11, order.CompletedQuantity)
	wo, _ := f.db.GetWorkOrder(*order.WorkOrderID)
	assert.Equal(t, store.OrderCompleted, wo.Status)
}

func TestStartTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-3", "12")
	id := ops[0][0].ID

	_, err := f.mgr.Start(ctx, operator, id, nil)
	require.NoError(t, err)
	_, err = f.mgr.Start(ctx, operator, id, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConflict))
	var ce *errs.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, store.OpActive, ce.Current)

	_, err = f.mgr.Complete(ctx, operator, id, 3)
	require.NoError(t, err)
	_, err = f.mgr.Complete(ctx, operator, id, 3)
	assert.True(t, errors.Is(err, errs.ErrConflict))
	_, err = f.mgr.Cancel(ctx, operator, id, "late")
	assert.True(t, errors.Is(err, errs.ErrConflict), "completed is terminal")
}

func TestConcurrentStartHasOneWinner(t *testing.T) {
	f := newFixture(t)
	_, ops := f.materialize(t, "SO-4", "12")
	id := ops[0][0].ID

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.mgr.Start(context.Background(), operator, id, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, errs.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
	assert.Len(t, f.em.byKind("operation.started"), 1)
}

func TestTransitionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-5", "12")
	id := ops[0][0].ID

	_, err := f.mgr.Pause(ctx, operator, id, "")
	assert.True(t, errors.Is(err, errs.ErrConflict), "pause from pending")
	_, err = f.mgr.Complete(ctx, operator, id, 5)
	assert.True(t, errors.Is(err, errs.ErrConflict), "complete from pending")

	_, err = f.mgr.Start(ctx, operator, id, nil)
	require.NoError(t, err)
	for _, qty := range []int{0, -1} {
		_, err = f.mgr.Complete(ctx, operator, id, qty)
		assert.True(t, errors.Is(err, errs.ErrValidation), "quantity %d", qty)
	}
	op, _ := f.db.GetOperation(id)
	assert.Equal(t, store.OpActive, op.Status)

	_, err = f.mgr.Transition(ctx, TransitionRequest{OperationID: id, Action: "rewind", Actor: operator})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = f.mgr.Start(ctx, operator, 9999, nil)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCancelAndProblem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-6", "12")
	id := ops[0][0].ID

	_, err := f.mgr.Start(ctx, operator, id, nil)
	require.NoError(t, err)

	_, err = f.mgr.ReportProblem(ctx, operator, id, "")
	assert.True(t, errors.Is(err, errs.ErrValidation))
	got, err := f.mgr.ReportProblem(ctx, operator, id, "nozzle clogged")
	require.NoError(t, err)
	assert.Equal(t, store.OpActive, got.Status)
	assert.Equal(t, "nozzle clogged", got.ProblemNote)
	require.Len(t, f.em.byKind("operation.problem"), 1)

	f.advance(7 * time.Minute)
	got, err = f.mgr.Cancel(ctx, operator, id, "material missing")
	require.NoError(t, err)
	assert.Equal(t, store.OpCancelled, got.Status)
	assert.Equal(t, 7, got.ActualTime)

	_, err = f.mgr.ReportProblem(ctx, operator, id, "again")
	assert.True(t, errors.Is(err, errs.ErrConflict))

	cancelled := f.em.byKind("operation.cancelled")
	require.Len(t, cancelled, 1)
	assert.Equal(t, "material missing", cancelled[0].reason)
}

func TestTransitionRequiresOperateAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-7", "12")
	id := ops[0][0].ID

	stranger := access.Actor{UserID: "op-2", Role: access.RoleOperator}
	_, err := f.mgr.Start(ctx, stranger, id, nil)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	require.NoError(t, f.db.AddRoomOperator(f.room.ID, "op-2"))
	_, err = f.mgr.Start(ctx, stranger, id, nil)
	require.NoError(t, err)

	_, err = f.mgr.Pause(ctx, access.Actor{UserID: "g", Role: access.RoleGraphics}, id, "")
	assert.True(t, errors.Is(err, errs.ErrForbidden))
}

func TestStartOnRestrictedStation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ops := f.materialize(t, "SO-8", "12")
	id := ops[0][0].ID

	wc := &store.WorkCenter{RoomID: &f.room.ID, Name: "Packing", Type: "finishing", IsActive: true}
	require.NoError(t, f.db.CreateWorkCenter(wc))
	ws := &store.WorkStation{WorkCenterID: wc.ID, Name: "Pack 1", Code: "PK1", RestrictToAssignedProducts: true}
	require.NoError(t, f.db.CreateWorkStation(ws))

	_, err := f.mgr.Start(ctx, operator, id, &ws.ID)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	require.NoError(t, f.db.AssignProduct(ws.ID, "P-1", "admin"))
	got, err := f.mgr.Start(ctx, operator, id, &ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WorkStationID)
	assert.Equal(t, ws.ID, *got.WorkStationID)
}

func TestMaterialize(t *testing.T) {
	f := newFixture(t)
	orders, ops := f.materialize(t, "SO-9", "10+11|12")
	require.Len(t, orders, 2)

	require.NotNil(t, orders[0].BranchCode)
	assert.Equal(t, "A", *orders[0].BranchCode)
	assert.Equal(t, []string{"10", "11"}, orders[0].BranchPathCodes)
	assert.Equal(t, store.OrderApproved, orders[0].Status)
	require.Len(t, ops[0], 3)
	assert.Equal(t, []string{"print", "dry", "cut"}, []string{ops[0][0].OperationType, ops[0][1].OperationType, ops[0][2].OperationType})
	assert.Equal(t, 3, ops[0][2].Sequence)

	assert.Equal(t, "B", *orders[1].BranchCode)
	require.Len(t, ops[1], 1)
	assert.Equal(t, "12", ops[1][0].PathCode)

	wo, err := f.db.GetWorkOrder(*orders[0].WorkOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderApproved, wo.Status)
	assert.Equal(t, f.room.ID, *wo.RoomID)

	again, err := f.mgr.Materialize(context.Background(), MaterializeRequest{
		SourceOrderID: "SO-9",
		WorkOrderID:   &wo.ID,
		Actor:         admin,
		Items:         []MaterializeItem{{SourceItemID: "item-1", PathExpression: "10+11|12"}},
	})
	require.NoError(t, err)
	assert.Empty(t, again, "existing branches are not duplicated")
}

func TestMaterializeRedeliveryKeepsOneWorkOrder(t *testing.T) {
	f := newFixture(t)
	first, _ := f.materialize(t, "SO-20", "10+11")
	require.Len(t, first, 1)

	second, _ := f.materialize(t, "SO-20", "10+11")
	assert.Empty(t, second)

	wos, err := f.db.ListWorkOrdersBySource("SO-20")
	require.NoError(t, err)
	require.Len(t, wos, 1)
	assert.Equal(t, *first[0].WorkOrderID, wos[0].ID)
	assert.Equal(t, store.OrderApproved, wos[0].Status)

	// A new item on the same source order joins the existing work order.
	more, err := f.mgr.Materialize(context.Background(), MaterializeRequest{
		SourceOrderID: "SO-20",
		RoomID:        &f.room.ID,
		Actor:         admin,
		Items:         []MaterializeItem{{SourceItemID: "item-2", ProductID: "P-2", PathExpression: "12", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Equal(t, wos[0].ID, *more[0].WorkOrderID)
	wos, _ = f.db.ListWorkOrdersBySource("SO-20")
	assert.Len(t, wos, 1)
}

func TestMaterializeNothingToProduceCreatesNoWorkOrder(t *testing.T) {
	f := newFixture(t)
	none, _ := f.materialize(t, "SO-21", "  |  ")
	assert.Empty(t, none)

	wos, err := f.db.ListWorkOrdersBySource("SO-21")
	require.NoError(t, err)
	assert.Empty(t, wos)
}

func TestMaterializeBranchSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orders, _ := f.materialize(t, "SO-10", "10|11|12", "c")
	require.Len(t, orders, 1)
	assert.Equal(t, "C", *orders[0].BranchCode)
	assert.Equal(t, []string{"12"}, orders[0].BranchPathCodes)

	single, _ := f.materialize(t, "SO-11", "11+12")
	require.Len(t, single, 1)
	assert.Nil(t, single[0].BranchCode)

	none, _ := f.materialize(t, "SO-12", " | + ")
	assert.Empty(t, none)

	_, err := f.mgr.Materialize(ctx, MaterializeRequest{
		SourceOrderID: "SO-13",
		RoomID:        &f.room.ID,
		Actor:         admin,
		Items:         []MaterializeItem{{SourceItemID: "x", PathExpression: "11", Branches: []string{"A"}}},
	})
	assert.True(t, errors.Is(err, errs.ErrValidation), "single branch has no letters")

	_, err = f.mgr.Materialize(ctx, MaterializeRequest{SourceOrderID: "SO-14", RoomID: &f.room.ID, Actor: operator})
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = f.mgr.Materialize(ctx, MaterializeRequest{Actor: admin})
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestReassignBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := &store.ProductionOrder{SourceOrderID: "SO-15", PathExpression: "10|12"}
	require.NoError(t, f.db.CreateProductionOrder(o))

	got, err := f.mgr.ReassignBranch(ctx, admin, o.ID, "b")
	require.NoError(t, err)
	require.NotNil(t, got.BranchCode)
	assert.Equal(t, "B", *got.BranchCode)
	assert.Equal(t, []string{"12"}, got.BranchPathCodes)

	_, err = f.mgr.ReassignBranch(ctx, admin, o.ID, "Z")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	require.NoError(t, f.db.CreateOperation(&store.Operation{ProductionOrderID: o.ID, Sequence: 1, PathCode: "12"}))
	_, err = f.mgr.ReassignBranch(ctx, admin, o.ID, "A")
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TestCancelSourceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders, ops := f.materialize(t, "SO-16", "10|12")
	_, err := f.mgr.Start(ctx, operator, ops[0][0].ID, nil)
	require.NoError(t, err)
	_, err = f.mgr.Start(ctx, operator, ops[1][0].ID, nil)
	require.NoError(t, err)
	_, err = f.mgr.Complete(ctx, operator, ops[1][0].ID, 4)
	require.NoError(t, err)

	n, err := f.mgr.CancelSourceOrder(ctx, access.System, "SO-16", "order withdrawn")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, _ := f.db.ListOperationsByOrder(orders[0].ID)
	for _, op := range list {
		assert.Equal(t, store.OpCancelled, op.Status)
	}
	done, _ := f.db.GetOperation(ops[1][0].ID)
	assert.Equal(t, store.OpCompleted, done.Status)

	n, err = f.mgr.CancelSourceOrder(ctx, access.System, "SO-16", "order withdrawn")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestObserverSeesOutcomes(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	seen := map[string]int{}
	f.mgr.SetObserver(func(action, result string) {
		mu.Lock()
		defer mu.Unlock()
		seen[action+"/"+result]++
	})
	_, ops := f.materialize(t, "SO-17", "12")
	id := ops[0][0].ID
	_, _ = f.mgr.Start(context.Background(), operator, id, nil)
	_, _ = f.mgr.Start(context.Background(), operator, id, nil)

	assert.Equal(t, 1, seen["materialize/ok"])
	assert.Equal(t, 1, seen["start/ok"])
	assert.Equal(t, 1, seen["start/conflict"])
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, action string
		want         bool
	}{
		{store.OpPending, ActionStart, true},
		{store.OpPaused, ActionStart, true},
		{store.OpActive, ActionStart, false},
		{store.OpActive, ActionPause, true},
		{store.OpPaused, ActionPause, false},
		{store.OpPaused, ActionComplete, true},
		{store.OpPending, ActionComplete, false},
		{store.OpPending, ActionCancel, true},
		{store.OpCompleted, ActionCancel, false},
		{store.OpCancelled, ActionProblem, false},
		{store.OpPending, "rewind", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidTransition(tt.from, tt.action), "%s from %s", tt.action, tt.from)
	}
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	active := &store.Operation{Status: store.OpActive, StartTime: &start}
	assert.Equal(t, 0, elapsedMinutes(active, start.Add(29*time.Second)))
	assert.Equal(t, 1, elapsedMinutes(active, start.Add(30*time.Second)))
	assert.Equal(t, 90, elapsedMinutes(active, start.Add(90*time.Minute)))
	assert.Equal(t, 0, elapsedMinutes(active, start.Add(-time.Minute)))
	assert.Equal(t, 0, elapsedMinutes(&store.Operation{Status: store.OpPaused, StartTime: &start}, start.Add(time.Hour)))
}
