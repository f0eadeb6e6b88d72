package expansion

import (
	"context"
	"reflect"
	"testing"

	"prodflow/pathexpr"
	"prodflow/store"
)

type mapResolver map[string][]string

func (m mapResolver) Resolve(_ context.Context, code string) []string {
	if ops, ok := m[code]; ok && len(ops) > 0 {
		return ops
	}
	return []string{"generic"}
}

func strPtr(s string) *string { return &s }

func TestSelectBranch(t *testing.T) {
	two := pathexpr.Parse("10+11|12")
	one := pathexpr.Parse("10+11")
	tests := []struct {
		name     string
		branches pathexpr.Branches
		code     string
		want     []string
		ok       bool
	}{
		{"no code picks first", two, "", []string{"10", "11"}, true},
		{"letter A", two, "A", []string{"10", "11"}, true},
		{"letter B", two, "B", []string{"12"}, true},
		{"letter out of range", two, "C", nil, false},
		{"letter on single branch", one, "A", nil, false},
		{"single branch no code", one, "", []string{"10", "11"}, true},
		{"garbage code", two, "1", nil, false},
		{"no branches", nil, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBranch(tt.branches, tt.code)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectBranch(%q) = %v, %v; want %v, %v", tt.code, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBranchPathCodesPrefersSnapshot(t *testing.T) {
	o := &store.ProductionOrder{PathExpression: "1|2", BranchCode: strPtr("B"), BranchPathCodes: []string{"7", "8"}}
	got, ok := BranchPathCodes(o)
	if !ok || !reflect.DeepEqual(got, []string{"7", "8"}) {
		t.Errorf("snapshot = %v, %v", got, ok)
	}

	o.BranchPathCodes = nil
	got, ok = BranchPathCodes(o)
	if !ok || !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("parsed = %v, %v", got, ok)
	}
}

func TestExpectedOperationCount(t *testing.T) {
	r := mapResolver{"10": {"print", "dry"}, "11": {"cut"}, "12": {"pack"}, "13": nil}
	ctx := context.Background()
	tests := []struct {
		name  string
		order *store.ProductionOrder
		want  int
		ok    bool
	}{
		{"first branch", &store.ProductionOrder{PathExpression: "10+11|12"}, 3, true},
		{"explicit branch", &store.ProductionOrder{PathExpression: "10+11|12", BranchCode: strPtr("B")}, 1, true},
		{"unknown code counts one", &store.ProductionOrder{PathExpression: "10+99"}, 3, true},
		{"known code without operations counts one", &store.ProductionOrder{PathExpression: "13"}, 1, true},
		{"empty expression", &store.ProductionOrder{PathExpression: "  "}, 0, false},
		{"branch not found", &store.ProductionOrder{PathExpression: "10", BranchCode: strPtr("B")}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExpectedOperationCount(ctx, r, tt.order)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ExpectedOperationCount = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExpandOperations(t *testing.T) {
	r := mapResolver{"10": {"print", "dry"}, "11": {"cut"}}
	o := &store.ProductionOrder{ID: 4, PathExpression: "10+11+42"}
	ops := ExpandOperations(context.Background(), r, o)
	if len(ops) != 4 {
		t.Fatalf("len = %d, want 4", len(ops))
	}
	want := []struct {
		seq  int
		code string
		typ  string
	}{{1, "10", "print"}, {2, "10", "dry"}, {3, "11", "cut"}, {4, "42", "generic"}}
	for i, w := range want {
		op := ops[i]
		if op.Sequence != w.seq || op.PathCode != w.code || op.OperationType != w.typ || op.Status != store.OpPending || op.ProductionOrderID != 4 {
			t.Errorf("op[%d] = %+v, want %+v", i, op, w)
		}
	}

	if got := ExpandOperations(context.Background(), r, &store.ProductionOrder{PathExpression: "|"}); got != nil {
		t.Errorf("degenerate expression expanded to %v", got)
	}
}

func TestExpansionMatchesExpectedCount(t *testing.T) {
	r := mapResolver{"1": {"a", "b"}, "2": {"c"}}
	for _, expr := range []string{"1", "1+2", "2+2+9", "1+2|9"} {
		o := &store.ProductionOrder{PathExpression: expr}
		n, _ := ExpectedOperationCount(context.Background(), r, o)
		if got := len(ExpandOperations(context.Background(), r, o)); got != n {
			t.Errorf("%q: expanded %d, expected %d", expr, got, n)
		}
	}
}
