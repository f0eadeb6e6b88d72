// Package expansion turns a production order's chosen branch into the
// roster of operations it is expected to produce.
package expansion

import (
	"context"

	"prodflow/pathexpr"
	"prodflow/store"
)

// Resolver maps a path code to its operation types. Implementations never
// return an empty list.
type Resolver interface {
	Resolve(ctx context.Context, code string) []string
}

// SelectBranch picks the branch an order runs. An empty code selects the
// first branch. A letter code only addresses a branch when the expression
// has more than one.
func SelectBranch(branches pathexpr.Branches, branchCode string) ([]string, bool) {
	if len(branches) == 0 {
		return nil, false
	}
	if branchCode == "" {
		return branches[0], true
	}
	if len(branches) < 2 {
		return nil, false
	}
	idx, ok := pathexpr.BranchIndex(branchCode)
	if !ok || idx >= len(branches) {
		return nil, false
	}
	return branches[idx], true
}

// BranchPathCodes returns the path codes the order executes. The snapshot
// taken when the order was created wins over re-parsing the expression.
func BranchPathCodes(o *store.ProductionOrder) ([]string, bool) {
	if len(o.BranchPathCodes) > 0 {
		return o.BranchPathCodes, true
	}
	var code string
	if o.BranchCode != nil {
		code = *o.BranchCode
	}
	codes, ok := SelectBranch(pathexpr.Parse(o.PathExpression), code)
	if !ok || len(codes) == 0 {
		return nil, false
	}
	return codes, true
}

// ExpectedOperationCount sums the operations of every path code on the
// order's branch. The bool is false when the count cannot be estimated.
func ExpectedOperationCount(ctx context.Context, r Resolver, o *store.ProductionOrder) (int, bool) {
	codes, ok := BranchPathCodes(o)
	if !ok {
		return 0, false
	}
	n := 0
	for _, code := range codes {
		n += len(r.Resolve(ctx, code))
	}
	return n, true
}

// ExpandOperations builds the pending operations for the order's branch,
// numbered from 1 in path order.
func ExpandOperations(ctx context.Context, r Resolver, o *store.ProductionOrder) []*store.Operation {
	codes, ok := BranchPathCodes(o)
	if !ok {
		return nil
	}
	var ops []*store.Operation
	for _, code := range codes {
		for _, opType := range r.Resolve(ctx, code) {
			ops = append(ops, &store.Operation{
				ProductionOrderID: o.ID,
				Sequence:          len(ops) + 1,
				PathCode:          code,
				OperationType:     opType,
				Status:            store.OpPending,
			})
		}
	}
	return ops
}
