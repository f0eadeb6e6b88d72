package aggregate

import (
	"context"

	"prodflow/errs"
	"prodflow/expansion"
	"prodflow/store"
)

// Overall production status of a sales order.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

var statusLabels = map[string]string{
	StatusNotStarted: "Not started",
	StatusPending:    "Planned",
	StatusInProgress: "In progress",
	StatusCompleted:  "Production ready",
}

// Per production order classification.
const (
	OrderClassCompleted  = "completed"
	OrderClassInProgress = "in_progress"
	OrderClassPending    = "pending"
)

type OrderDetail struct {
	OrderID            int64  `json:"orderId"`
	Status             string `json:"status"`
	BranchCode         string `json:"branchCode,omitempty"`
	Operations         int    `json:"operations"`
	ExpectedOperations *int   `json:"expectedOperations"`
}

type ProductionStatus struct {
	Status  string        `json:"status"`
	Label   string        `json:"label"`
	Details []OrderDetail `json:"details"`
}

func newStatus(status string, details []OrderDetail) *ProductionStatus {
	if details == nil {
		details = []OrderDetail{}
	}
	return &ProductionStatus{Status: status, Label: statusLabels[status], Details: details}
}

// ComputeProductionStatus rolls every production order of a sales order up
// into one status. It is recomputed on each call.
func (a *Aggregator) ComputeProductionStatus(ctx context.Context, sourceOrderID string) (*ProductionStatus, error) {
	if sourceOrderID == "" {
		return newStatus(StatusNotStarted, nil), nil
	}
	orders, err := a.db.ListProductionOrdersBySource(sourceOrderID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	if len(orders) == 0 {
		return newStatus(StatusNotStarted, nil), nil
	}

	allCompleted, anyInProgress := true, false
	details := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		ops, err := a.db.ListOperationsByOrder(o.ID)
		if err != nil {
			return nil, errs.NewDependencyError("store", err)
		}
		d := a.classify(ctx, o, ops)
		switch d.Status {
		case OrderClassInProgress:
			anyInProgress = true
			allCompleted = false
		case OrderClassPending:
			allCompleted = false
		}
		details = append(details, d)
	}

	switch {
	case allCompleted:
		return newStatus(StatusCompleted, details), nil
	case anyInProgress:
		return newStatus(StatusInProgress, details), nil
	default:
		return newStatus(StatusPending, details), nil
	}
}

func (a *Aggregator) classify(ctx context.Context, o *store.ProductionOrder, ops []*store.Operation) OrderDetail {
	d := OrderDetail{OrderID: o.ID, Operations: len(ops)}
	if o.BranchCode != nil {
		d.BranchCode = *o.BranchCode
	}
	expected, known := expansion.ExpectedOperationCount(ctx, a.resolver, o)
	if known {
		d.ExpectedOperations = &expected
	}

	switch {
	case o.Status == store.OrderCompleted || allExpectedCompleted(ops, expected, known):
		d.Status = OrderClassCompleted
	case o.Status == store.OrderInProgress || hasStatus(ops, store.OpActive, store.OpPaused):
		d.Status = OrderClassInProgress
	default:
		d.Status = OrderClassPending
	}
	return d
}

// allExpectedCompleted requires full coverage of the expected roster when
// it is known, and at least one operation otherwise.
func allExpectedCompleted(ops []*store.Operation, expected int, known bool) bool {
	if known && expected > 0 {
		if len(ops) < expected {
			return false
		}
	} else if len(ops) == 0 {
		return false
	}
	for _, op := range ops {
		if op.Status != store.OpCompleted {
			return false
		}
	}
	return true
}

func hasStatus(ops []*store.Operation, statuses ...string) bool {
	for _, op := range ops {
		for _, s := range statuses {
			if op.Status == s {
				return true
			}
		}
	}
	return false
}
