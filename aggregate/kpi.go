package aggregate

import (
	"context"
	"time"

	"prodflow/errs"
	"prodflow/store"
)

type KPIWindow struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	InProgress        int `json:"inProgress"`
	Planned           int `json:"planned"`
	TotalQuantity     int `json:"totalQuantity"`
	CompletedQuantity int `json:"completedQuantity"`
}

type KPIOverview struct {
	Today KPIWindow `json:"today"`
	Week  KPIWindow `json:"week"`
	Month KPIWindow `json:"month"`
}

// KPIOverview summarizes production orders created today, in the last
// seven days and this calendar month, optionally for one room.
func (a *Aggregator) KPIOverview(ctx context.Context, roomID *int64) (*KPIOverview, error) {
	now := a.db.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.Add(-7 * 24 * time.Hour)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	earliest := weekStart
	if monthStart.Before(earliest) {
		earliest = monthStart
	}
	orders, err := a.db.ListProductionOrdersCreatedSince(earliest, roomID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}

	var kpi KPIOverview
	for _, o := range orders {
		if !o.CreatedAt.Before(todayStart) {
			kpi.Today.add(o)
		}
		if !o.CreatedAt.Before(weekStart) {
			kpi.Week.add(o)
		}
		if !o.CreatedAt.Before(monthStart) {
			kpi.Month.add(o)
		}
	}
	return &kpi, nil
}

func (w *KPIWindow) add(o *store.ProductionOrder) {
	w.Total++
	switch o.Status {
	case store.OrderCompleted:
		w.Completed++
	case store.OrderInProgress, store.OrderPaused:
		w.InProgress++
	case store.OrderPlanned, store.OrderApproved:
		w.Planned++
	}
	w.TotalQuantity += o.Quantity
	w.CompletedQuantity += o.CompletedQuantity
}

// BroadcastKPI computes the overview and emits it. A nil room is the global view.
func (a *Aggregator) BroadcastKPI(ctx context.Context, roomID *int64) (*KPIOverview, error) {
	kpi, err := a.KPIOverview(ctx, roomID)
	if err != nil {
		return nil, err
	}
	a.emitter.EmitKPIUpdated(roomID, kpi)
	return kpi, nil
}
