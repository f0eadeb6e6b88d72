package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prodflow/access"
	"prodflow/aggregate"
	"prodflow/errs"
	"prodflow/expansion"
	"prodflow/operations"
	"prodflow/store"
)

type productionOrderDetail struct {
	Order                  *store.ProductionOrder `json:"order"`
	Operations             []*store.Operation     `json:"operations"`
	ExpectedOperationCount *int                   `json:"expectedOperationCount"`
	TimePriority           aggregate.Priority     `json:"timePriority"`
}

func (h *Handlers) apiGetProductionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	db := h.engine.DB()
	o, err := db.GetProductionOrder(id)
	if err != nil {
		h.jsonFail(w, errs.FromStore("production order", id, err))
		return
	}
	ops, err := db.ListOperationsByOrder(id)
	if err != nil {
		h.jsonFail(w, errs.NewDependencyError("store", err))
		return
	}
	if ops == nil {
		ops = []*store.Operation{}
	}
	detail := productionOrderDetail{
		Order:        o,
		Operations:   ops,
		TimePriority: aggregate.TimePriority(o.DeliveryDate, o.EstimatedMinutes, db.Now()),
	}
	if n, ok := expansion.ExpectedOperationCount(r.Context(), h.engine.Catalog(), o); ok {
		detail.ExpectedOperationCount = &n
	}
	h.jsonOK(w, detail)
}

func (h *Handlers) apiProductionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.Aggregator().ComputeProductionStatus(r.Context(), chi.URLParam(r, "sourceOrderID"))
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, status)
}

func (h *Handlers) apiMaterialize(w http.ResponseWriter, r *http.Request) {
	var req operations.MaterializeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonFail(w, err)
		return
	}
	req.SourceOrderID = chi.URLParam(r, "sourceOrderID")
	req.Actor = actorFrom(r)
	created, err := h.engine.Operations().Materialize(r.Context(), req)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if created == nil {
		created = []*store.ProductionOrder{}
	}
	h.jsonCreated(w, created)
}

func (h *Handlers) apiReassignBranch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	var body struct {
		BranchCode string `json:"branchCode"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.jsonFail(w, err)
		return
	}
	o, err := h.engine.Operations().ReassignBranch(r.Context(), actorFrom(r), id, body.BranchCode)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, o)
}

func (h *Handlers) apiFixOrphaned(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Access().Require(r.Context(), actorFrom(r), nil, access.Manage); err != nil {
		h.jsonFail(w, err)
		return
	}
	ids, err := h.engine.Aggregator().RepairOrphaned(r.Context())
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	h.jsonOK(w, map[string]any{"fixed": len(ids), "orderIds": ids})
}

func (h *Handlers) apiKPIOverview(w http.ResponseWriter, r *http.Request) {
	roomID, err := optionalID(r, "roomId")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	kpi, err := h.engine.Aggregator().KPIOverview(r.Context(), roomID)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, kpi)
}
