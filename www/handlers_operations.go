package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prodflow/errs"
	"prodflow/operations"
)

func (h *Handlers) apiGetOperation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	op, err := h.engine.DB().GetOperation(id)
	if err != nil {
		h.jsonFail(w, errs.FromStore("operation", id, err))
		return
	}
	h.jsonOK(w, op)
}

type transitionBody struct {
	WorkStationID *int64 `json:"workStationId"`
	Quantity      int    `json:"quantity"`
	Reason        string `json:"reason"`
	Note          string `json:"note"`
}

func (h *Handlers) apiTransition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	action := chi.URLParam(r, "action")
	if !operations.IsKnownAction(action) {
		h.jsonError(w, "unknown action "+action, http.StatusNotFound)
		return
	}
	var body transitionBody
	if err := decodeJSON(r, &body); err != nil {
		h.jsonFail(w, err)
		return
	}
	op, err := h.engine.Operations().Transition(r.Context(), operations.TransitionRequest{
		OperationID:   id,
		Action:        action,
		Actor:         actorFrom(r),
		WorkStationID: body.WorkStationID,
		Quantity:      body.Quantity,
		Reason:        body.Reason,
		Note:          body.Note,
	})
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, op)
}
