package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prodflow/access"
	"prodflow/catalog"
	"prodflow/store"
)

func (h *Handlers) apiListPaths(w http.ResponseWriter, r *http.Request) {
	paths := h.engine.Catalog().Paths(r.Context())
	if paths == nil {
		paths = []catalog.Path{}
	}
	h.jsonOK(w, paths)
}

func (h *Handlers) apiListPathCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.engine.Access().PathCodes(r.Context())
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if codes == nil {
		codes = []access.PathCode{}
	}
	h.jsonOK(w, codes)
}

func (h *Handlers) apiEligiblePathCodes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	codes, err := h.engine.Access().EligiblePathCodes(r.Context(), id)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	h.jsonOK(w, map[string]any{"roomId": id, "pathCodes": codes})
}

func (h *Handlers) apiRoomAccess(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	actor := actorFrom(r)
	lvl, err := h.engine.Access().AccessLevel(r.Context(), actor, &id)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{
		"roomId":      id,
		"userId":      actor.UserID,
		"accessLevel": lvl,
		"canManage":   lvl >= access.Manage,
		"canOperate":  lvl >= access.Operate,
	})
}

func (h *Handlers) apiRoomVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	expr := r.URL.Query().Get("expression")
	visible, err := h.engine.Access().RoomProductVisible(r.Context(), id, expr)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"roomId": id, "expression": expr, "visible": visible})
}

func (h *Handlers) apiListPathMappings(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	list, err := h.engine.Access().ListPathMappings(r.Context(), actorFrom(r), id)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if list == nil {
		list = []*store.PathMapping{}
	}
	h.jsonOK(w, list)
}

func (h *Handlers) apiAddPathMapping(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	var body struct {
		PathCode string `json:"pathCode"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.jsonFail(w, err)
		return
	}
	m, err := h.engine.Access().AddPathMapping(r.Context(), actorFrom(r), id, body.PathCode)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonCreated(w, m)
}

func (h *Handlers) apiRemovePathMapping(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if err := h.engine.Access().RemovePathMapping(r.Context(), actorFrom(r), id, chi.URLParam(r, "code")); err != nil {
		h.jsonFail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) apiSetRestriction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	var body struct {
		Restrict bool `json:"restrictToAssignedProducts"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.jsonFail(w, err)
		return
	}
	if err := h.engine.Access().SetStationRestriction(r.Context(), actorFrom(r), id, body.Restrict); err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"workStationId": id, "restrictToAssignedProducts": body.Restrict})
}

func (h *Handlers) apiListAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	list, err := h.engine.Access().ListProductAssignments(r.Context(), actorFrom(r), id)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if list == nil {
		list = []*store.ProductAssignment{}
	}
	h.jsonOK(w, list)
}

func (h *Handlers) apiAssignProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.jsonFail(w, err)
		return
	}
	if err := h.engine.Access().AssignProduct(r.Context(), actorFrom(r), id, body.ProductID); err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonCreated(w, map[string]any{"workStationId": id, "productId": body.ProductID})
}

func (h *Handlers) apiUnassignProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	if err := h.engine.Access().UnassignProduct(r.Context(), actorFrom(r), id, chi.URLParam(r, "productID")); err != nil {
		h.jsonFail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
