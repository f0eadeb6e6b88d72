package access

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"prodflow/errs"
	"prodflow/pathexpr"
	"prodflow/store"
)

// Resolver answers access and routing questions against the store.
type Resolver struct {
	db *store.DB
}

func NewResolver(db *store.DB) *Resolver {
	return &Resolver{db: db}
}

// AccessLevel resolves the actor's level for a room. A nil room is judged on
// role alone.
func (r *Resolver) AccessLevel(ctx context.Context, actor Actor, roomID *int64) (Level, error) {
	if roomID == nil {
		return ResolveAccessLevel(actor, nil, true), nil
	}
	room, err := r.db.GetRoom(*roomID)
	if err != nil {
		return None, errs.FromStore("room", *roomID, err)
	}
	assigned := false
	if actor.UserID != "" && actor.Role == RoleOperator {
		assigned, err = r.db.IsRoomOperator(room.ID, actor.UserID)
		if err != nil {
			return None, errs.FromStore("room", room.ID, err)
		}
	}
	return ResolveAccessLevel(actor, room, assigned), nil
}

// Require fails with AuthorizationError unless the actor has at least min.
func (r *Resolver) Require(ctx context.Context, actor Actor, roomID *int64, min Level) error {
	lvl, err := r.AccessLevel(ctx, actor, roomID)
	if err != nil {
		return err
	}
	if lvl < min {
		return errs.NewAuthorizationError(actor.UserID, min.String(), lvl.String())
	}
	return nil
}

func (r *Resolver) CanManage(ctx context.Context, actor Actor, roomID int64) (bool, error) {
	return r.atLeast(ctx, actor, roomID, Manage)
}

func (r *Resolver) CanOperate(ctx context.Context, actor Actor, roomID int64) (bool, error) {
	return r.atLeast(ctx, actor, roomID, Operate)
}

func (r *Resolver) CanView(ctx context.Context, actor Actor, roomID int64) (bool, error) {
	return r.atLeast(ctx, actor, roomID, View)
}

func (r *Resolver) atLeast(ctx context.Context, actor Actor, roomID int64, min Level) (bool, error) {
	lvl, err := r.AccessLevel(ctx, actor, &roomID)
	if err != nil {
		return false, err
	}
	return lvl >= min, nil
}

// EligiblePathCodes returns the path codes a room can execute. Explicit
// active mappings win; without any, the room's work-center types decide.
func (r *Resolver) EligiblePathCodes(ctx context.Context, roomID int64) ([]string, error) {
	if _, err := r.db.GetRoom(roomID); err != nil {
		return nil, errs.FromStore("room", roomID, err)
	}
	codes, err := r.db.ListMappedCodesForRoom(roomID)
	if err != nil {
		return nil, errs.FromStore("room", roomID, err)
	}
	if len(codes) > 0 {
		return codes, nil
	}
	centers, err := r.db.ListActiveWorkCentersByRoom(roomID)
	if err != nil {
		return nil, errs.FromStore("room", roomID, err)
	}
	seen := map[string]bool{}
	for _, wc := range centers {
		for _, c := range TypePathCodes(wc.Type) {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}
	SortPathCodes(codes)
	return codes, nil
}

// ProductVisible reports whether a product's routing expression touches the
// eligible set, by exact code or base code. An empty set hides nothing.
func ProductVisible(expr string, eligible []string) bool {
	if len(eligible) == 0 {
		return true
	}
	set := make(map[string]bool, len(eligible))
	for _, c := range eligible {
		set[strings.TrimSpace(c)] = true
	}
	for _, code := range pathexpr.ParseRouting(expr) {
		if set[code] || set[pathexpr.BaseCode(code)] {
			return true
		}
	}
	return false
}

// RoomProductVisible combines EligiblePathCodes and ProductVisible.
func (r *Resolver) RoomProductVisible(ctx context.Context, roomID int64, expr string) (bool, error) {
	eligible, err := r.EligiblePathCodes(ctx, roomID)
	if err != nil {
		return false, err
	}
	return ProductVisible(expr, eligible), nil
}

// CheckStationProduct rejects a product on a station restricted to assigned products.
func (r *Resolver) CheckStationProduct(ctx context.Context, stationID int64, productID string) error {
	ws, err := r.db.GetWorkStation(stationID)
	if err != nil {
		return errs.FromStore("work station", stationID, err)
	}
	if !ws.RestrictToAssignedProducts {
		return nil
	}
	ok, err := r.db.IsProductAssigned(stationID, productID)
	if err != nil {
		return errs.FromStore("work station", stationID, err)
	}
	if !ok {
		return &errs.AuthorizationError{Reason: "product " + productID + " is not assigned to work station " + strconv.FormatInt(stationID, 10)}
	}
	return nil
}

// PathCodes lists every known path code from paths and mappings together
// with its base code.
func (r *Resolver) PathCodes(ctx context.Context) ([]PathCode, error) {
	paths, err := r.db.ListPaths()
	if err != nil {
		return nil, errs.FromStore("path", "", err)
	}
	mapped, err := r.db.ListMappedCodes()
	if err != nil {
		return nil, errs.FromStore("path mapping", "", err)
	}
	seen := map[string]bool{}
	var codes []string
	add := func(c string) {
		if c = strings.TrimSpace(c); c != "" && !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	for _, p := range paths {
		add(p.Code)
	}
	for _, c := range mapped {
		add(c)
	}
	SortPathCodes(codes)
	out := make([]PathCode, len(codes))
	for i, c := range codes {
		out[i] = PathCode{Code: c, BaseCode: pathexpr.BaseCode(c)}
	}
	return out, nil
}

type PathCode struct {
	Code     string `json:"code"`
	BaseCode string `json:"baseCode"`
}

// SortPathCodes orders codes numerically where they parse, then lexically.
func SortPathCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		a, errA := strconv.ParseFloat(codes[i], 64)
		b, errB := strconv.ParseFloat(codes[j], 64)
		switch {
		case errA == nil && errB == nil && a != b:
			return a < b
		case errA == nil && errB != nil:
			return true
		case errA != nil && errB == nil:
			return false
		}
		return codes[i] < codes[j]
	})
}
