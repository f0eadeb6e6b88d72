package access

import (
	"context"
	"strings"

	"prodflow/errs"
	"prodflow/store"
)

func (r *Resolver) workCenterRoom(id int64) (*int64, error) {
	wc, err := r.db.GetWorkCenter(id)
	if err != nil {
		return nil, errs.FromStore("work center", id, err)
	}
	return wc.RoomID, nil
}

func (r *Resolver) stationRoom(id int64) (*int64, error) {
	ws, err := r.db.GetWorkStation(id)
	if err != nil {
		return nil, errs.FromStore("work station", id, err)
	}
	return r.workCenterRoom(ws.WorkCenterID)
}

// AddPathMapping maps a path code to a work center, reactivating a
// previously removed mapping.
func (r *Resolver) AddPathMapping(ctx context.Context, actor Actor, workCenterID int64, pathCode string) (*store.PathMapping, error) {
	pathCode = strings.TrimSpace(pathCode)
	if pathCode == "" {
		return nil, errs.NewValidationError("path_code", "is required")
	}
	roomID, err := r.workCenterRoom(workCenterID)
	if err != nil {
		return nil, err
	}
	if err := r.Require(ctx, actor, roomID, Manage); err != nil {
		return nil, err
	}
	m, err := r.db.UpsertPathMapping(workCenterID, pathCode)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	return m, nil
}

func (r *Resolver) RemovePathMapping(ctx context.Context, actor Actor, workCenterID int64, pathCode string) error {
	pathCode = strings.TrimSpace(pathCode)
	if pathCode == "" {
		return errs.NewValidationError("path_code", "is required")
	}
	roomID, err := r.workCenterRoom(workCenterID)
	if err != nil {
		return err
	}
	if err := r.Require(ctx, actor, roomID, Manage); err != nil {
		return err
	}
	ok, err := r.db.DeactivatePathMapping(workCenterID, pathCode)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	if !ok {
		return errs.NewNotFoundError("path mapping", pathCode)
	}
	return nil
}

func (r *Resolver) ListPathMappings(ctx context.Context, actor Actor, workCenterID int64) ([]*store.PathMapping, error) {
	roomID, err := r.workCenterRoom(workCenterID)
	if err != nil {
		return nil, err
	}
	if err := r.Require(ctx, actor, roomID, View); err != nil {
		return nil, err
	}
	list, err := r.db.ListPathMappings(workCenterID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	return list, nil
}

// SetStationRestriction toggles whether a station only accepts assigned products.
func (r *Resolver) SetStationRestriction(ctx context.Context, actor Actor, stationID int64, restrict bool) error {
	roomID, err := r.stationRoom(stationID)
	if err != nil {
		return err
	}
	if err := r.Require(ctx, actor, roomID, Manage); err != nil {
		return err
	}
	if err := r.db.SetWorkStationRestriction(stationID, restrict); err != nil {
		return errs.NewDependencyError("store", err)
	}
	return nil
}

func (r *Resolver) AssignProduct(ctx context.Context, actor Actor, stationID int64, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errs.NewValidationError("product_id", "is required")
	}
	roomID, err := r.stationRoom(stationID)
	if err != nil {
		return err
	}
	if err := r.Require(ctx, actor, roomID, Manage); err != nil {
		return err
	}
	if err := r.db.AssignProduct(stationID, productID, actor.UserID); err != nil {
		return errs.NewDependencyError("store", err)
	}
	return nil
}

func (r *Resolver) UnassignProduct(ctx context.Context, actor Actor, stationID int64, productID string) error {
	roomID, err := r.stationRoom(stationID)
	if err != nil {
		return err
	}
	if err := r.Require(ctx, actor, roomID, Manage); err != nil {
		return err
	}
	ok, err := r.db.UnassignProduct(stationID, productID)
	if err != nil {
		return errs.NewDependencyError("store", err)
	}
	if !ok {
		return errs.NewNotFoundError("product assignment", productID)
	}
	return nil
}

func (r *Resolver) ListProductAssignments(ctx context.Context, actor Actor, stationID int64) ([]*store.ProductAssignment, error) {
	roomID, err := r.stationRoom(stationID)
	if err != nil {
		return nil, err
	}
	if err := r.Require(ctx, actor, roomID, View); err != nil {
		return nil, err
	}
	list, err := r.db.ListProductAssignments(stationID)
	if err != nil {
		return nil, errs.NewDependencyError("store", err)
	}
	return list, nil
}
