package store

import (
	"database/sql"
	"fmt"
)

type Room struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ManagerUserID    string `json:"manager_user_id"`
	SupervisorUserID string `json:"supervisor_user_id"`
	IsActive         bool   `json:"is_active"`
}

type WorkCenter struct {
	ID       int64  `json:"id"`
	RoomID   *int64 `json:"room_id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

type WorkStation struct {
	ID                         int64  `json:"id"`
	WorkCenterID               int64  `json:"work_center_id"`
	Name                       string `json:"name"`
	Code                       string `json:"code"`
	Status                     string `json:"status"`
	RestrictToAssignedProducts bool   `json:"restrict_to_assigned_products"`
}

func (db *DB) CreateRoom(r *Room) error {
	id, err := db.insert(db.DB, `INSERT INTO rooms (name, manager_user_id, supervisor_user_id, is_active) VALUES (?, ?, ?, ?)`,
		r.Name, r.ManagerUserID, r.SupervisorUserID, r.IsActive)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	r.ID = id
	return nil
}

func (db *DB) GetRoom(id int64) (*Room, error) {
	var r Room
	err := db.QueryRow(db.Q(`SELECT id, name, manager_user_id, supervisor_user_id, is_active FROM rooms WHERE id=?`), id).
		Scan(&r.ID, &r.Name, &r.ManagerUserID, &r.SupervisorUserID, &r.IsActive)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) AddRoomOperator(roomID int64, userID string) error {
	_, err := db.Exec(db.Q(`INSERT INTO room_operators (room_id, user_id) VALUES (?, ?) ON CONFLICT (room_id, user_id) DO NOTHING`), roomID, userID)
	return err
}

func (db *DB) RemoveRoomOperator(roomID int64, userID string) error {
	_, err := db.Exec(db.Q(`DELETE FROM room_operators WHERE room_id=? AND user_id=?`), roomID, userID)
	return err
}

func (db *DB) IsRoomOperator(roomID int64, userID string) (bool, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM room_operators WHERE room_id=? AND user_id=?`), roomID, userID).Scan(&n)
	return n > 0, err
}

func (db *DB) CreateWorkCenter(wc *WorkCenter) error {
	id, err := db.insert(db.DB, `INSERT INTO work_centers (room_id, name, type, is_active) VALUES (?, ?, ?, ?)`,
		nullInt64(wc.RoomID), wc.Name, wc.Type, wc.IsActive)
	if err != nil {
		return fmt.Errorf("create work center: %w", err)
	}
	wc.ID = id
	return nil
}

func scanWorkCenter(row interface{ Scan(...any) error }) (*WorkCenter, error) {
	var wc WorkCenter
	var roomID sql.NullInt64
	if err := row.Scan(&wc.ID, &roomID, &wc.Name, &wc.Type, &wc.IsActive); err != nil {
		return nil, err
	}
	if roomID.Valid {
		wc.RoomID = &roomID.Int64
	}
	return &wc, nil
}

func (db *DB) GetWorkCenter(id int64) (*WorkCenter, error) {
	return scanWorkCenter(db.QueryRow(db.Q(`SELECT id, room_id, name, type, is_active FROM work_centers WHERE id=?`), id))
}

// ListActiveWorkCentersByRoom returns the room's active work centers.
func (db *DB) ListActiveWorkCentersByRoom(roomID int64) ([]*WorkCenter, error) {
	rows, err := db.Query(db.Q(`SELECT id, room_id, name, type, is_active FROM work_centers WHERE room_id=? AND is_active=? ORDER BY id`), roomID, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WorkCenter
	for rows.Next() {
		wc, err := scanWorkCenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

func (db *DB) CreateWorkStation(ws *WorkStation) error {
	if ws.Status == "" {
		ws.Status = "available"
	}
	id, err := db.insert(db.DB, `INSERT INTO work_stations (work_center_id, name, code, status, restrict_to_assigned_products) VALUES (?, ?, ?, ?, ?)`,
		ws.WorkCenterID, ws.Name, ws.Code, ws.Status, ws.RestrictToAssignedProducts)
	if err != nil {
		return fmt.Errorf("create work station: %w", err)
	}
	ws.ID = id
	return nil
}

func (db *DB) GetWorkStation(id int64) (*WorkStation, error) {
	var ws WorkStation
	err := db.QueryRow(db.Q(`SELECT id, work_center_id, name, code, status, restrict_to_assigned_products FROM work_stations WHERE id=?`), id).
		Scan(&ws.ID, &ws.WorkCenterID, &ws.Name, &ws.Code, &ws.Status, &ws.RestrictToAssignedProducts)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (db *DB) SetWorkStationRestriction(id int64, restrict bool) error {
	_, err := db.Exec(db.Q(`UPDATE work_stations SET restrict_to_assigned_products=? WHERE id=?`), restrict, id)
	return err
}
