// Package access decides who may act on a production room and which path
// codes a room can execute.
package access

import (
	"prodflow/store"
)

// Level is an ordered access level. Higher levels include the lower ones.
type Level int

const (
	None Level = iota
	View
	Operate
	Manage
	Full
)

var levelNames = [...]string{"NONE", "VIEW", "OPERATE", "MANAGE", "FULL"}

func (l Level) String() string {
	if l < None || l > Full {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Roles known to the resolver. Anything else resolves to None.
const (
	RoleAdmin             = "ADMIN"
	RoleProductionManager = "PRODUCTION_MANAGER"
	RoleProduction        = "PRODUCTION"
	RoleOperator          = "OPERATOR"
	RoleGraphicDesigner   = "GRAPHIC_DESIGNER"
	RoleGraphics          = "GRAPHICS"
	RoleSystem            = "SYSTEM"
)

// Actor is the caller of a mutating operation.
type Actor struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// System is the actor used for automated transitions such as withdrawals.
var System = Actor{UserID: "system", Role: RoleSystem}

// ResolveAccessLevel is the single precedence rule for room access. Global
// roles win first, then room ownership, then the per-role defaults. assigned
// reports whether the actor is an operator of the room; with no room it
// should be true.
func ResolveAccessLevel(actor Actor, room *store.Room, assigned bool) Level {
	switch actor.Role {
	case RoleAdmin, RoleSystem:
		return Full
	case RoleProductionManager:
		return Manage
	}
	if room != nil && actor.UserID != "" &&
		(room.ManagerUserID == actor.UserID || room.SupervisorUserID == actor.UserID) {
		return Manage
	}
	switch actor.Role {
	case RoleProduction:
		return Operate
	case RoleOperator:
		if assigned {
			return Operate
		}
		return View
	case RoleGraphicDesigner, RoleGraphics:
		return View
	}
	return None
}

// workCenterTypeCodes is used when a room has no explicit path mappings.
var workCenterTypeCodes = map[string][]string{
	"laser_co2": {"3"},
	"uv_print":  {"1"},
	"solvent":   {"2"},
	"cnc":       {"4"},
	"finishing": {"5"},
}

// TypePathCodes returns the fallback path codes for a work-center type.
func TypePathCodes(workCenterType string) []string {
	return append([]string(nil), workCenterTypeCodes[workCenterType]...)
}
