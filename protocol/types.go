package protocol

// Message type constants.
const (
	// Sales -> Production (published on the approvals topic)
	TypeOrderApproved  = "order.approved"
	TypeOrderWithdrawn = "order.withdrawn"

	// Production -> subscribers (published on the events topic)
	TypeProductionEvent = "production.event"
)

// Roles for Address.Role.
const (
	RoleSales      = "sales"
	RoleProduction = "production"
)

// Protocol version.
const Version = 1
