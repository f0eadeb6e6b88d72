package protocol

import "time"

// --- Sales -> Production payloads ---

// OrderApproved asks production to materialize an approved sales order.
// Without a work order id one is created in RoomID.
type OrderApproved struct {
	SourceOrderID string         `json:"source_order_id"`
	WorkOrderID   *int64         `json:"work_order_id,omitempty"`
	RoomID        *int64         `json:"room_id,omitempty"`
	ApprovedBy    string         `json:"approved_by,omitempty"`
	Items         []ApprovedItem `json:"items"`
}

// ApprovedItem is one line of an approved sales order. Branches selects
// branch letters of the path expression; empty means every branch.
type ApprovedItem struct {
	ItemID           string     `json:"item_id"`
	ProductID        string     `json:"product_id"`
	ProductCode      string     `json:"product_code,omitempty"`
	PathExpression   string     `json:"path_expression"`
	Quantity         int        `json:"quantity"`
	Priority         int        `json:"priority,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
	Branches         []string   `json:"branches,omitempty"`
}

// OrderWithdrawn cancels all outstanding production of a sales order.
type OrderWithdrawn struct {
	SourceOrderID string `json:"source_order_id"`
	Reason        string `json:"reason"`
}

// --- Production -> subscribers payloads ---

// ProductionEvent mirrors one lifecycle event onto the message bus.
type ProductionEvent struct {
	Kind       string         `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}
