package messaging

import (
	"context"
	"log"
	"time"

	"prodflow/access"
	"prodflow/operations"
	"prodflow/protocol"
)

const handleTimeout = 30 * time.Second

// ApprovalHandler turns sales approvals into production orders and
// withdrawals into cancellations.
type ApprovalHandler struct {
	protocol.NoOpHandler

	ops   *operations.Manager
	logFn func(format string, args ...any)
}

func NewApprovalHandler(ops *operations.Manager) *ApprovalHandler {
	return &ApprovalHandler{ops: ops, logFn: log.Printf}
}

// systemActor acts for the sales system, keeping the approving user for the audit trail.
func systemActor(approvedBy string) access.Actor {
	a := access.System
	if approvedBy != "" {
		a.UserID = approvedBy
	}
	return a
}

func (h *ApprovalHandler) HandleOrderApproved(env *protocol.Envelope, p *protocol.OrderApproved) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	req := operations.MaterializeRequest{
		SourceOrderID: p.SourceOrderID,
		WorkOrderID:   p.WorkOrderID,
		RoomID:        p.RoomID,
		Actor:         systemActor(p.ApprovedBy),
		Items:         make([]operations.MaterializeItem, 0, len(p.Items)),
	}
	for _, it := range p.Items {
		req.Items = append(req.Items, operations.MaterializeItem{
			SourceItemID:     it.ItemID,
			ProductID:        it.ProductID,
			ProductCode:      it.ProductCode,
			PathExpression:   it.PathExpression,
			Quantity:         it.Quantity,
			Priority:         it.Priority,
			EstimatedMinutes: it.EstimatedMinutes,
			DeliveryDate:     it.DeliveryDate,
			Branches:         it.Branches,
		})
	}
	created, err := h.ops.Materialize(ctx, req)
	if err != nil {
		h.logFn("approvals: materialize %s (msg %s): %v", p.SourceOrderID, env.ID, err)
		return
	}
	h.logFn("approvals: %s approved, %d production orders created", p.SourceOrderID, len(created))
}

func (h *ApprovalHandler) HandleOrderWithdrawn(env *protocol.Envelope, p *protocol.OrderWithdrawn) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	reason := p.Reason
	if reason == "" {
		reason = "sales order withdrawn"
	}
	n, err := h.ops.CancelSourceOrder(ctx, access.System, p.SourceOrderID, reason)
	if err != nil {
		h.logFn("approvals: withdraw %s (msg %s): %v", p.SourceOrderID, env.ID, err)
		return
	}
	h.logFn("approvals: %s withdrawn, %d operations cancelled", p.SourceOrderID, n)
}

// Consumer subscribes to the approvals topic and routes messages through
// the protocol ingestor.
type Consumer struct {
	client   *Client
	topic    string
	ingestor *protocol.Ingestor
}

// NewConsumer accepts messages addressed to the production role, optionally
// narrowed to one station.
func NewConsumer(client *Client, topic, stationID string, handler protocol.MessageHandler) *Consumer {
	return &Consumer{
		client:   client,
		topic:    topic,
		ingestor: protocol.NewIngestor(handler, AddressedTo(stationID)),
	}
}

// AddressedTo accepts production-role messages sent to stationID or to no
// station in particular.
func AddressedTo(stationID string) protocol.FilterFunc {
	return func(hdr *protocol.RawHeader) bool {
		if hdr.Dst.Role != "" && hdr.Dst.Role != protocol.RoleProduction {
			return false
		}
		return hdr.Dst.Station == "" || hdr.Dst.Station == stationID
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, func(payload []byte) {
		c.ingestor.HandleRaw(payload)
	})
}
