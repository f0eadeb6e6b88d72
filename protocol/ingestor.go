package protocol

import (
	"encoding/json"
	"log"
)

// FilterFunc returns true if the message should be processed.
type FilterFunc func(hdr *RawHeader) bool

// MessageHandler defines callbacks for every message type.
// Embed NoOpHandler and override only the methods you need.
type MessageHandler interface {
	HandleOrderApproved(env *Envelope, p *OrderApproved)
	HandleOrderWithdrawn(env *Envelope, p *OrderWithdrawn)
	HandleProductionEvent(env *Envelope, p *ProductionEvent)
}

// Ingestor performs two-phase decode and dispatches to a MessageHandler.
type Ingestor struct {
	handler MessageHandler
	filter  FilterFunc
	logFn   func(format string, args ...any)
}

// NewIngestor creates an ingestor with the given handler and an optional filter.
func NewIngestor(handler MessageHandler, filter FilterFunc) *Ingestor {
	return &Ingestor{handler: handler, filter: filter, logFn: log.Printf}
}

// SetLogFunc replaces the default log.Printf sink.
func (ing *Ingestor) SetLogFunc(fn func(format string, args ...any)) { ing.logFn = fn }

// HandleRaw is the entry point for raw message bytes from the messaging layer.
// It reports whether the message was dispatched to the handler.
func (ing *Ingestor) HandleRaw(data []byte) bool {
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		ing.logFn("protocol: header decode error: %v", err)
		return false
	}
	if IsExpiredHeader(&hdr) {
		ing.logFn("protocol: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return false
	}
	if ing.filter != nil && !ing.filter(&hdr) {
		return false
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ing.logFn("protocol: envelope decode error: %v", err)
		return false
	}

	switch env.Type {
	case TypeOrderApproved:
		return decodeAndCall(ing, ing.handler.HandleOrderApproved, &env)
	case TypeOrderWithdrawn:
		return decodeAndCall(ing, ing.handler.HandleOrderWithdrawn, &env)
	case TypeProductionEvent:
		return decodeAndCall(ing, ing.handler.HandleProductionEvent, &env)
	default:
		ing.logFn("protocol: unknown message type: %s", env.Type)
		return false
	}
}

func decodeAndCall[T any](ing *Ingestor, fn func(*Envelope, *T), env *Envelope) bool {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		ing.logFn("protocol: payload decode error for %s: %v", env.Type, err)
		return false
	}
	fn(env, &p)
	return true
}
