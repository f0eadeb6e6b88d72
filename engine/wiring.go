package engine

import (
	"fmt"
	"sort"
	"strings"

	"prodflow/metrics"
	"prodflow/protocol"
)

func (e *Engine) wireEventHandlers() {
	// Every lifecycle event is counted and logged
	e.subs = append(e.subs, e.Events.Subscribe(func(evt Event) {
		metrics.EventsTotal.WithLabelValues(evt.Type.String()).Inc()
		e.logFn("engine: %s %s", evt.Type, describe(evt.Payload))
	}))

	// Relay lifecycle events to the outbox for downstream systems. KPI
	// snapshots stay local to the dashboard stream.
	relayed := make([]EventType, 0, len(AllEventTypes))
	for _, t := range AllEventTypes {
		if t != EventKPIUpdated {
			relayed = append(relayed, t)
		}
	}
	e.subs = append(e.subs, e.Events.SubscribeTypes(e.relayToOutbox, relayed...))
}

func (e *Engine) relayToOutbox(evt Event) {
	if e.cfg == nil || e.cfg.Messaging.Backend == "" || e.cfg.Messaging.EventsTopic == "" {
		return
	}
	env, err := protocol.NewEnvelope(
		protocol.TypeProductionEvent,
		protocol.Address{Role: protocol.RoleProduction, Station: e.cfg.Messaging.StationID},
		protocol.Address{Role: protocol.RoleSales},
		&protocol.ProductionEvent{
			Kind:       evt.Type.WireType(),
			OccurredAt: evt.Timestamp,
			Data:       evt.Payload.Data(),
		},
	)
	if err != nil {
		e.logFn("engine: build %s envelope: %v", evt.Type, err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		e.logFn("engine: encode %s envelope: %v", evt.Type, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, protocol.TypeProductionEvent); err != nil {
		e.logFn("engine: enqueue %s: %v", evt.Type, err)
	}
}

// describe renders a payload as sorted key=value pairs for the log.
func describe(p Payload) string {
	if p == nil {
		return ""
	}
	data := p.Data()
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, data[k])
	}
	return b.String()
}
