package engine

import (
	"log"
	"sync"
	"time"
)

type SubscriberID int

// Event is one lifecycle change on its way to subscribers.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   Payload
}

type handler struct {
	id    SubscriberID
	fn    func(Event)
	kinds map[EventType]bool // nil matches every kind
}

func (h handler) wants(t EventType) bool {
	return h.kinds == nil || h.kinds[t]
}

// EventBus delivers lifecycle events to in-process handlers on the emitting
// goroutine. Emits happen inside operation transitions, so a panicking
// handler is recovered and logged instead of failing the transition.
type EventBus struct {
	mu       sync.RWMutex
	handlers []handler
	lastID   SubscriberID
	now      func() time.Time
	logFn    LogFunc
}

func NewEventBus() *EventBus {
	return &EventBus{now: time.Now, logFn: log.Printf}
}

func (eb *EventBus) SetLogFunc(fn LogFunc) { eb.logFn = fn }

// Subscribe registers fn for every event kind.
func (eb *EventBus) Subscribe(fn func(Event)) SubscriberID {
	return eb.register(fn, nil)
}

// SubscribeTypes registers fn for the listed kinds only.
func (eb *EventBus) SubscribeTypes(fn func(Event), types ...EventType) SubscriberID {
	kinds := make(map[EventType]bool, len(types))
	for _, t := range types {
		kinds[t] = true
	}
	return eb.register(fn, kinds)
}

func (eb *EventBus) register(fn func(Event), kinds map[EventType]bool) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastID++
	eb.handlers = append(eb.handlers, handler{id: eb.lastID, fn: fn, kinds: kinds})
	return eb.lastID
}

// Unsubscribe drops a handler. Unknown ids are ignored.
func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	kept := eb.handlers[:0]
	for _, h := range eb.handlers {
		if h.id != id {
			kept = append(kept, h)
		}
	}
	eb.handlers = kept
}

// Len is the number of registered handlers.
func (eb *EventBus) Len() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers)
}

// Emit stamps the event when it has no timestamp and hands it to every
// matching handler in registration order.
func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = eb.now().UTC()
	}
	eb.mu.RLock()
	targets := make([]handler, 0, len(eb.handlers))
	for _, h := range eb.handlers {
		if h.wants(evt.Type) {
			targets = append(targets, h)
		}
	}
	eb.mu.RUnlock()

	for _, h := range targets {
		eb.deliver(h, evt)
	}
}

func (eb *EventBus) deliver(h handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logFn("engine: handler %d panicked on %s: %v", h.id, evt.Type, r)
		}
	}()
	h.fn(evt)
}
