package www

import (
	"sync"

	"github.com/google/uuid"

	"prodflow/engine"
	"prodflow/metrics"
)

// Hub is the set of live dashboard subscribers. Each subscriber owns a
// buffered channel of encoded frames; a subscriber that cannot take a frame
// is closed and dropped so one slow client never holds up the others.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan []byte
	buffer int
	logFn  func(format string, args ...any)
	busID  engine.SubscriberID
	bus    *engine.EventBus
}

func NewHub(buffer int, logFn func(format string, args ...any)) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[string]chan []byte), buffer: buffer, logFn: logFn}
}

// Subscribe registers a new subscriber and returns its handle and frame channel.
// The channel is closed when the subscriber is removed.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()
	metrics.StreamSubscribers.Set(float64(n))
	return id, ch
}

// Unsubscribe removes a subscriber. Unknown handles are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	removed := h.removeLocked(id)
	n := len(h.subs)
	h.mu.Unlock()
	if removed {
		metrics.StreamSubscribers.Set(float64(n))
	}
}

// Prune removes a subscriber whose connection failed.
func (h *Hub) Prune(id string) {
	h.mu.Lock()
	removed := h.removeLocked(id)
	n := len(h.subs)
	h.mu.Unlock()
	if removed {
		metrics.PrunedSubscribersTotal.Inc()
		metrics.StreamSubscribers.Set(float64(n))
	}
}

func (h *Hub) removeLocked(id string) bool {
	ch, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(ch)
	return true
}

// Publish offers a frame to every subscriber without blocking and returns
// how many took it.
func (h *Hub) Publish(frame []byte) int {
	h.mu.Lock()
	delivered := 0
	var pruned int
	for id, ch := range h.subs {
		select {
		case ch <- frame:
			delivered++
		default:
			h.removeLocked(id)
			pruned++
		}
	}
	n := len(h.subs)
	h.mu.Unlock()

	if pruned > 0 {
		metrics.PrunedSubscribersTotal.Add(float64(pruned))
		metrics.StreamSubscribers.Set(float64(n))
		h.logFn("www: dropped %d slow stream subscribers", pruned)
	}
	return delivered
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Attach forwards every bus event to the subscribers as a wire frame.
func (h *Hub) Attach(bus *engine.EventBus) {
	h.bus = bus
	h.busID = bus.Subscribe(func(evt engine.Event) {
		data, err := engine.NewFrame(evt).Encode()
		if err != nil {
			h.logFn("www: encode %s frame: %v", evt.Type, err)
			return
		}
		h.Publish(data)
	})
}

// Close detaches from the bus and ends every subscriber stream.
func (h *Hub) Close() {
	if h.bus != nil {
		h.bus.Unsubscribe(h.busID)
		h.bus = nil
	}
	h.mu.Lock()
	for id := range h.subs {
		h.removeLocked(id)
	}
	h.mu.Unlock()
	metrics.StreamSubscribers.Set(0)
}
