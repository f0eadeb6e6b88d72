package messaging

import (
	"log"
	"time"

	"prodflow/metrics"
	"prodflow/store"
)

// Publisher sends one encoded message to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

const (
	outboxBatch      = 50
	outboxMaxRetries = 10
)

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db       *store.DB
	pub      Publisher
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
	logFn    func(format string, args ...any)
}

func NewOutboxDrainer(db *store.DB, pub Publisher, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{
		db:       db,
		pub:      pub,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		logFn:    log.Printf,
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

// Stop ends the loop and waits for an in-flight drain to finish.
func (d *OutboxDrainer) Stop() {
	close(d.stopChan)
	<-d.doneChan
}

func (d *OutboxDrainer) run() {
	defer close(d.doneChan)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.drain()
		}
	}
}

// drain publishes one batch and returns how many messages were sent.
// A message that keeps failing is skipped once it exhausts its retries.
func (d *OutboxDrainer) drain() int {
	msgs, err := d.db.ListPendingOutbox(outboxBatch, outboxMaxRetries)
	if err != nil {
		d.logFn("outbox: list pending: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.pub.Publish(msg.Topic, msg.Payload); err != nil {
			d.logFn("outbox: publish %s to %s failed: %v", msg.MsgType, msg.Topic, err)
			metrics.OutboxPublishedTotal.WithLabelValues("error").Inc()
			if err := d.db.IncrementOutboxRetries(msg.ID); err != nil {
				d.logFn("outbox: count retry of %d: %v", msg.ID, err)
			}
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			d.logFn("outbox: ack %d: %v", msg.ID, err)
			continue
		}
		metrics.OutboxPublishedTotal.WithLabelValues("ok").Inc()
		sent++
	}
	return sent
}
