package messaging

import (
	"log"
	"time"

	"wmstriage/store"
)

const (
	drainBatch       = 50
	maxOutboxRetries = 10
	sentRetention    = 7 * 24 * time.Hour
)

// OutboxStore is the slice of the store the drainer works on.
type OutboxStore interface {
	ListPendingOutbox(limit, maxRetries int) ([]*store.OutboxMessage, error)
	AckOutbox(id int64) error
	IncrementOutboxRetries(id int64) error
	PurgeSentOutbox(olderThan time.Duration) (int64, error)
}

type Publisher interface {
	Publish(topic string, payload []byte) error
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db       OutboxStore
	client   Publisher
	interval time.Duration
	stopChan chan struct{}
}

func NewOutboxDrainer(db OutboxStore, client Publisher, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{
		db:       db,
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case d.stopChan <- struct{}{}:
	default:
	}
}

func (d *OutboxDrainer) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	purge := time.NewTicker(time.Hour)
	defer purge.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.drain()
		case <-purge.C:
			if n, err := d.db.PurgeSentOutbox(sentRetention); err != nil {
				log.Printf("outbox: purge: %v", err)
			} else if n > 0 {
				log.Printf("outbox: purged %d sent messages", n)
			}
		}
	}
}

// drain publishes one batch and returns how many messages were sent.
func (d *OutboxDrainer) drain() int {
	msgs, err := d.db.ListPendingOutbox(drainBatch, maxOutboxRetries)
	if err != nil {
		log.Printf("outbox: list pending: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.client.Publish(msg.Topic, msg.Payload); err != nil {
			log.Printf("outbox: publish %s to %s failed: %v", msg.MsgType, msg.Topic, err)
			if err := d.db.IncrementOutboxRetries(msg.ID); err != nil {
				log.Printf("outbox: increment retries %d: %v", msg.ID, err)
			}
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			log.Printf("outbox: ack %d: %v", msg.ID, err)
			continue
		}
		sent++
	}
	return sent
}
