package messaging

import (
	"log"

	"wmstriage/protocol"
	"wmstriage/resolve"
)

// Confirmer receives external team answers. Source names the channel.
type Confirmer interface {
	Confirm(ticketID string, conf resolve.Confirmation, source string) error
}

type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

// ConfirmationConsumer subscribes to the confirmations topic and routes
// external.confirm messages to the waiting tickets.
type ConfirmationConsumer struct {
	protocol.NoOpHandler
	client    Subscriber
	topic     string
	confirmer Confirmer
	ingestor  *protocol.Ingestor
}

func NewConfirmationConsumer(client Subscriber, topic string, confirmer Confirmer) *ConfirmationConsumer {
	c := &ConfirmationConsumer{
		client:    client,
		topic:     topic,
		confirmer: confirmer,
	}
	c.ingestor = protocol.NewIngestor(c, func(hdr *protocol.RawHeader) bool {
		return hdr.Dst.Role == protocol.RoleWMS
	})
	return c
}

func (c *ConfirmationConsumer) Start() error {
	return c.client.Subscribe(c.topic, c.handleMessage)
}

func (c *ConfirmationConsumer) handleMessage(_ string, payload []byte) {
	c.ingestor.HandleRaw(payload)
}

func (c *ConfirmationConsumer) HandleExternalConfirm(env *protocol.Envelope, p *protocol.ExternalConfirm) {
	if p.TicketID == "" {
		log.Printf("consumer: confirmation %s without ticket_id", env.ID)
		return
	}
	conf := resolve.Confirmation{Note: p.Note}
	for _, r := range p.Rows {
		conf.Rows = append(conf.Rows, resolve.DetailRow{
			PalletID:          r.PalletID,
			POID:              r.POID,
			ASNID:             r.ASNID,
			Quantity:          r.Quantity,
			SupplierReference: r.SupplierReference,
		})
	}
	if err := c.confirmer.Confirm(p.TicketID, conf, "messaging"); err != nil {
		log.Printf("consumer: confirm ticket %s: %v", p.TicketID, err)
	}
}
