package protocol

// NoOpHandler implements MessageHandler with no-op methods.
// Embed this and override only the methods you need.
type NoOpHandler struct{}

func (NoOpHandler) HandleExternalRequest(*Envelope, *ExternalRequest) {}
func (NoOpHandler) HandleTicketUpdate(*Envelope, *TicketUpdate)       {}
func (NoOpHandler) HandleExternalConfirm(*Envelope, *ExternalConfirm) {}

var _ MessageHandler = NoOpHandler{}
