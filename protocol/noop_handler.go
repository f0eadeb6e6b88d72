package protocol

// NoOpHandler implements MessageHandler with no-op methods.
// Embed this and override only the methods you need.
type NoOpHandler struct{}

func (NoOpHandler) HandleOrderApproved(*Envelope, *OrderApproved) {}
func (NoOpHandler) HandleOrderWithdrawn(*Envelope, *OrderWithdrawn) {}
func (NoOpHandler) HandleProductionEvent(*Envelope, *ProductionEvent) {}

var _ MessageHandler = NoOpHandler{}
