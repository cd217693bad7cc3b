package service

const (
	EventConsultationCreated = "consultation.created"
	EventProductSaved        = "product.saved"
	EventProductDeleted      = "product.deleted"
)

// EventPublisher broadcasts domain events to live subscribers (see internal/websocket)
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
