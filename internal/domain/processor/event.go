package processor

// EventType is the closed set of webhook events the service reacts to.
type EventType string

const (
	EventPaymentIntentSucceeded     EventType = "payment_intent.succeeded"
	EventPaymentIntentCanceled      EventType = "payment_intent.canceled"
	EventPaymentIntentPaymentFailed EventType = "payment_intent.payment_failed"
	EventChargeSucceeded            EventType = "charge.succeeded"
	EventChargeFailed               EventType = "charge.failed"
	EventSourceChargeable           EventType = "source.chargeable"
	EventSourceFailed               EventType = "source.failed"
	EventSourceCanceled             EventType = "source.canceled"
	EventUnknown                    EventType = "unknown"
)

func ParseEventType(s string) EventType {
	switch t := EventType(s); t {
	case EventPaymentIntentSucceeded,
		EventPaymentIntentCanceled,
		EventPaymentIntentPaymentFailed,
		EventChargeSucceeded,
		EventChargeFailed,
		EventSourceChargeable,
		EventSourceFailed,
		EventSourceCanceled:
		return t
	default:
		return EventUnknown
	}
}

// Event is a verified webhook event. The object field matching the event's family is set.
type Event struct {
	ID      string
	Type    EventType
	RawType string

	PaymentIntent *PaymentIntent
	Charge        *Charge
	Source        *Source
}

// ObjectID returns the ID of the embedded object.
func (e *Event) ObjectID() string {
	switch {
	case e.PaymentIntent != nil:
		return e.PaymentIntent.ID
	case e.Charge != nil:
		return e.Charge.ID
	case e.Source != nil:
		return e.Source.ID
	default:
		return ""
	}
}
