package event

type EventKind int16

const (
	Connected EventKind = iota + 1 // [SYSTEM]
	Pong                           // [SYSTEM]
	StatsUpdated
	DeliveryUpdated
	PaymentAdded
	BalanceUpdated
	CustomerUpdated
	ActivityUpdated
	Error
)

// WireName is the event name clients see on the channel.
func (k EventKind) WireName() string {
	switch k {
	case Connected:
		return "connected"
	case Pong:
		return "pong"
	case StatsUpdated:
		return "stats:updated"
	case DeliveryUpdated:
		return "delivery:updated"
	case PaymentAdded:
		return "payment:added"
	case BalanceUpdated:
		return "balance:updated"
	case CustomerUpdated:
		return "customer:updated"
	case ActivityUpdated:
		return "activity:updated"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

type EventPriority int32

const (
	PriorityLow    EventPriority = 10
	PriorityNormal EventPriority = 20
	PriorityHigh   EventPriority = 30
)

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() EventKind
	GetPrincipalID() string
	GetPriority() EventPriority
	GetOccurredAt() int64
	GetPayload() any
}
