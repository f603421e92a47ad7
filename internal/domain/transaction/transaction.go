package transaction

import (
	"github.com/google/uuid"
)

// State is the order transaction state machine.
type State string

const (
	StateOpen       State = "open"
	StateInProgress State = "in_progress"
	StatePaid       State = "paid"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateOpen: {
		StateInProgress,
		StatePaid,
		StateCancelled,
		StateFailed,
	},
	StateInProgress: {
		StatePaid,
		StateCancelled,
		StateFailed,
	},
	StateFailed: {
		StateInProgress, // new attempt
		StatePaid,
		StateCancelled,
	},
	StatePaid:      {}, // terminal
	StateCancelled: {}, // terminal
}

// ParseState maps a stored state name; ok is false for anything outside the machine.
func ParseState(s string) (State, bool) {
	st := State(s)
	_, ok := transitions[st]
	return st, ok
}

// CanTransitionTo checks if the state can move to next.
func (s State) CanTransitionTo(next State) bool {
	allowed, exists := transitions[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	allowed, exists := transitions[s]
	return exists && len(allowed) == 0
}

// SourcesFor returns the states from which next is reachable.
func SourcesFor(next State) []State {
	var out []State
	for from, allowed := range transitions {
		for _, a := range allowed {
			if a == next {
				out = append(out, from)
			}
		}
	}
	return out
}

// OrderTransaction is the payment record of an order in the commerce platform.
type OrderTransaction struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ChannelID     string
	PaymentMethod string
	State         State
	Reference     PaymentReference
}

// BelongsTo reports whether the transaction was placed on the given sales channel.
func (t *OrderTransaction) BelongsTo(channelID string) bool {
	return t.ChannelID == channelID
}
