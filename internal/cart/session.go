package cart

import (
	"github.com/polkiloo/posorder/internal/domain/model"
)

// MutationState is the tagged state of the last mutation of a seller session.
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s MutationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

type sessionKey struct {
	sellerID string
	orderID  int64
}

// session is the seller-scoped projection of one order. It is a cache of the record store
// and never authoritative.
type session struct {
	state       MutationState
	confirmed   *model.Order
	busy        map[int64]struct{}
	needsResync bool
	applied     map[string]struct{}
}

func newSession() *session {
	return &session{
		busy:    make(map[int64]struct{}),
		applied: make(map[string]struct{}),
	}
}

// View is a read-only copy of a session.
type View struct {
	State       MutationState
	Confirmed   *model.Order
	Busy        []int64
	NeedsResync bool
}
