package session

import (
	"sync"
	"time"
)

// Store holds one live session per customer and serializes every mutation to
// a given customer through a per-entry lock. Different customers proceed in
// parallel.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	window time.Duration
	now    func() time.Time
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// NewStore builds a store applying the given continuation window: a submitted
// order can be reopened as an amendment for that long, after which the next
// contact starts a fresh order.
func NewStore(window time.Duration) *Store {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Store{
		entries: make(map[string]*entry),
		window:  window,
		now:     time.Now,
	}
}

// Acquire returns the customer's session with its lock held. The caller must
// invoke release when done; until then every other call for the same customer
// blocks. The continuation rule is applied here, at lookup time.
func (st *Store) Acquire(customerID string) (*Session, func()) {
	st.mu.Lock()
	e, ok := st.entries[customerID]
	if !ok {
		e = &entry{}
		st.entries[customerID] = e
	}
	st.mu.Unlock()

	e.mu.Lock()

	now := st.now()
	e.sess = st.continued(e.sess, customerID, now)
	e.sess.LastActivityAt = now

	return e.sess, e.mu.Unlock
}

// continued decides whether the stored session is still the conversation the
// customer is in, per the continuation window.
func (st *Store) continued(sess *Session, customerID string, now time.Time) *Session {
	if sess == nil {
		return newSession(customerID, now)
	}

	switch sess.State {
	case StateCancelled:
		return newSession(customerID, now)

	case StateSubmitted:
		if sess.LastFinalizedAt != nil && now.Sub(*sess.LastFinalizedAt) <= st.window {
			// Reopen as an amendment of the order just placed: the cart and
			// the order reference survive.
			sess.State = StateDraft
			return sess
		}
		fresh := newSession(customerID, now)
		fresh.StartedFresh = true
		return fresh

	default:
		return sess
	}
}
