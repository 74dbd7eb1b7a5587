package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenStore(window time.Duration, now time.Time) *Store {
	st := NewStore(window)
	st.now = func() time.Time { return now }
	return st
}

func TestStore_Acquire(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	t.Run("First contact opens an empty draft", func(t *testing.T) {
		st := frozenStore(15*time.Minute, now)
		sess, release := st.Acquire("5583999990000")
		defer release()

		assert.Equal(t, StateDraft, sess.State)
		assert.Empty(t, sess.Lines)
		assert.Equal(t, "5583999990000", sess.CustomerID)
		assert.False(t, sess.StartedFresh)
	})

	t.Run("Same session returned while the flow is live", func(t *testing.T) {
		st := frozenStore(15*time.Minute, now)
		sess, release := st.Acquire("c1")
		id := sess.ID
		sess.State = StateReviewingSummary
		release()

		again, release := st.Acquire("c1")
		defer release()
		assert.Equal(t, id, again.ID)
		assert.Equal(t, StateReviewingSummary, again.State)
	})

	t.Run("Submitted order reopens as amendment inside the window", func(t *testing.T) {
		st := frozenStore(15*time.Minute, now)
		sess, release := st.Acquire("c1")
		id := sess.ID
		sess.State = StateSubmitted
		finalized := now.Add(-5 * time.Minute)
		sess.LastFinalizedAt = &finalized
		sess.Lines = []CartLine{{LineID: "l1"}}
		release()

		again, release := st.Acquire("c1")
		defer release()
		assert.Equal(t, id, again.ID)
		assert.Equal(t, StateDraft, again.State)
		assert.Len(t, again.Lines, 1)
		assert.False(t, again.StartedFresh)
	})

	t.Run("Expired submitted order starts a fresh one", func(t *testing.T) {
		st := frozenStore(15*time.Minute, now)
		sess, release := st.Acquire("c1")
		id := sess.ID
		sess.State = StateSubmitted
		finalized := now.Add(-20 * time.Minute)
		sess.LastFinalizedAt = &finalized
		sess.Lines = []CartLine{{LineID: "l1"}}
		release()

		again, release := st.Acquire("c1")
		defer release()
		assert.NotEqual(t, id, again.ID)
		assert.Equal(t, StateDraft, again.State)
		assert.Empty(t, again.Lines)
		assert.True(t, again.StartedFresh)
	})

	t.Run("Cancelled session is replaced", func(t *testing.T) {
		st := frozenStore(15*time.Minute, now)
		sess, release := st.Acquire("c1")
		id := sess.ID
		sess.State = StateCancelled
		release()

		again, release := st.Acquire("c1")
		defer release()
		assert.NotEqual(t, id, again.ID)
		assert.Equal(t, StateDraft, again.State)
	})
}

func TestStore_SerializesPerCustomer(t *testing.T) {
	st := NewStore(15 * time.Minute)

	_, release := st.Acquire("c1")

	acquired := make(chan struct{})
	go func() {
		_, r := st.Acquire("c1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire proceeded while the first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestStore_IndependentCustomers(t *testing.T) {
	st := NewStore(15 * time.Minute)

	_, releaseA := st.Acquire("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		_, releaseB := st.Acquire("b")
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated customer blocked behind another customer's lock")
	}
}

func TestStore_DefaultWindow(t *testing.T) {
	st := NewStore(0)
	require.Equal(t, 15*time.Minute, st.window)
}
