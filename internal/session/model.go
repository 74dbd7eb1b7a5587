package session

import (
	"time"

	"mercadinho-be/internal/catalog"
	"mercadinho-be/internal/policy"

	"github.com/google/uuid"
)

// State is the session's position in the ordering flow. Transitions only move
// forward, except cart mutations and a stale re-quote, which drop the session
// back to review.
type State string

const (
	StateDraft                       State = "DRAFT"
	StateReviewingSummary            State = "REVIEWING_SUMMARY"
	StateAwaitingDeliveryInfo        State = "AWAITING_DELIVERY_INFO"
	StateAwaitingPaymentSelection    State = "AWAITING_PAYMENT_SELECTION"
	StateAwaitingPaymentConfirmation State = "AWAITING_PAYMENT_CONFIRMATION"
	StateSubmitted                   State = "SUBMITTED"
	StateCancelled                   State = "CANCELLED"
)

// Quantity is how the customer sized the request: a unit count, or an explicit
// mass for weighed goods. Exactly one of the two is expected.
type Quantity struct {
	Units  int     `json:"units"`
	MassKg float64 `json:"mass_kg"`
}

// CartLine is one product in the cart with its live-quoted price. For weighed
// goods MassKg holds the mass-equivalent and Approximate marks estimates that
// the scale will correct at packing time.
type CartLine struct {
	LineID      string          `json:"line_id"`
	Product     catalog.Product `json:"product"`
	Units       int             `json:"units"`
	MassKg      float64         `json:"mass_kg"`
	Approximate bool            `json:"approximate"`
	UnitPrice   float64         `json:"unit_price"`
	Subtotal    float64         `json:"subtotal"`
	Note        string          `json:"note,omitempty"`
	QuotedAt    time.Time       `json:"quoted_at"`
}

// amount is what the quote's stock figure is compared against: kilograms for
// weighed goods, units otherwise.
func (l CartLine) amount() float64 {
	if l.Product.SaleUnit == catalog.SaleByKilo {
		return l.MassKg
	}
	return float64(l.Units)
}

func (l *CartLine) reprice(unitPrice float64, at time.Time) {
	l.UnitPrice = unitPrice
	l.Subtotal = unitPrice * l.amount()
	l.QuotedAt = at
}

// Session is the per-customer ordering aggregate. All access goes through the
// store's per-entry lock; the struct itself is not safe for concurrent use.
type Session struct {
	ID         uuid.UUID
	CustomerID string
	State      State
	Lines      []CartLine

	Recipient    string
	Address      string
	Neighborhood string
	DeliveryFee  float64

	PaymentMethod   policy.Method
	PaymentTiming   policy.Timing
	PaymentProofRef string

	LastActivityAt  time.Time
	LastFinalizedAt *time.Time
	LastOrderID     *uuid.UUID

	// StartedFresh is set by the store when an expired or abandoned session
	// was replaced at lookup time. Informational, reported once.
	StartedFresh bool
}

func newSession(customerID string, now time.Time) *Session {
	return &Session{
		ID:             uuid.New(),
		CustomerID:     customerID,
		State:          StateDraft,
		LastActivityAt: now,
	}
}

// Products lists the cart's products, the input to payment-policy
// classification.
func (s *Session) Products() []catalog.Product {
	out := make([]catalog.Product, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Product
	}
	return out
}

func (s *Session) Subtotal() float64 {
	var sum float64
	for _, l := range s.Lines {
		sum += l.Subtotal
	}
	return sum
}

func (s *Session) Total() float64 {
	return s.Subtotal() + s.DeliveryFee
}

func (s *Session) lineByID(lineID string) (int, bool) {
	for i := range s.Lines {
		if s.Lines[i].LineID == lineID {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) lineByEAN(ean string) (int, bool) {
	for i := range s.Lines {
		if s.Lines[i].Product.EAN == ean {
			return i, true
		}
	}
	return 0, false
}

// Summary is the read model handed back after every cart operation.
type Summary struct {
	SessionID   uuid.UUID  `json:"session_id"`
	State       State      `json:"state"`
	Lines       []CartLine `json:"lines"`
	Subtotal    float64    `json:"subtotal"`
	DeliveryFee float64    `json:"delivery_fee"`
	Total       float64    `json:"total"`

	// Approximate is true when any line's value depends on weighing; the
	// total is an estimate until the order is packed.
	Approximate bool `json:"approximate"`

	// StartedFresh signals that a prior expired or finalized session was
	// discarded and this one started empty.
	StartedFresh bool `json:"started_fresh,omitempty"`
}

func summarize(s *Session) *Summary {
	lines := make([]CartLine, len(s.Lines))
	copy(lines, s.Lines)

	approx := false
	for _, l := range lines {
		if l.Approximate {
			approx = true
			break
		}
	}

	return &Summary{
		SessionID:    s.ID,
		State:        s.State,
		Lines:        lines,
		Subtotal:     s.Subtotal(),
		DeliveryFee:  s.DeliveryFee,
		Total:        s.Total(),
		Approximate:  approx,
		StartedFresh: s.StartedFresh,
	}
}
