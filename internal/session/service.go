package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"mercadinho-be/internal/catalog"
	"mercadinho-be/internal/delivery"
	"mercadinho-be/internal/logger"
	"mercadinho-be/internal/oracle"
	"mercadinho-be/internal/order"
	"mercadinho-be/internal/policy"
	"mercadinho-be/internal/weight"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// priceTolerance absorbs float noise when comparing a stored unit price
// against a fresh quote. Anything past a centavo is drift.
const priceTolerance = 0.005

// Catalog is the exact-lookup side of the product index.
type Catalog interface {
	ByEAN(ean string) (catalog.Product, bool)
}

// PaymentOutcome reports what selecting a payment method did: either the
// session now waits for a PIX proof, or the order went straight through.
type PaymentOutcome struct {
	Decision  policy.Decision `json:"decision"`
	Submitted *SubmitResult   `json:"submitted,omitempty"`
}

// SubmitResult is the receipt for a successful finalization.
type SubmitResult struct {
	Order   *order.Order `json:"order"`
	Amended bool         `json:"amended"`
}

// Service drives the per-customer ordering flow from first item to submitted
// order. Every method acquires the customer's session lock for its duration.
type Service interface {
	AddItem(ctx context.Context, customerID, ean string, qty Quantity, note string) (*Summary, error)
	RemoveItem(ctx context.Context, customerID, lineID string) (*Summary, error)
	ClearCart(ctx context.Context, customerID string) (*Summary, error)
	Summary(ctx context.Context, customerID string) (*Summary, error)
	SetDeliveryInfo(ctx context.Context, customerID, recipient, address, neighborhood string) (*Summary, error)
	SelectPayment(ctx context.Context, customerID string, method policy.Method, deferToDelivery bool) (*PaymentOutcome, error)
	ConfirmPayment(ctx context.Context, customerID, proofRef string) (*SubmitResult, error)
	Submit(ctx context.Context, customerID string) (*SubmitResult, error)
	Cancel(ctx context.Context, customerID string) error
}

type service struct {
	store   *Store
	catalog Catalog
	quotes  oracle.Client
	weights *weight.Table
	zones   *delivery.Zones
	policy  *policy.Engine
	intake  order.Intake

	now func() time.Time
}

func NewService(
	store *Store,
	cat Catalog,
	quotes oracle.Client,
	weights *weight.Table,
	zones *delivery.Zones,
	engine *policy.Engine,
	intake order.Intake,
) Service {
	return &service{
		store:   store,
		catalog: cat,
		quotes:  quotes,
		weights: weights,
		zones:   zones,
		policy:  engine,
		intake:  intake,
		now:     time.Now,
	}
}

// mutableCartState reports whether the cart can still change. A mutation from
// summary review drops the session back to Draft so the customer re-reviews.
func mutableCartState(s State) bool {
	return s == StateDraft || s == StateReviewingSummary
}

func (svc *service) AddItem(ctx context.Context, customerID, ean string, qty Quantity, note string) (*Summary, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	log := svc.log(ctx, sess).With(zap.String("ean", ean))

	if !mutableCartState(sess.State) {
		return nil, fmt.Errorf("%w: add item in state %s", ErrInvalidTransition, sess.State)
	}

	product, ok := svc.catalog.ByEAN(ean)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, ean)
	}
	if err := validateQuantity(product, qty); err != nil {
		return nil, err
	}

	quote, err := svc.quotes.Quote(ctx, ean)
	if err != nil {
		return nil, err
	}

	massKg, approximate := qty.MassKg, false
	if product.SaleUnit == catalog.SaleByKilo && massKg == 0 {
		est, err := svc.weights.Estimate(product, qty.Units)
		if err != nil {
			return nil, err
		}
		massKg, approximate = est.MassKg, est.Approximate
	}

	// Merge with an existing line for the same SKU and stock-check the
	// combined amount, so adding twice cannot oversell.
	units, mass := qty.Units, massKg
	idx, merged := sess.lineByEAN(ean)
	if merged {
		units += sess.Lines[idx].Units
		mass += sess.Lines[idx].MassKg
		approximate = approximate || sess.Lines[idx].Approximate
	}

	amount := float64(units)
	if product.SaleUnit == catalog.SaleByKilo {
		amount = mass
	}
	if !quote.Covers(amount) {
		return nil, fmt.Errorf("%w: %s (pedido %.3f, disponivel %.3f)",
			ErrInsufficientStock, product.Name, amount, quote.Available)
	}

	line := CartLine{
		LineID:      uuid.NewString(),
		Product:     product,
		Units:       units,
		MassKg:      mass,
		Approximate: approximate,
		Note:        note,
	}
	if merged {
		line.LineID = sess.Lines[idx].LineID
		if line.Note == "" {
			line.Note = sess.Lines[idx].Note
		}
	}
	line.reprice(quote.UnitPrice, quote.FetchedAt)

	if merged {
		sess.Lines[idx] = line
	} else {
		sess.Lines = append(sess.Lines, line)
	}
	sess.State = StateDraft

	log.Info("item added",
		zap.String("product", product.Name),
		zap.Float64("line_subtotal", line.Subtotal),
		zap.Bool("merged", merged),
	)
	return summarize(sess), nil
}

func (svc *service) RemoveItem(ctx context.Context, customerID, lineID string) (*Summary, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	if !mutableCartState(sess.State) {
		return nil, fmt.Errorf("%w: remove item in state %s", ErrInvalidTransition, sess.State)
	}

	idx, ok := sess.lineByID(lineID)
	if !ok {
		return nil, fmt.Errorf("%w: line %s", ErrUnknownProduct, lineID)
	}

	removed := sess.Lines[idx].Product.Name
	sess.Lines = append(sess.Lines[:idx], sess.Lines[idx+1:]...)
	sess.State = StateDraft

	svc.log(ctx, sess).Info("item removed", zap.String("product", removed))
	return summarize(sess), nil
}

func (svc *service) ClearCart(ctx context.Context, customerID string) (*Summary, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	if !mutableCartState(sess.State) {
		return nil, fmt.Errorf("%w: clear cart in state %s", ErrInvalidTransition, sess.State)
	}

	sess.Lines = nil
	sess.State = StateDraft

	svc.log(ctx, sess).Info("cart cleared")
	return summarize(sess), nil
}

// Summary is read-only apart from the Draft -> ReviewingSummary move; calling
// it again changes nothing.
func (svc *service) Summary(ctx context.Context, customerID string) (*Summary, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	if len(sess.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if sess.State == StateDraft {
		sess.State = StateReviewingSummary
	}
	return summarize(sess), nil
}

func (svc *service) SetDeliveryInfo(ctx context.Context, customerID, recipient, address, neighborhood string) (*Summary, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	switch sess.State {
	case StateReviewingSummary, StateAwaitingDeliveryInfo:
	default:
		return nil, fmt.Errorf("%w: delivery info in state %s", ErrInvalidTransition, sess.State)
	}

	if recipient != "" {
		sess.Recipient = recipient
	}
	if address != "" {
		sess.Address = address
	}
	if neighborhood != "" {
		sess.Neighborhood = neighborhood
	}
	sess.State = StateAwaitingDeliveryInfo

	// Incomplete info holds the state; the conversational side keeps asking.
	if sess.Recipient == "" || sess.Address == "" || sess.Neighborhood == "" {
		return summarize(sess), nil
	}

	fee, err := svc.zones.FeeFor(sess.Neighborhood)
	if err != nil {
		return nil, err
	}
	sess.DeliveryFee = fee
	sess.State = StateAwaitingPaymentSelection

	svc.log(ctx, sess).Info("delivery info set",
		zap.String("neighborhood", sess.Neighborhood),
		zap.Float64("fee", fee),
	)
	return summarize(sess), nil
}

// SelectPayment gates the chosen method through the policy engine. Prepaid
// methods wait for a proof of payment; pay-on-delivery methods submit the
// order right away.
func (svc *service) SelectPayment(ctx context.Context, customerID string, method policy.Method, deferToDelivery bool) (*PaymentOutcome, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	if sess.State != StateAwaitingPaymentSelection {
		return nil, fmt.Errorf("%w: payment selection in state %s", ErrInvalidTransition, sess.State)
	}

	class := policy.Classify(sess.Products())
	decision, err := svc.policy.Evaluate(method, class)
	if errors.Is(err, policy.ErrPixNotAllowedPrepaid) && deferToDelivery {
		// The customer accepted the fallback: same method, settled at the
		// door once the final weight is known.
		decision = policy.Decision{Method: method, Timing: policy.PayOnDelivery}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	sess.PaymentMethod = decision.Method
	sess.PaymentTiming = decision.Timing

	if decision.Timing == policy.PayPrepaid {
		sess.State = StateAwaitingPaymentConfirmation
		svc.log(ctx, sess).Info("awaiting payment proof", zap.String("method", string(method)))
		return &PaymentOutcome{Decision: decision}, nil
	}

	result, err := svc.finalize(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &PaymentOutcome{Decision: decision, Submitted: result}, nil
}

func (svc *service) ConfirmPayment(ctx context.Context, customerID, proofRef string) (*SubmitResult, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	if sess.State != StateAwaitingPaymentConfirmation {
		return nil, fmt.Errorf("%w: payment confirmation in state %s", ErrInvalidTransition, sess.State)
	}

	sess.PaymentProofRef = proofRef
	return svc.finalize(ctx, sess)
}

// Submit re-runs finalization for a session that already has delivery and
// payment settled, the path after a stale re-quote sent it back to review.
func (svc *service) Submit(ctx context.Context, customerID string) (*SubmitResult, error) {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	switch sess.State {
	case StateReviewingSummary, StateAwaitingPaymentSelection:
	default:
		return nil, fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, sess.State)
	}
	if sess.PaymentMethod == "" || sess.Recipient == "" || sess.Address == "" {
		return nil, fmt.Errorf("%w: submit before delivery and payment are settled", ErrInvalidTransition)
	}

	return svc.finalize(ctx, sess)
}

func (svc *service) Cancel(ctx context.Context, customerID string) error {
	sess, release := svc.store.Acquire(customerID)
	defer release()

	sess.State = StateCancelled
	sess.Lines = nil

	svc.log(ctx, sess).Info("session cancelled")
	return nil
}

// finalize re-quotes every line, builds the immutable order snapshot, and
// hands it to intake. Any price drift or stock shortfall repriced the lines,
// returns the session to review, and nothing ships.
func (svc *service) finalize(ctx context.Context, sess *Session) (*SubmitResult, error) {
	log := svc.log(ctx, sess)

	if len(sess.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	var stale []StaleLine
	now := svc.now()
	for i := range sess.Lines {
		line := &sess.Lines[i]

		quote, err := svc.quotes.Quote(ctx, line.Product.EAN)
		if err != nil {
			return nil, err
		}

		drifted := math.Abs(quote.UnitPrice-line.UnitPrice) > priceTolerance
		short := !quote.Covers(line.amount())
		if drifted || short {
			stale = append(stale, StaleLine{
				LineID:      line.LineID,
				ProductName: line.Product.Name,
				OldPrice:    line.UnitPrice,
				NewPrice:    quote.UnitPrice,
				Available:   quote.Available,
				ShortStock:  short,
			})
		}
		line.reprice(quote.UnitPrice, now)
	}

	if len(stale) > 0 {
		sess.State = StateReviewingSummary
		log.Warn("submission blocked by stale quotes", zap.Int("stale_lines", len(stale)))
		return nil, &StaleError{Lines: stale}
	}

	snapshot := svc.buildOrder(sess, now)

	amend := sess.LastOrderID != nil && sess.LastFinalizedAt != nil &&
		now.Sub(*sess.LastFinalizedAt) <= svc.store.window
	if amend {
		snapshot.ID = *sess.LastOrderID
		if err := svc.intake.Amend(ctx, snapshot); err != nil {
			return nil, err
		}
	} else {
		if err := svc.intake.Submit(ctx, snapshot); err != nil {
			return nil, err
		}
	}

	sess.State = StateSubmitted
	sess.LastFinalizedAt = &now
	sess.LastOrderID = &snapshot.ID

	log.Info("order submitted",
		zap.String("order_id", snapshot.ID.String()),
		zap.Float64("total", snapshot.Total),
		zap.Bool("amended", amend),
	)
	return &SubmitResult{Order: snapshot, Amended: amend}, nil
}

func (svc *service) buildOrder(sess *Session, now time.Time) *order.Order {
	items := make([]order.Item, len(sess.Lines))
	for i, l := range sess.Lines {
		qty := l.Units
		if qty == 0 {
			qty = 1
		}
		items[i] = order.Item{
			ProductName: l.Product.Name,
			Quantity:    qty,
			UnitPrice:   l.UnitPrice,
			Note:        itemNote(l),
		}
	}

	return &order.Order{
		ID:            uuid.New(),
		CustomerID:    sess.CustomerID,
		Recipient:     sess.Recipient,
		Address:       sess.Address,
		Neighborhood:  sess.Neighborhood,
		PaymentMethod: string(sess.PaymentMethod),
		PaymentTiming: string(sess.PaymentTiming),
		ProofRef:      sess.PaymentProofRef,
		Items:         items,
		Subtotal:      sess.Subtotal(),
		DeliveryFee:   sess.DeliveryFee,
		Total:         sess.Total(),
		CreatedAt:     now,
	}
}

// itemNote carries the weighing caveat to the packer for estimated lines.
func itemNote(l CartLine) string {
	note := l.Note
	if l.Approximate {
		caveat := fmt.Sprintf("Peso estimado: %.3fkg (~R$%.2f). PESAR para confirmar valor.", l.MassKg, l.Subtotal)
		if note != "" {
			note += " "
		}
		note += caveat
	}
	return note
}

func validateQuantity(p catalog.Product, qty Quantity) error {
	if qty.Units < 0 || qty.MassKg < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidQuantity)
	}
	if qty.Units == 0 && qty.MassKg == 0 {
		return fmt.Errorf("%w: no amount given", ErrInvalidQuantity)
	}
	if qty.MassKg > 0 && p.SaleUnit != catalog.SaleByKilo {
		return fmt.Errorf("%w: %s is sold by unit, not by mass", ErrInvalidQuantity, p.Name)
	}
	if qty.Units > 0 && qty.MassKg > 0 {
		return fmt.Errorf("%w: give units or mass, not both", ErrInvalidQuantity)
	}
	return nil
}

func (svc *service) log(ctx context.Context, sess *Session) *zap.Logger {
	if logger.CustomerIDFrom(ctx) == "" {
		ctx = logger.WithCustomerID(ctx, sess.CustomerID)
	}
	return logger.FromCtx(ctx).With(
		zap.String("layer", "session"),
		zap.String("state", string(sess.State)),
	)
}
