package service

import (
	"context"
	"log"

	"github.com/trackeasy/railtick/internal/model"
)

// ─── Payment method ─────────────────────────────────────────

// PaymentMethod selects the post-submission branch. It is orchestration
// state, not part of the purchase command itself.
type PaymentMethod string

const (
	// PayCash: tickets are created UNPAID, awaiting manual settlement
	// with the conductor; the flow terminates at submission.
	PayCash PaymentMethod = "cash"
	// PayCard: the flow continues into PaymentProcessor and is not
	// complete until the payment succeeds.
	PayCard PaymentMethod = "card"
)

// ─── PurchaseOrchestrator ───────────────────────────────────

// purchaseAPI is the slice of the upstream client the orchestrator needs.
type purchaseAPI interface {
	Buy(ctx context.Context, order model.PurchaseOrder) ([]string, error)
	TicketArrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error)
}

// PurchaseResult is what submission produced. AwaitingPayment is true
// for the card branch: the ticket ids and the previously computed price
// must be forwarded to the payment processor.
type PurchaseResult struct {
	TicketIDs       []string      `json:"ticketIds"`
	Method          PaymentMethod `json:"method"`
	AwaitingPayment bool          `json:"awaitingPayment"`
	Price           model.Money   `json:"price"`
}

// PurchaseOrchestrator submits purchase orders and branches on the
// payment method captured alongside the order.
type PurchaseOrchestrator struct {
	api      purchaseAPI
	notifier NotificationScheduler
}

// NewPurchaseOrchestrator creates an orchestrator. notifier may be the
// nop implementation when arrival alerts are not wanted.
func NewPurchaseOrchestrator(api purchaseAPI, notifier NotificationScheduler) *PurchaseOrchestrator {
	if notifier == nil {
		notifier = NopNotificationScheduler{}
	}
	return &PurchaseOrchestrator{api: api, notifier: notifier}
}

// Submit builds the command from the builder and submits it.
//
// Flow:
//  1. Build; a validation failure returns before any network call and
//     leaves the builder intact for correction.
//  2. POST the order; the server answers with the created ticket ids.
//  3. Branch on method: cash terminates here (tickets stay UNPAID until
//     settled manually); card returns AwaitingPayment with the price so
//     the caller can hand off to PaymentProcessor.
//
// Any submission failure also leaves the builder untouched, so the
// passenger can retry without re-entering data.
func (o *PurchaseOrchestrator) Submit(ctx context.Context, builder *OrderBuilder, method PaymentMethod, price model.Money) (*PurchaseResult, error) {
	order, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if method != PayCash && method != PayCard {
		verr := &ValidationError{}
		verr.add("paymentMethod", "must be 'cash' or 'card'")
		return nil, verr
	}

	ids, err := o.api.Buy(ctx, order)
	if err != nil {
		return nil, err
	}
	log.Printf("[purchase] order submitted: %d ticket(s), method=%s", len(ids), method)

	o.scheduleArrivals(ctx, ids)

	return &PurchaseResult{
		TicketIDs:       ids,
		Method:          method,
		AwaitingPayment: method == PayCard,
		Price:           price,
	}, nil
}

// scheduleArrivals sets up arrival alerts for the purchased journey.
// Best effort: a scheduling failure never fails the purchase.
func (o *PurchaseOrchestrator) scheduleArrivals(ctx context.Context, ticketIDs []string) {
	if len(ticketIDs) == 0 {
		return
	}
	arrivals, err := o.api.TicketArrivals(ctx, ticketIDs[0])
	if err != nil {
		log.Printf("[purchase] arrival lookup failed: %v", err)
		return
	}
	if len(arrivals) == 0 {
		return
	}
	if err := o.notifier.ScheduleArrival(ctx, arrivals); err != nil {
		log.Printf("[purchase] arrival notification scheduling failed: %v", err)
	}
}
