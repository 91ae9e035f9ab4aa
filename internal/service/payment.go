package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"

	"github.com/trackeasy/railtick/internal/upstream"
	"github.com/trackeasy/railtick/pkg/currency"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	expMonthRe   = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	expYearRe    = regexp.MustCompile(`^\d{2}$`)
	cvcRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// CardDetails is the card input as entered. It is validated locally and
// transmitted once; it must never appear in logs or error messages.
type CardDetails struct {
	Number   string `json:"cardNumber"`
	ExpMonth string `json:"cardExpMonth"`
	ExpYear  string `json:"cardExpYear"`
	CVC      string `json:"cardCvc"`
}

// paymentAPI is the slice of the upstream client the processor needs.
type paymentAPI interface {
	PayCard(ctx context.Context, payment upstream.CardPayment) error
}

// PaymentProcessor validates and submits card payments for pending
// tickets. The currency goes out in its numeric wire form; the payment
// endpoint, unlike pricing, accepts only the numeric encoding.
type PaymentProcessor struct {
	api paymentAPI
}

// NewPaymentProcessor creates a payment processor.
func NewPaymentProcessor(api paymentAPI) *PaymentProcessor {
	return &PaymentProcessor{api: api}
}

// Pay validates the card fields and submits the payment. Validation
// failures never reach the network; server declines come back as
// ErrPaymentRejected with no card data attached.
func (p *PaymentProcessor) Pay(ctx context.Context, ticketIDs []string, card CardDetails, cur currency.Code) error {
	if len(ticketIDs) == 0 {
		return ErrNoTickets
	}

	verr := &ValidationError{}
	if !cardNumberRe.MatchString(card.Number) {
		verr.add("cardNumber", "card number must be 16 digits")
	}
	if !expMonthRe.MatchString(card.ExpMonth) {
		verr.add("cardExpMonth", "month must be between 01-12")
	}
	if !expYearRe.MatchString(card.ExpYear) {
		verr.add("cardExpYear", "year must be 2 digits")
	}
	if !cvcRe.MatchString(card.CVC) {
		verr.add("cardCvc", "CVC must be 3 or 4 digits")
	}
	if !currency.Valid(cur) {
		verr.add("currency", "currency must be PLN, EUR or USD")
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	month, _ := strconv.Atoi(card.ExpMonth)
	year, _ := strconv.Atoi(card.ExpYear)

	payment := upstream.CardPayment{
		TicketIDs:    ticketIDs,
		Currency:     currency.ToNumeric(cur),
		CardNumber:   card.Number,
		CardExpMonth: month,
		CardExpYear:  year,
		CardCvc:      card.CVC,
	}

	if err := p.api.PayCard(ctx, payment); err != nil {
		// Card data must not leak into logs; only the classification is
		// recorded.
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			log.Printf("[payment] declined for %d ticket(s): status %d", len(ticketIDs), statusErr.Code)
			return ErrPaymentRejected
		}
		log.Printf("[payment] failed for %d ticket(s): transport error", len(ticketIDs))
		return err
	}

	log.Printf("[payment] ✓ %d ticket(s) paid by card", len(ticketIDs))
	return nil
}
