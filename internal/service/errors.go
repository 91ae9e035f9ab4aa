// Package service implements the ticket search, purchase, pricing and
// lifecycle pipeline on top of the upstream client.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// ─── Pipeline errors ────────────────────────────────────────

var (
	// ErrLocationUnavailable is returned when no coordinate fix could be
	// obtained. Callers must disable "use current location" affordances
	// instead of retrying automatically.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrInvalidPriceData is returned when the pricing response fails
	// validation after normalization. The purchase must not proceed on a
	// guessed price; it has to be recalculated.
	ErrInvalidPriceData = errors.New("invalid price data")

	// ErrInvalidDiscountCode is returned when a promotional code does not
	// resolve. A previously applied discount is left untouched.
	ErrInvalidDiscountCode = errors.New("invalid discount code")

	// ErrPaymentRejected is returned on a server-side payment decline.
	// It never carries card data.
	ErrPaymentRejected = errors.New("payment rejected")

	// ErrNoTickets is returned when a payment is attempted with no
	// ticket ids.
	ErrNoTickets = errors.New("no tickets to pay for")

	// ErrNotCancellable is returned when cancellation is requested for a
	// ticket whose journey has started, whose status forbids it, or from
	// the archive scope.
	ErrNotCancellable = errors.New("ticket cannot be cancelled")

	// ErrNotRefundable is returned when a refund is requested outside the
	// archive scope or for a ticket not in PAID status.
	ErrNotRefundable = errors.New("ticket is not refundable")

	// ErrCancelledNotRefundable is the pre-flight rejection for refund
	// requests on cancelled tickets; the server is never called.
	ErrCancelledNotRefundable = errors.New("cancelled tickets are not refundable")

	// ErrQRUnavailable is returned when a QR code is requested for a
	// ticket that is not PAID or has no QR code id.
	ErrQRUnavailable = errors.New("qr code unavailable for this ticket")

	// ErrSearchSuperseded is returned when a page resolves after its
	// query key was replaced; the result has been discarded.
	ErrSearchSuperseded = errors.New("search superseded by a newer query")

	// ErrPageInFlight is returned when a page is requested while another
	// page for the same query key is still pending.
	ErrPageInFlight = errors.New("a page for this search is already in flight")

	// ErrNoMorePages is returned when more results are requested after
	// the last page reported hasNextPage=false.
	ErrNoMorePages = errors.New("no more pages for this search")
)

// ─── Validation ─────────────────────────────────────────────

// FieldError is one per-field validation failure, surfaced before any
// network call is attempted.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates the field failures of a local validation
// pass. It never reaches the network.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add appends a failure; a nil receiver-safe helper is deliberately not
// provided so call sites stay explicit.
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil returns the error value, or nil when no field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
