package handler

import (
	"errors"
	"net/http"

	"github.com/trackeasy/railtick/internal/service"
	"github.com/trackeasy/railtick/pkg/currency"
)

// PaymentHandler handles card payment HTTP requests.
type PaymentHandler struct {
	processor *service.PaymentProcessor
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(processor *service.PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{processor: processor}
}

// payRequest carries the card fields flat, as entered.
type payRequest struct {
	TicketIDs []string      `json:"ticketIds"`
	Currency  currency.Code `json:"currency"`
	service.CardDetails
}

// Pay handles POST /api/v1/payments
//
// Pays for the given tickets by card. Card fields are validated before
// any network call; a decline never echoes card data back.
//
// Response codes:
//
//	200 — Payment accepted, tickets move to PAID
//	400 — No ticket ids
//	402 — The operator declined the payment
//	422 — Card fields failed validation
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.processor.Pay(r.Context(), req.TicketIDs, req.CardDetails, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoTickets):
			writeError(w, http.StatusBadRequest, "no_tickets", "There are no tickets to pay for.")
		case errors.Is(err, service.ErrPaymentRejected):
			writeError(w, http.StatusPaymentRequired, "payment_rejected", "The payment was declined. Check the card details and retry.")
		default:
			respondServiceError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}
