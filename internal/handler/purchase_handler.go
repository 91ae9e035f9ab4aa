package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/service"
	"github.com/trackeasy/railtick/pkg/dates"
)

// PurchaseHandler handles order pricing and submission HTTP requests.
type PurchaseHandler struct {
	pricing      *service.PricingEngine
	orchestrator *service.PurchaseOrchestrator
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(pricing *service.PricingEngine, orchestrator *service.PurchaseOrchestrator) *PurchaseHandler {
	return &PurchaseHandler{pricing: pricing, orchestrator: orchestrator}
}

// orderDraft is the request form of a purchase order before validation.
// dateOrder says how slash-formatted dates in the draft should be read:
// "dmy" for day-first locales, anything else is month-first.
type orderDraft struct {
	Email        string                `json:"email"`
	Passengers   []model.Passenger     `json:"passengers"`
	Connections  []model.ConnectionRef `json:"connections"`
	DiscountCode *model.DiscountCode   `json:"discountCode,omitempty"`
	DateOrder    string                `json:"dateOrder,omitempty"`
}

// builder reconstructs the order state from the draft.
func (d orderDraft) builder() *service.OrderBuilder {
	order := dates.MonthFirst
	if d.DateOrder == "dmy" {
		order = dates.DayFirst
	}
	b := service.NewOrderBuilder(d.Email, d.Connections, order)
	b.SetPassengers(d.Passengers)
	if d.DiscountCode != nil {
		b.ApplyDiscount(*d.DiscountCode)
	}
	return b
}

// PriceOrder handles POST /api/v1/orders/price
//
// Validates the draft and returns the operator-computed total in
// canonical form. A price that fails validation blocks the purchase;
// the client must recalculate, never guess.
//
// Response codes:
//
//	200 — Canonical price
//	422 — Draft failed validation, or the operator returned unusable price data
func (h *PurchaseHandler) PriceOrder(w http.ResponseWriter, r *http.Request) {
	var draft orderDraft
	if !decodeBody(w, r, &draft) {
		return
	}

	order, err := draft.builder().Build()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	price, err := h.pricing.Calculate(r.Context(), order)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPriceData) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_price_data",
				"The operator returned an unusable price. Recalculate before purchasing.")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// submitRequest is the order submission payload: the draft plus the
// payment method and the previously calculated price.
type submitRequest struct {
	orderDraft
	PaymentMethod service.PaymentMethod `json:"paymentMethod"`
	Price         model.Money           `json:"price"`
}

// SubmitOrder handles POST /api/v1/orders
//
// Submits the order. Cash orders terminate here with tickets created
// UNPAID; card orders come back awaiting payment, to be completed via
// the payments endpoint with the returned ticket ids.
//
// Response codes:
//
//	201 — Order accepted (see awaitingPayment for the card branch)
//	422 — Draft or payment method failed validation
func (h *PurchaseHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.orchestrator.Submit(r.Context(), req.builder(), req.PaymentMethod, req.Price)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListDiscounts handles GET /api/v1/discounts
//
// Returns the passenger-category discount list.
func (h *PurchaseHandler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.pricing.Discounts(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, discounts)
}

// ResolveDiscountCode handles GET /api/v1/discount-codes/{code}
//
// Resolves a promotional code to its id and percentage. Unknown codes
// are a 404; the client keeps any previously applied discount.
func (h *PurchaseHandler) ResolveDiscountCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	dc, err := h.pricing.ValidateDiscountCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDiscountCode) {
			writeError(w, http.StatusNotFound, "invalid_code", "This discount code is not recognized.")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dc)
}
