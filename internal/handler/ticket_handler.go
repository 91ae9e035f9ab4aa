package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/trackeasy/railtick/internal/middleware"
	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/service"
)

// TicketHandler handles ticket lifecycle HTTP requests.
type TicketHandler struct {
	lifecycle *service.LifecycleManager
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(lifecycle *service.LifecycleManager) *TicketHandler {
	return &TicketHandler{lifecycle: lifecycle}
}

// scopeFromQuery reads the scope parameter; the current collection is
// the default.
func scopeFromQuery(r *http.Request) (service.Scope, bool) {
	switch r.URL.Query().Get("scope") {
	case "", "current":
		return service.ScopeCurrent, true
	case "archive":
		return service.ScopeArchive, true
	default:
		return "", false
	}
}

// ListTickets handles GET /api/v1/tickets?scope={current|archive}&page={n}
//
// Returns one page of the caller's tickets. Pages are 0-based.
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be 'current' or 'archive'.")
		return
	}
	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_page", "page must be a non-negative integer.")
			return
		}
		page = n
	}

	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "A user identity is required.")
		return
	}

	result, err := h.lifecycle.ListTickets(r.Context(), userID, scope, page)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CurrentTicket handles GET /api/v1/tickets/current
//
// Returns the id of the journey in progress, or a null id when there is
// none.
func (h *TicketHandler) CurrentTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.lifecycle.CurrentTicketID(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*string{"ticketId": id})
}

// GetTicket handles GET /api/v1/tickets/{id}
//
// Returns the full server-owned ticket view, with the lifecycle actions
// available in the requested scope.
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be 'current' or 'archive'.")
		return
	}

	details, err := h.lifecycle.Details(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticket":    details,
		"canCancel": h.lifecycle.CanCancel(details, scope),
		"canRefund": h.lifecycle.CanRefund(details, scope),
	})
}

// QRCode handles GET /api/v1/tickets/{id}/qr
//
// Returns the ticket's boarding QR code as a data URI. Only PAID
// tickets carry one.
//
// Response codes:
//
//	200 — QR code data URI
//	404 — Unknown ticket
//	409 — The ticket is not PAID or has no QR code
func (h *TicketHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	uri, err := h.lifecycle.QRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, service.ErrQRUnavailable) {
			writeError(w, http.StatusConflict, "qr_unavailable", "Only paid tickets carry a QR code.")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qrCode": uri})
}

// CancelTicket handles POST /api/v1/tickets/{id}/cancel?scope={current}
//
// Requests cancellation. Allowed only from the current collection, for
// UNPAID or PAID tickets whose journey has not started. The response
// carries the server-confirmed state after the transition.
//
// Response codes:
//
//	200 — Cancelled; body holds the refreshed ticket
//	404 — Unknown ticket
//	409 — The ticket's status, scope, or departure time forbids cancellation
func (h *TicketHandler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be 'current' or 'archive'.")
		return
	}

	details, err := h.lifecycle.Cancel(r.Context(), mux.Vars(r)["id"], scope)
	if err != nil {
		if errors.Is(err, service.ErrNotCancellable) {
			writeError(w, http.StatusConflict, "not_cancellable", "This ticket can no longer be cancelled.")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// refundBody carries the optional free-text reason.
type refundBody struct {
	Reason string `json:"reason"`
}

// RequestRefund handles POST /api/v1/tickets/{id}/refund
//
// Requests a refund for a PAID archived ticket. Cancelled tickets are
// rejected without contacting the operator.
//
// Response codes:
//
//	200 — Refund requested; body holds the refreshed ticket
//	404 — Unknown ticket
//	409 — The ticket is cancelled, not PAID, or not viewed from the archive
func (h *TicketHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var body refundBody
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "A user identity is required.")
		return
	}

	req := model.RefundRequest{
		UserID:   userID,
		TicketID: mux.Vars(r)["id"],
		Reason:   body.Reason,
		Email:    middleware.UserEmail(r.Context()),
	}

	details, err := h.lifecycle.RequestRefund(r.Context(), req, service.ScopeArchive)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCancelledNotRefundable):
			writeError(w, http.StatusConflict, "cancelled_not_refundable", "Cancelled tickets cannot be refunded.")
		case errors.Is(err, service.ErrNotRefundable):
			writeError(w, http.StatusConflict, "not_refundable", "Only paid archived tickets can be refunded.")
		default:
			respondServiceError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// Cities handles GET /api/v1/tickets/{id}/cities
//
// Returns the sequenced cities on the ticket's route.
func (h *TicketHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.lifecycle.Cities(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// Arrivals handles GET /api/v1/tickets/{id}/arrivals
//
// Returns per-city arrival times for the ticket's journey.
func (h *TicketHandler) Arrivals(w http.ResponseWriter, r *http.Request) {
	arrivals, err := h.lifecycle.Arrivals(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arrivals)
}

// CityDetails handles GET /api/v1/cities/{id}
//
// Returns the city's display content, including fun facts.
func (h *TicketHandler) CityDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.lifecycle.CityDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
