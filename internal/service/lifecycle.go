package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/pkg/dates"
)

// ─── Scope ──────────────────────────────────────────────────

// Scope selects which ticket collection a view operates on. The scope
// gates the lifecycle actions: cancel is only offered from the current
// collection, refund only from the archive.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeArchive Scope = "archive"
)

// wireType maps a scope to the upstream list type parameter.
func (s Scope) wireType() int {
	if s == ScopeArchive {
		return 1
	}
	return 0
}

// ─── LifecycleManager ───────────────────────────────────────

// ticketAPI is the slice of the upstream client the manager needs.
type ticketAPI interface {
	ListTickets(ctx context.Context, userID string, scopeType, pageNumber, pageSize int) (*model.TicketPage, error)
	TicketDetails(ctx context.Context, ticketID string) (*model.TicketDetails, error)
	QRCode(ctx context.Context, qrCodeID string) ([]byte, error)
	CancelTicket(ctx context.Context, ticketID string) error
	RequestRefund(ctx context.Context, req model.RefundRequest) error
	CurrentTicket(ctx context.Context) (*string, error)
	TicketCities(ctx context.Context, ticketID string) ([]model.TicketCity, error)
	TicketArrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error)
	CityDetails(ctx context.Context, cityID string) (*model.CityDetails, error)
}

// LifecycleManager reads tickets and requests state transitions.
//
// State machine per ticket:
//   - UNPAID → PAID: applied server-side after a successful card payment
//     (cash tickets stay UNPAID awaiting manual settlement).
//   - UNPAID, PAID → CANCELLED: only while the journey has not started
//     (now < departureTime; unparsable departure times count as not
//     started) and only from the current scope.
//   - PAID → REFUND_REQUESTED: only from the archive scope and only when
//     the status is exactly PAID. A refund request on a CANCELLED ticket
//     is rejected locally; the server is never called.
//
// Nothing is mutated optimistically: every successful mutation drops the
// cached detail and refetches, so local state only ever reflects what
// the server confirmed. Detail reads and the current-ticket lookup share
// one cache so the two cannot transiently disagree.
type LifecycleManager struct {
	api      ticketAPI
	details  *gocache.Cache
	pageSize int
	now      func() time.Time
}

// NewLifecycleManager creates a manager whose detail reads stay fresh
// for detailsTTL.
func NewLifecycleManager(api ticketAPI, detailsTTL time.Duration, pageSize int) *LifecycleManager {
	return &LifecycleManager{
		api:      api,
		details:  gocache.New(detailsTTL, 2*detailsTTL),
		pageSize: pageSize,
		now:      time.Now,
	}
}

func detailKey(ticketID string) string { return "detail:" + ticketID }

const currentTicketKey = "current-ticket"

// ListTickets returns one page of the user's tickets in the given
// scope. page is 0-based; the wire is 1-based and the manager adjusts
// in both directions.
func (m *LifecycleManager) ListTickets(ctx context.Context, userID string, scope Scope, page int) (*model.TicketPage, error) {
	if page < 0 {
		page = 0
	}
	result, err := m.api.ListTickets(ctx, userID, scope.wireType(), page+1, m.pageSize)
	if err != nil {
		return nil, err
	}
	result.PageNumber--
	return result, nil
}

// Details returns the full ticket view, served from the shared cache
// when fresh.
func (m *LifecycleManager) Details(ctx context.Context, ticketID string) (*model.TicketDetails, error) {
	if cached, ok := m.details.Get(detailKey(ticketID)); ok {
		return cached.(*model.TicketDetails), nil
	}
	details, err := m.api.TicketDetails(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	m.details.SetDefault(detailKey(ticketID), details)
	return details, nil
}

// CurrentTicketID returns the id of the ticket in progress, or nil.
func (m *LifecycleManager) CurrentTicketID(ctx context.Context) (*string, error) {
	if cached, ok := m.details.Get(currentTicketKey); ok {
		return cached.(*string), nil
	}
	id, err := m.api.CurrentTicket(ctx)
	if err != nil {
		return nil, err
	}
	m.details.SetDefault(currentTicketKey, id)
	return id, nil
}

// CanCancel reports whether the cancel action may be offered for a
// ticket viewed in the given scope.
func (m *LifecycleManager) CanCancel(t *model.TicketDetails, scope Scope) bool {
	if scope != ScopeCurrent {
		return false
	}
	if t.Status != model.StatusUnpaid && t.Status != model.StatusPaid {
		return false
	}
	return !dates.JourneyStarted(t.DepartureTime, m.now())
}

// Cancel requests cancellation of a ticket viewed in the given scope.
// On success the cached detail is dropped and refetched so the caller
// sees the server-confirmed state.
func (m *LifecycleManager) Cancel(ctx context.Context, ticketID string, scope Scope) (*model.TicketDetails, error) {
	details, err := m.Details(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !m.CanCancel(details, scope) {
		return nil, fmt.Errorf("%w: status=%s scope=%s", ErrNotCancellable, details.Status, scope)
	}

	if err := m.api.CancelTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] ✓ ticket %s cancelled", ticketID)
	return m.refetch(ctx, ticketID)
}

// CanRefund reports whether the refund action may be offered for a
// ticket viewed in the given scope.
func (m *LifecycleManager) CanRefund(t *model.TicketDetails, scope Scope) bool {
	return scope == ScopeArchive && t.Status == model.StatusPaid
}

// RequestRefund asks the server to move a PAID ticket into
// REFUND_REQUESTED. A blank reason is transmitted as "No reason
// provided". Cancelled tickets are rejected before any network call.
func (m *LifecycleManager) RequestRefund(ctx context.Context, req model.RefundRequest, scope Scope) (*model.TicketDetails, error) {
	details, err := m.Details(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if details.Status == model.StatusCancelled {
		return nil, ErrCancelledNotRefundable
	}
	if !m.CanRefund(details, scope) {
		return nil, fmt.Errorf("%w: status=%s scope=%s", ErrNotRefundable, details.Status, scope)
	}

	if req.Reason == "" {
		req.Reason = "No reason provided"
	}
	if err := m.api.RequestRefund(ctx, req); err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] ✓ refund requested for ticket %s", req.TicketID)
	return m.refetch(ctx, req.TicketID)
}

// QRCode fetches the ticket's QR code and returns it as a base64 data
// URI for display. Retrieval is gated on PAID status; tickets in any
// other status never attempt the fetch.
func (m *LifecycleManager) QRCode(ctx context.Context, ticketID string) (string, error) {
	details, err := m.Details(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if details.Status != model.StatusPaid || details.QRCodeID == nil {
		return "", ErrQRUnavailable
	}

	png, err := m.api.QRCode(ctx, *details.QRCodeID)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Cities returns the sequenced cities on a ticket's route.
func (m *LifecycleManager) Cities(ctx context.Context, ticketID string) ([]model.TicketCity, error) {
	return m.api.TicketCities(ctx, ticketID)
}

// Arrivals returns per-city arrival times for a ticket.
func (m *LifecycleManager) Arrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error) {
	return m.api.TicketArrivals(ctx, ticketID)
}

// CityDetails returns the fun-fact content for a city.
func (m *LifecycleManager) CityDetails(ctx context.Context, cityID string) (*model.CityDetails, error) {
	return m.api.CityDetails(ctx, cityID)
}

// refetch drops the cached state for a ticket and reloads it from the
// server after a confirmed mutation.
func (m *LifecycleManager) refetch(ctx context.Context, ticketID string) (*model.TicketDetails, error) {
	m.details.Delete(detailKey(ticketID))
	m.details.Delete(currentTicketKey)
	return m.Details(ctx, ticketID)
}
