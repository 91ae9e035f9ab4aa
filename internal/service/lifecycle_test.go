package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/upstream"
)

// fakeTicketAPI holds mutable server-side ticket state so mutations can
// be observed through the refetch.
type fakeTicketAPI struct {
	tickets map[string]*model.TicketDetails
	qr      map[string][]byte
	current *string

	listCalls    []listCall
	detailCalls  int
	cancelErr    error
	refundErr    error
	lastRefund   *model.RefundRequest
	cancelCalled bool
}

type listCall struct {
	scopeType, pageNumber, pageSize int
}

func (f *fakeTicketAPI) ListTickets(ctx context.Context, userID string, scopeType, pageNumber, pageSize int) (*model.TicketPage, error) {
	f.listCalls = append(f.listCalls, listCall{scopeType, pageNumber, pageSize})
	return &model.TicketPage{
		Items:      []model.TicketSummary{{ID: "t1"}},
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: 1,
		TotalPages: 1,
	}, nil
}

func (f *fakeTicketAPI) TicketDetails(ctx context.Context, ticketID string) (*model.TicketDetails, error) {
	f.detailCalls++
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, upstream.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketAPI) QRCode(ctx context.Context, qrCodeID string) ([]byte, error) {
	png, ok := f.qr[qrCodeID]
	if !ok {
		return nil, upstream.ErrNotFound
	}
	return png, nil
}

func (f *fakeTicketAPI) CancelTicket(ctx context.Context, ticketID string) error {
	f.cancelCalled = true
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.tickets[ticketID].Status = model.StatusCancelled
	return nil
}

func (f *fakeTicketAPI) RequestRefund(ctx context.Context, req model.RefundRequest) error {
	f.lastRefund = &req
	if f.refundErr != nil {
		return f.refundErr
	}
	f.tickets[req.TicketID].Status = model.StatusRefundRequested
	return nil
}

func (f *fakeTicketAPI) CurrentTicket(ctx context.Context) (*string, error) {
	return f.current, nil
}

func (f *fakeTicketAPI) TicketCities(ctx context.Context, ticketID string) ([]model.TicketCity, error) {
	return []model.TicketCity{{ID: "city-1", Name: "Kraków", SequenceNumber: 1}}, nil
}

func (f *fakeTicketAPI) TicketArrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error) {
	return nil, nil
}

func (f *fakeTicketAPI) CityDetails(ctx context.Context, cityID string) (*model.CityDetails, error) {
	return &model.CityDetails{ID: cityID, Name: "Kraków"}, nil
}

func qrID(s string) *string { return &s }

func newFakeTicketAPI(status model.TicketStatus, departure string) *fakeTicketAPI {
	return &fakeTicketAPI{
		tickets: map[string]*model.TicketDetails{
			"t1": {
				ID:            "t1",
				Status:        status,
				DepartureTime: departure,
				QRCodeID:      qrID("qr-1"),
			},
		},
		qr: map[string][]byte{"qr-1": []byte("png-bytes")},
	}
}

func managerAt(api *fakeTicketAPI, now string) *LifecycleManager {
	m := NewLifecycleManager(api, time.Minute, 10)
	m.now = func() time.Time {
		ts, _ := time.Parse("2006-01-02T15:04", now)
		return ts
	}
	return m
}

func TestLifecycleManager_CancelBeforeDeparture(t *testing.T) {
	// A PAID ticket departing later today is cancelled; the refreshed
	// detail reflects the server-confirmed state.
	api := newFakeTicketAPI(model.StatusPaid, "2025-06-10T15:00")
	m := managerAt(api, "2025-06-10T12:00")

	details, err := m.Cancel(context.Background(), "t1", ScopeCurrent)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if details.Status != model.StatusCancelled {
		t.Errorf("status after cancel = %s, want CANCELLED", details.Status)
	}
}

func TestLifecycleManager_CancelAfterDepartureRejected(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "2025-06-10T15:00")
	m := managerAt(api, "2025-06-10T16:00")

	_, err := m.Cancel(context.Background(), "t1", ScopeCurrent)
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("err = %v, want ErrNotCancellable", err)
	}
	if api.cancelCalled {
		t.Error("started journey must not reach the cancel endpoint")
	}
}

func TestLifecycleManager_CanCancelGating(t *testing.T) {
	m := managerAt(newFakeTicketAPI(model.StatusPaid, ""), "2025-06-10T12:00")
	future, past := "2025-06-11T09:00", "2025-06-09T09:00"

	cases := []struct {
		name      string
		status    model.TicketStatus
		departure string
		scope     Scope
		want      bool
	}{
		{"paid future current", model.StatusPaid, future, ScopeCurrent, true},
		{"unpaid future current", model.StatusUnpaid, future, ScopeCurrent, true},
		{"paid started", model.StatusPaid, past, ScopeCurrent, false},
		{"cancelled", model.StatusCancelled, future, ScopeCurrent, false},
		{"refund requested", model.StatusRefundRequested, future, ScopeCurrent, false},
		{"archive scope", model.StatusPaid, future, ScopeArchive, false},
		{"unparsable departure counts as not started", model.StatusPaid, "whenever", ScopeCurrent, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := &model.TicketDetails{Status: tc.status, DepartureTime: tc.departure}
			if got := m.CanCancel(details, tc.scope); got != tc.want {
				t.Errorf("CanCancel = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLifecycleManager_RefundFromArchive(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "2025-06-01T15:00")
	m := managerAt(api, "2025-06-10T12:00")

	details, err := m.RequestRefund(context.Background(), model.RefundRequest{
		UserID: "u1", TicketID: "t1", Reason: "Trip cancelled", Email: "anna@example.com",
	}, ScopeArchive)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if details.Status != model.StatusRefundRequested {
		t.Errorf("status after refund = %s, want REFUND_REQUESTED", details.Status)
	}
	if api.lastRefund.Reason != "Trip cancelled" {
		t.Errorf("reason on wire = %q", api.lastRefund.Reason)
	}
}

func TestLifecycleManager_BlankRefundReasonDefaulted(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "2025-06-01T15:00")
	m := managerAt(api, "2025-06-10T12:00")

	if _, err := m.RequestRefund(context.Background(), model.RefundRequest{
		UserID: "u1", TicketID: "t1", Email: "anna@example.com",
	}, ScopeArchive); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if api.lastRefund.Reason != "No reason provided" {
		t.Errorf("blank reason on wire = %q, want the default", api.lastRefund.Reason)
	}
}

func TestLifecycleManager_CancelledTicketRefundRejectedLocally(t *testing.T) {
	api := newFakeTicketAPI(model.StatusCancelled, "2025-06-01T15:00")
	m := managerAt(api, "2025-06-10T12:00")

	_, err := m.RequestRefund(context.Background(), model.RefundRequest{
		UserID: "u1", TicketID: "t1",
	}, ScopeArchive)
	if !errors.Is(err, ErrCancelledNotRefundable) {
		t.Fatalf("err = %v, want ErrCancelledNotRefundable", err)
	}
	if api.lastRefund != nil {
		t.Error("cancelled ticket refund must not reach the server")
	}
}

func TestLifecycleManager_CanRefundGating(t *testing.T) {
	m := managerAt(newFakeTicketAPI(model.StatusPaid, ""), "2025-06-10T12:00")

	cases := []struct {
		name   string
		status model.TicketStatus
		scope  Scope
		want   bool
	}{
		{"paid archive", model.StatusPaid, ScopeArchive, true},
		{"paid current", model.StatusPaid, ScopeCurrent, false},
		{"unpaid archive", model.StatusUnpaid, ScopeArchive, false},
		{"refund requested archive", model.StatusRefundRequested, ScopeArchive, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := &model.TicketDetails{Status: tc.status}
			if got := m.CanRefund(details, tc.scope); got != tc.want {
				t.Errorf("CanRefund = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLifecycleManager_ListPageAdjustment(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "")
	m := managerAt(api, "2025-06-10T12:00")

	page, err := m.ListTickets(context.Background(), "u1", ScopeArchive, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if api.listCalls[0].pageNumber != 1 {
		t.Errorf("wire page = %d, want 1-based 1", api.listCalls[0].pageNumber)
	}
	if api.listCalls[0].scopeType != 1 {
		t.Errorf("wire scope type = %d, want 1 for archive", api.listCalls[0].scopeType)
	}
	if page.PageNumber != 0 {
		t.Errorf("returned page = %d, want 0-based 0", page.PageNumber)
	}

	if _, err := m.ListTickets(context.Background(), "u1", ScopeCurrent, 2); err != nil {
		t.Fatalf("list: %v", err)
	}
	if api.listCalls[1].pageNumber != 3 || api.listCalls[1].scopeType != 0 {
		t.Errorf("wire call = %+v, want page 3 scope 0", api.listCalls[1])
	}
}

func TestLifecycleManager_DetailsCached(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "")
	m := managerAt(api, "2025-06-10T12:00")

	for i := 0; i < 3; i++ {
		if _, err := m.Details(context.Background(), "t1"); err != nil {
			t.Fatalf("details: %v", err)
		}
	}
	if api.detailCalls != 1 {
		t.Errorf("upstream detail calls = %d, want 1 (cached)", api.detailCalls)
	}
}

func TestLifecycleManager_MutationInvalidatesCache(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "2025-06-10T15:00")
	m := managerAt(api, "2025-06-10T12:00")

	if _, err := m.Details(context.Background(), "t1"); err != nil {
		t.Fatalf("details: %v", err)
	}
	if _, err := m.Cancel(context.Background(), "t1", ScopeCurrent); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	details, err := m.Details(context.Background(), "t1")
	if err != nil {
		t.Fatalf("details after cancel: %v", err)
	}
	if details.Status != model.StatusCancelled {
		t.Errorf("cached status = %s, want server-confirmed CANCELLED", details.Status)
	}
}

func TestLifecycleManager_QRCodeForPaidTicket(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "")
	m := managerAt(api, "2025-06-10T12:00")

	uri, err := m.QRCode(context.Background(), "t1")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	if uri != want {
		t.Errorf("qr uri = %q, want %q", uri, want)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("qr uri missing data prefix: %q", uri)
	}
}

func TestLifecycleManager_QRCodeGatedOnStatus(t *testing.T) {
	for _, status := range []model.TicketStatus{model.StatusUnpaid, model.StatusCancelled, model.StatusRefundRequested} {
		api := newFakeTicketAPI(status, "")
		m := managerAt(api, "2025-06-10T12:00")
		if _, err := m.QRCode(context.Background(), "t1"); !errors.Is(err, ErrQRUnavailable) {
			t.Errorf("status %s: err = %v, want ErrQRUnavailable", status, err)
		}
	}
}

func TestLifecycleManager_QRCodeMissingID(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "")
	api.tickets["t1"].QRCodeID = nil
	m := managerAt(api, "2025-06-10T12:00")
	if _, err := m.QRCode(context.Background(), "t1"); !errors.Is(err, ErrQRUnavailable) {
		t.Errorf("err = %v, want ErrQRUnavailable", err)
	}
}

func TestLifecycleManager_CurrentTicket(t *testing.T) {
	api := newFakeTicketAPI(model.StatusPaid, "")
	id := "t1"
	api.current = &id
	m := managerAt(api, "2025-06-10T12:00")

	got, err := m.CurrentTicketID(context.Background())
	if err != nil {
		t.Fatalf("current ticket: %v", err)
	}
	if got == nil || *got != "t1" {
		t.Errorf("current ticket = %v, want t1", got)
	}
}
