package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/upstream"
	"github.com/trackeasy/railtick/pkg/currency"
	"github.com/trackeasy/railtick/pkg/dates"
)

type fakePurchaseAPI struct {
	ids         []string
	buyErr      error
	buyCalls    int
	arrivals    []model.TicketArrival
	arrivalsErr error
}

func (f *fakePurchaseAPI) Buy(ctx context.Context, order model.PurchaseOrder) ([]string, error) {
	f.buyCalls++
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	return f.ids, nil
}

func (f *fakePurchaseAPI) TicketArrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error) {
	return f.arrivals, f.arrivalsErr
}

type recordingScheduler struct {
	scheduled [][]model.TicketArrival
	err       error
}

func (r *recordingScheduler) ScheduleArrival(ctx context.Context, arrivals []model.TicketArrival) error {
	r.scheduled = append(r.scheduled, arrivals)
	return r.err
}

func readyBuilder() *OrderBuilder {
	b := NewOrderBuilder("anna@example.com", validConnections(), dates.MonthFirst)
	b.SetPassenger(0, validPassenger())
	return b
}

func pln(amount int64) model.Money {
	return model.Money{Amount: decimal.NewFromInt(amount), Currency: currency.PLN}
}

func TestPurchaseOrchestrator_CashTerminates(t *testing.T) {
	fake := &fakePurchaseAPI{ids: []string{"t1"}}
	o := NewPurchaseOrchestrator(fake, nil)

	res, err := o.Submit(context.Background(), readyBuilder(), PayCash, pln(50))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.AwaitingPayment {
		t.Error("cash purchase must not await payment")
	}
	if len(res.TicketIDs) != 1 || res.TicketIDs[0] != "t1" {
		t.Errorf("ticket ids = %v, want [t1]", res.TicketIDs)
	}
}

func TestPurchaseOrchestrator_CardAwaitsPayment(t *testing.T) {
	fake := &fakePurchaseAPI{ids: []string{"t1", "t2"}}
	o := NewPurchaseOrchestrator(fake, nil)

	res, err := o.Submit(context.Background(), readyBuilder(), PayCard, pln(100))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.AwaitingPayment {
		t.Error("card purchase must await payment")
	}
	if !res.Price.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("price carried = %s, want 100", res.Price.Amount)
	}
}

func TestPurchaseOrchestrator_InvalidOrderNeverSubmitted(t *testing.T) {
	fake := &fakePurchaseAPI{ids: []string{"t1"}}
	o := NewPurchaseOrchestrator(fake, nil)
	b := NewOrderBuilder("bad-email", validConnections(), dates.MonthFirst)

	_, err := o.Submit(context.Background(), b, PayCash, pln(50))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if fake.buyCalls != 0 {
		t.Error("invalid order must not reach the network")
	}
}

func TestPurchaseOrchestrator_UnknownMethodRejected(t *testing.T) {
	fake := &fakePurchaseAPI{ids: []string{"t1"}}
	o := NewPurchaseOrchestrator(fake, nil)

	_, err := o.Submit(context.Background(), readyBuilder(), PaymentMethod("cheque"), pln(50))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if fake.buyCalls != 0 {
		t.Error("unknown method must not reach the network")
	}
}

func TestPurchaseOrchestrator_FailedSubmitKeepsBuilder(t *testing.T) {
	fake := &fakePurchaseAPI{buyErr: upstream.ErrTimeout}
	o := NewPurchaseOrchestrator(fake, nil)
	b := readyBuilder()
	b.AddPassenger()
	b.SetPassenger(1, validPassenger())

	if _, err := o.Submit(context.Background(), b, PayCash, pln(100)); !errors.Is(err, upstream.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if b.PassengerCount() != 2 {
		t.Errorf("builder passengers after failure = %d, want 2", b.PassengerCount())
	}

	// Retry with the same builder succeeds.
	fake.buyErr = nil
	fake.ids = []string{"t1", "t2"}
	if _, err := o.Submit(context.Background(), b, PayCash, pln(100)); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestPurchaseOrchestrator_SchedulesArrivals(t *testing.T) {
	arrivals := []model.TicketArrival{{CityName: "Kraków", ArrivalTime: "2025-06-10T15:00"}}
	fake := &fakePurchaseAPI{ids: []string{"t1"}, arrivals: arrivals}
	sched := &recordingScheduler{}
	o := NewPurchaseOrchestrator(fake, sched)

	if _, err := o.Submit(context.Background(), readyBuilder(), PayCash, pln(50)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sched.scheduled) != 1 || len(sched.scheduled[0]) != 1 {
		t.Errorf("scheduled = %v, want the one arrival", sched.scheduled)
	}
}

func TestPurchaseOrchestrator_SchedulingFailureDoesNotFailPurchase(t *testing.T) {
	fake := &fakePurchaseAPI{ids: []string{"t1"}, arrivalsErr: upstream.ErrTimeout}
	o := NewPurchaseOrchestrator(fake, &recordingScheduler{err: errors.New("push service down")})

	if _, err := o.Submit(context.Background(), readyBuilder(), PayCash, pln(50)); err != nil {
		t.Errorf("purchase failed on notification problem: %v", err)
	}
}
