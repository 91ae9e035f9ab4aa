package service

import (
	"fmt"
	"regexp"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/pkg/dates"
)

var (
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// OrderBuilder accumulates the working state of one purchase flow: the
// passenger list, the chosen connections, and an optionally applied
// discount code. It is client-local and ephemeral: it exists only for
// the duration of the flow and is discarded after submission.
type OrderBuilder struct {
	email       string
	passengers  []model.Passenger
	connections []model.ConnectionRef
	discount    *model.DiscountCode
	dateOrder   dates.Order
}

// NewOrderBuilder starts an order for the selected legs with a single
// blank passenger. dateOrder is the locale hint for slash-formatted
// dates entered by the passenger.
func NewOrderBuilder(email string, connections []model.ConnectionRef, dateOrder dates.Order) *OrderBuilder {
	return &OrderBuilder{
		email:       email,
		passengers:  []model.Passenger{{}},
		connections: connections,
		dateOrder:   dateOrder,
	}
}

// SetEmail replaces the contact email.
func (b *OrderBuilder) SetEmail(email string) { b.email = email }

// AddPassenger appends a blank passenger.
func (b *OrderBuilder) AddPassenger() {
	b.passengers = append(b.passengers, model.Passenger{})
}

// SetPassenger replaces the passenger at index; out-of-range indices
// are ignored.
func (b *OrderBuilder) SetPassenger(index int, p model.Passenger) {
	if index < 0 || index >= len(b.passengers) {
		return
	}
	b.passengers[index] = p
}

// SetPassengers replaces the whole passenger list. An empty list is
// ignored: an order can never drop below one passenger.
func (b *OrderBuilder) SetPassengers(passengers []model.Passenger) {
	if len(passengers) == 0 {
		return
	}
	b.passengers = append([]model.Passenger(nil), passengers...)
}

// RemovePassenger drops the passenger at index. It is a no-op when only
// one passenger remains or the index is out of range.
func (b *OrderBuilder) RemovePassenger(index int) {
	if len(b.passengers) <= 1 || index < 0 || index >= len(b.passengers) {
		return
	}
	b.passengers = append(b.passengers[:index], b.passengers[index+1:]...)
}

// PassengerCount returns the current passenger count.
func (b *OrderBuilder) PassengerCount() int { return len(b.passengers) }

// ApplyDiscount attaches a validated discount code to the order.
func (b *OrderBuilder) ApplyDiscount(dc model.DiscountCode) { b.discount = &dc }

// ClearDiscount removes any applied discount code.
func (b *OrderBuilder) ClearDiscount() { b.discount = nil }

// Discount returns the applied discount code, or nil.
func (b *OrderBuilder) Discount() *model.DiscountCode { return b.discount }

// Build validates and normalizes the working state into a purchase
// command. Every passenger date of birth and every connection date is
// coerced to YYYY-MM-DD; field failures come back as a ValidationError
// and leave the builder untouched for correction.
func (b *OrderBuilder) Build() (model.PurchaseOrder, error) {
	order := model.PurchaseOrder{
		Email:       b.email,
		Passengers:  make([]model.Passenger, len(b.passengers)),
		Connections: make([]model.ConnectionRef, len(b.connections)),
	}
	if b.discount != nil {
		id := b.discount.ID
		order.DiscountCodeID = &id
	}

	verr := &ValidationError{}

	if !emailRe.MatchString(b.email) {
		verr.add("email", "valid email is required")
	}

	for i, p := range b.passengers {
		normalized := p
		normalized.DateOfBirth = dates.Normalize(p.DateOfBirth, b.dateOrder)
		order.Passengers[i] = normalized

		prefix := field("passengers", i)
		if p.FirstName == "" {
			verr.add(prefix+".firstName", "first name is required")
		}
		if p.LastName == "" {
			verr.add(prefix+".lastName", "last name is required")
		}
		if !isoDateRe.MatchString(normalized.DateOfBirth) {
			verr.add(prefix+".dateOfBirth", "date must be in YYYY-MM-DD format")
		}
	}

	if len(b.connections) == 0 {
		verr.add("connections", "at least one connection is required")
	}
	for i, c := range b.connections {
		normalized := c
		normalized.ConnectionDate = dates.Normalize(c.ConnectionDate, b.dateOrder)
		order.Connections[i] = normalized

		prefix := field("connections", i)
		if c.ID == "" {
			verr.add(prefix+".id", "connection id is required")
		}
		if c.StartStationID == "" || c.EndStationID == "" {
			verr.add(prefix, "station ids are required")
		}
		if !isoDateRe.MatchString(normalized.ConnectionDate) {
			verr.add(prefix+".connectionDate", "date must be in YYYY-MM-DD format")
		}
	}

	if err := verr.orNil(); err != nil {
		return model.PurchaseOrder{}, err
	}
	return order, nil
}

func field(name string, index int) string {
	return fmt.Sprintf("%s[%d]", name, index)
}
