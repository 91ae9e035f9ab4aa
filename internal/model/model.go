// Package model contains the domain types of the rail ticketing pipeline.
// Field sets mirror the upstream API contracts; times and dates stay as
// strings on these structs because the upstream mixes encodings, and
// the dates package owns all coercion.
package model

// ─── Ticket status state machine ────────────────────────────
//
//	UNPAID → PAID → REFUND_REQUESTED
//	UNPAID → CANCELLED
//	PAID   → CANCELLED
//
// CANCELLED and REFUND_REQUESTED are terminal; both transitions are
// irreversible and only ever requested, never applied locally.

type TicketStatus string

const (
	StatusUnpaid          TicketStatus = "UNPAID"
	StatusPaid            TicketStatus = "PAID"
	StatusCancelled       TicketStatus = "CANCELLED"
	StatusRefundRequested TicketStatus = "REFUND_REQUESTED"
)

// ─── Reference data ─────────────────────────────────────────

// Station is immutable reference data, fetched once per session.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NearestStation is the geospatial lookup result; it additionally names
// the city the station sits in.
type NearestStation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Discount is a passenger-category reduction (e.g. student), selected
// per passenger by id.
type Discount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiscountCode is a promotional code applied once per order. It is
// resolved by its human-entered code string and attached to the order
// by id.
type DiscountCode struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
	ValidFrom  string  `json:"from"`
	ValidTo    string  `json:"to"`
}

// ─── Search results ─────────────────────────────────────────

// Leg is a single train segment within an itinerary.
type Leg struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	OperatorName       string `json:"operatorName"`
	OperatorCode       string `json:"operatorCode"`
	DepartureTime      string `json:"departureTime"`
	ArrivalTime        string `json:"arrivalTime"`
	DepartureStationID string `json:"departureStationId"`
	DepartureStation   string `json:"departureStation"`
	ArrivalStationID   string `json:"arrivalStationId"`
	ArrivalStation     string `json:"arrivalStation"`
	Price              Money  `json:"price"`
	Duration           string `json:"duration"`
}

// Itinerary is one search result, possibly composed of several legs
// with transfers. Legs may be absent on degraded payloads; a nil slice
// renders as "no connection details available" rather than failing.
type Itinerary struct {
	Legs           []Leg  `json:"connections"`
	TransfersCount int    `json:"transfersCount"`
	StartStation   string `json:"startStation"`
	EndStation     string `json:"endStation"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	TotalDuration  string `json:"totalDuration"`
}

// ─── Purchase command ───────────────────────────────────────

// Passenger is one traveller on an order. DiscountID references a
// Discount; nil means no category discount.
type Passenger struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DateOfBirth string  `json:"dateOfBirth"`
	DiscountID  *string `json:"discountId"`
}

// ConnectionRef binds a chosen leg to the station pair and travel date
// it was searched for.
type ConnectionRef struct {
	ID             string `json:"id"`
	StartStationID string `json:"startStationId"`
	EndStationID   string `json:"endStationId"`
	ConnectionDate string `json:"connectionDate"`
}

// PurchaseOrder is the normalized purchase command sent to pricing and
// ticket creation. It always carries at least one passenger and one
// connection; every date is canonical YYYY-MM-DD.
type PurchaseOrder struct {
	Email          string          `json:"email"`
	Passengers     []Passenger     `json:"passengers"`
	DiscountCodeID *string         `json:"discountCodeId"`
	Connections    []ConnectionRef `json:"connections"`
}

// ─── Tickets ────────────────────────────────────────────────

// TicketSummary is one row of the paginated ticket list.
type TicketSummary struct {
	ID             string `json:"id"`
	StartStation   string `json:"startStation"`
	EndStation     string `json:"endStation"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	ConnectionDate string `json:"connectionDate"`
}

// TicketPage is a page of the ticket list. PageNumber is 0-based here;
// the lifecycle manager translates from the 1-based wire form.
type TicketPage struct {
	Items      []TicketSummary `json:"items"`
	PageNumber int             `json:"pageNumber"`
	PageSize   int             `json:"pageSize"`
	TotalCount int             `json:"totalCount"`
	TotalPages int             `json:"totalPages"`
}

// TicketPerson is a passenger as echoed back on a ticket; the discount
// comes back resolved to its display name.
type TicketPerson struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DateOfBirth string  `json:"dateOfBirth"`
	Discount    *string `json:"discount"`
}

// StationStop is one sequenced stop on a ticket's route. Arrival and
// departure are nil at the route endpoints.
type StationStop struct {
	Name           string  `json:"name"`
	ArrivalTime    *string `json:"arrivalTime"`
	DepartureTime  *string `json:"departureTime"`
	SequenceNumber int     `json:"sequenceNumber"`
}

// TicketDetails is the full server-owned view of a ticket.
type TicketDetails struct {
	ID             string        `json:"id"`
	TicketNumber   int           `json:"ticketNumber"`
	People         []TicketPerson `json:"people"`
	SeatNumbers    []int         `json:"seatNumbers"`
	ConnectionDate string        `json:"connectionDate"`
	Stations       []StationStop `json:"stations"`
	OperatorCode   string        `json:"operatorCode"`
	OperatorName   string        `json:"operatorName"`
	TrainName      string        `json:"trainName"`
	QRCodeID       *string       `json:"qrCodeId"`
	Status         TicketStatus  `json:"status"`
	DepartureTime  string        `json:"departureTime"`
	ArrivalTime    string        `json:"arrivalTime"`
}

// RefundRequest asks the server to move a PAID ticket into
// REFUND_REQUESTED.
type RefundRequest struct {
	UserID   string `json:"userId"`
	TicketID string `json:"ticketId"`
	Reason   string `json:"reason"`
	Email    string `json:"email"`
}

// ─── Route cities ───────────────────────────────────────────

// TicketCity is one city on a ticket's route. Locked cities have not
// been reached yet.
type TicketCity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SequenceNumber int    `json:"sequenceNumber"`
	IsLocked       bool   `json:"isLocked"`
}

// Country is the country a city belongs to.
type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CityDetails carries the fun-fact content shown per city.
type CityDetails struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Country  Country  `json:"country"`
	FunFacts []string `json:"funFacts"`
}

// TicketArrival is a city arrival time used for arrival notifications.
type TicketArrival struct {
	CityName    string `json:"cityName"`
	ArrivalTime string `json:"arrivalTime"`
}
