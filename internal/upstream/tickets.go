package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/trackeasy/railtick/internal/model"
)

// CardPayment is the wire form of a card payment. Currency is the
// numeric enum; unlike pricing, the payment endpoint accepts only the
// numeric encoding.
type CardPayment struct {
	TicketIDs    []string `json:"ticketIds"`
	Currency     int      `json:"currency"`
	CardNumber   string   `json:"cardNumber"`
	CardExpMonth int      `json:"cardExpMonth"`
	CardExpYear  int      `json:"cardExpYear"`
	CardCvc      string   `json:"cardCvc"`
}

// Price submits a purchase order to the pricing endpoint. Shape drift
// in the response (flat/nested, numeric/string fields) is absorbed by
// the Money codec.
func (c *Client) Price(ctx context.Context, order model.PurchaseOrder) (model.Money, error) {
	var price model.Money
	if err := c.postJSON(ctx, "/tickets/price", order, &price); err != nil {
		return model.Money{}, err
	}
	return price, nil
}

// Buy submits a purchase order and returns the created ticket ids.
// Each id must be a UUID; anything else is an invalid response.
func (c *Client) Buy(ctx context.Context, order model.PurchaseOrder) ([]string, error) {
	var ids []string
	if err := c.postJSON(ctx, "/tickets", order, &ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("ticket id %q: %w", id, ErrInvalidResponseShape)
		}
	}
	return ids, nil
}

// PayCard submits a card payment for previously created tickets.
func (c *Client) PayCard(ctx context.Context, payment CardPayment) error {
	return c.postJSON(ctx, "/tickets/payment/card", payment, nil)
}

// ListTickets fetches one page of a user's tickets. scopeType and
// pageNumber are in wire form (0=current/1=archive, pages 1-based); the
// lifecycle manager owns the translation.
func (c *Client) ListTickets(ctx context.Context, userID string, scopeType, pageNumber, pageSize int) (*model.TicketPage, error) {
	q := url.Values{}
	q.Set("type", strconv.Itoa(scopeType))
	q.Set("pageNumber", strconv.Itoa(pageNumber))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var page model.TicketPage
	if err := c.getJSON(ctx, "/tickets/"+url.PathEscape(userID), q, c.requestTimeout, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TicketDetails fetches the full server-owned view of a ticket.
func (c *Client) TicketDetails(ctx context.Context, ticketID string) (*model.TicketDetails, error) {
	var details model.TicketDetails
	if err := c.getJSON(ctx, "/tickets/"+url.PathEscape(ticketID)+"/details", nil, c.requestTimeout, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// QRCode fetches the raw PNG bytes for a ticket's QR code.
func (c *Client) QRCode(ctx context.Context, qrCodeID string) ([]byte, error) {
	return c.do(ctx, "GET", "/tickets/qr-code/"+url.PathEscape(qrCodeID), nil, nil, c.requestTimeout)
}

// CancelTicket asks the server to cancel a ticket. The caller is
// responsible for the state-machine gates; the server re-validates.
func (c *Client) CancelTicket(ctx context.Context, ticketID string) error {
	return c.postJSON(ctx, "/tickets/"+url.PathEscape(ticketID)+"/cancel", struct{}{}, nil)
}

// RequestRefund asks the server to move a ticket to REFUND_REQUESTED.
func (c *Client) RequestRefund(ctx context.Context, req model.RefundRequest) error {
	return c.postJSON(ctx, "/tickets/refund-request", req, nil)
}

// CurrentTicket returns the id of the user's ticket in progress, or nil
// when there is none.
func (c *Client) CurrentTicket(ctx context.Context) (*string, error) {
	var id *string
	if err := c.getJSON(ctx, "/tickets/current", nil, c.requestTimeout, &id); err != nil {
		return nil, err
	}
	if id != nil {
		if _, err := uuid.Parse(*id); err != nil {
			return nil, fmt.Errorf("current ticket id %q: %w", *id, ErrInvalidResponseShape)
		}
	}
	return id, nil
}

// TicketCities returns the sequenced cities on a ticket's route.
func (c *Client) TicketCities(ctx context.Context, ticketID string) ([]model.TicketCity, error) {
	var cities []model.TicketCity
	if err := c.getJSON(ctx, "/tickets/"+url.PathEscape(ticketID)+"/cities", nil, c.requestTimeout, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// TicketArrivals returns per-city arrival times for a ticket, used to
// schedule arrival notifications.
func (c *Client) TicketArrivals(ctx context.Context, ticketID string) ([]model.TicketArrival, error) {
	var arrivals []model.TicketArrival
	if err := c.getJSON(ctx, "/tickets/"+url.PathEscape(ticketID)+"/arrivals", nil, c.requestTimeout, &arrivals); err != nil {
		return nil, err
	}
	return arrivals, nil
}

// cityDetailsWire tolerates country.id arriving as a number.
type cityDetailsWire struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Country struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	} `json:"country"`
	FunFacts []string `json:"funFacts"`
}

// CityDetails fetches the fun-fact content for a city. Some upstream
// deployments send country.id as a number; it is coerced to a string.
func (c *Client) CityDetails(ctx context.Context, cityID string) (*model.CityDetails, error) {
	var wire cityDetailsWire
	if err := c.getJSON(ctx, "/cities/"+url.PathEscape(cityID), nil, c.requestTimeout, &wire); err != nil {
		return nil, err
	}

	countryID := ""
	if len(wire.Country.ID) > 0 {
		var s string
		if err := json.Unmarshal(wire.Country.ID, &s); err == nil {
			countryID = s
		} else {
			var n json.Number
			if err := json.Unmarshal(wire.Country.ID, &n); err != nil {
				return nil, fmt.Errorf("city country id: %w", ErrInvalidResponseShape)
			}
			countryID = n.String()
		}
	}

	return &model.CityDetails{
		ID:   wire.ID,
		Name: wire.Name,
		Country: model.Country{
			ID:   countryID,
			Name: wire.Country.Name,
		},
		FunFacts: wire.FunFacts,
	}, nil
}
