package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/trackeasy/railtick/internal/model"
)

// ParseMode tags how a connections page was recovered from the wire.
// The upstream contract drifts, so a page is first held to the strict
// schema and, failing that, to a lenient one that substitutes defaults.
type ParseMode int

const (
	// ParseStrict: the payload matched the full schema.
	ParseStrict ParseMode = iota
	// ParseLenient: required fields were missing or malformed and were
	// replaced with empty defaults (items=[], hasNextPage=false).
	ParseLenient
	// ParseInvalid: both schemas failed; no page was recovered.
	ParseInvalid
)

// ConnectionsPage is one page of itinerary search results. NextCursor is
// a departure-time value, not an opaque token; the next page request
// substitutes it for departureTime.
type ConnectionsPage struct {
	Items       []model.Itinerary `json:"items"`
	NextCursor  *string           `json:"nextCursor"`
	HasNextPage bool              `json:"hasNextPage"`
	Mode        ParseMode         `json:"-"`
}

// Connections fetches one search page. The cursor argument is either the
// query's departure time (first page) or the previous page's NextCursor.
// The call is bounded by the search-page timeout.
func (c *Client) Connections(ctx context.Context, startStationID, endStationID, cursor string) (*ConnectionsPage, error) {
	q := url.Values{}
	q.Set("startStationId", startStationID)
	q.Set("endStationId", endStationID)
	q.Set("departureTime", cursor)

	body, err := c.do(ctx, "GET", "/connections", q, nil, c.searchTimeout)
	if err != nil {
		return nil, err
	}
	return decodeConnectionsPage(body)
}

// strict envelope: pointers distinguish absent from zero.
type connectionsStrict struct {
	Items       *[]model.Itinerary `json:"items"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage *bool              `json:"hasNextPage"`
}

// lenient envelope: items decode one by one so a single malformed entry
// does not sink the page.
type connectionsLenient struct {
	Items       []json.RawMessage `json:"items"`
	NextCursor  *string           `json:"nextCursor"`
	HasNextPage bool              `json:"hasNextPage"`
}

// decodeConnectionsPage applies the two-stage parse-or-degrade strategy.
func decodeConnectionsPage(body []byte) (*ConnectionsPage, error) {
	var strict connectionsStrict
	if err := json.Unmarshal(body, &strict); err == nil &&
		strict.Items != nil && strict.HasNextPage != nil {
		return &ConnectionsPage{
			Items:       *strict.Items,
			NextCursor:  strict.NextCursor,
			HasNextPage: *strict.HasNextPage,
			Mode:        ParseStrict,
		}, nil
	}

	var lenient connectionsLenient
	if err := json.Unmarshal(body, &lenient); err != nil {
		return nil, fmt.Errorf("connections page: %w", ErrInvalidResponseShape)
	}

	page := &ConnectionsPage{
		Items:       []model.Itinerary{},
		NextCursor:  lenient.NextCursor,
		HasNextPage: lenient.HasNextPage,
		Mode:        ParseLenient,
	}
	for _, raw := range lenient.Items {
		var item model.Itinerary
		if err := json.Unmarshal(raw, &item); err == nil {
			page.Items = append(page.Items, item)
		}
	}
	return page, nil
}
