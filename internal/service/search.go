package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/upstream"
)

// ─── SearchEngine ───────────────────────────────────────────

// SearchQuery is the key of one itinerary search. Re-issuing the same
// key resets pagination; changing it invalidates in-flight pages.
type SearchQuery struct {
	StartStationID string `json:"startStationId"`
	EndStationID   string `json:"endStationId"`
	DepartureTime  string `json:"departureTime"`
}

// connectionAPI is the slice of the upstream client the engine needs.
type connectionAPI interface {
	Connections(ctx context.Context, startStationID, endStationID, cursor string) (*upstream.ConnectionsPage, error)
}

// SearchEngine drives cursor-paginated itinerary search.
//
// The cursor is itself a departure-time value: page 1 uses the query's
// departure time, and each subsequent request substitutes the previous
// page's nextCursor while holding the station ids fixed.
//
// Ordering guarantees:
//   - pages within one query key are fetched strictly sequentially; a
//     second request while one is pending returns ErrPageInFlight
//   - switching the query key bumps a generation counter, so a page that
//     resolves for a stale key is discarded (ErrSearchSuperseded)
//   - the cursor only advances on success, so a timed-out page can be
//     retried manually without skipping results
type SearchEngine struct {
	api connectionAPI

	mu      sync.Mutex
	query   SearchQuery
	gen     uint64
	cursor  string
	hasNext bool
	started bool
	pending bool
	results []model.Itinerary
}

// NewSearchEngine creates an engine with no active query.
func NewSearchEngine(api connectionAPI) *SearchEngine {
	return &SearchEngine{api: api}
}

// Search starts a new search, discarding any previous query and its
// in-flight pages, and fetches the first page.
func (e *SearchEngine) Search(ctx context.Context, q SearchQuery) (*upstream.ConnectionsPage, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.query = q
	e.cursor = q.DepartureTime
	e.hasNext = false
	e.started = true
	e.pending = true
	e.results = nil
	e.mu.Unlock()

	log.Printf("[search] new query %s → %s at %s", q.StartStationID, q.EndStationID, q.DepartureTime)
	return e.fetch(ctx, gen, q, q.DepartureTime)
}

// LoadMore fetches the next page of the active search.
func (e *SearchEngine) LoadMore(ctx context.Context) (*upstream.ConnectionsPage, error) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil, ErrNoMorePages
	}
	if e.pending {
		e.mu.Unlock()
		return nil, ErrPageInFlight
	}
	if !e.hasNext {
		e.mu.Unlock()
		return nil, ErrNoMorePages
	}
	gen := e.gen
	q := e.query
	cursor := e.cursor
	e.pending = true
	e.mu.Unlock()

	return e.fetch(ctx, gen, q, cursor)
}

// fetch performs one page round trip and folds the result in, unless
// the query key changed while the page was in flight.
func (e *SearchEngine) fetch(ctx context.Context, gen uint64, q SearchQuery, cursor string) (*upstream.ConnectionsPage, error) {
	page, err := e.api.Connections(ctx, q.StartStationID, q.EndStationID, cursor)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen {
		// A newer query replaced this one; the result is discarded.
		log.Printf("[search] discarding stale page for %s → %s", q.StartStationID, q.EndStationID)
		return nil, ErrSearchSuperseded
	}
	e.pending = false

	if err != nil {
		if errors.Is(err, upstream.ErrTimeout) {
			log.Printf("[search] page timed out for %s → %s (cursor %s)", q.StartStationID, q.EndStationID, cursor)
		}
		// Cursor not advanced: a manual retry refetches the same page.
		return nil, err
	}

	e.results = append(e.results, page.Items...)
	e.hasNext = page.HasNextPage && page.NextCursor != nil
	if e.hasNext {
		e.cursor = *page.NextCursor
	}

	if page.Mode == upstream.ParseLenient {
		log.Printf("[search] lenient parse for %s → %s: degraded page accepted", q.StartStationID, q.EndStationID)
	}
	return page, nil
}

// Results returns the itineraries accumulated so far, in page order.
func (e *SearchEngine) Results() []model.Itinerary {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Itinerary, len(e.results))
	copy(out, e.results)
	return out
}

// HasNextPage reports whether another page can be requested.
func (e *SearchEngine) HasNextPage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasNext
}

func validateQuery(q SearchQuery) error {
	verr := &ValidationError{}
	if q.StartStationID == "" {
		verr.add("startStationId", "start station is required")
	}
	if q.EndStationID == "" {
		verr.add("endStationId", "end station is required")
	}
	if q.DepartureTime == "" {
		verr.add("departureTime", "departure time is required")
	}
	return verr.orNil()
}
