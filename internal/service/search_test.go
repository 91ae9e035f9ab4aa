package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/upstream"
)

// fakeConnectionAPI serves canned pages keyed by cursor and records
// every cursor it was asked for.
type fakeConnectionAPI struct {
	pages   map[string]*upstream.ConnectionsPage
	cursors []string
	err     error
}

func (f *fakeConnectionAPI) Connections(ctx context.Context, start, end, cursor string) (*upstream.ConnectionsPage, error) {
	f.cursors = append(f.cursors, cursor)
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[cursor]
	if !ok {
		return nil, upstream.ErrNotFound
	}
	return page, nil
}

// connFunc adapts a function to the connectionAPI interface.
type connFunc func(ctx context.Context, start, end, cursor string) (*upstream.ConnectionsPage, error)

func (f connFunc) Connections(ctx context.Context, start, end, cursor string) (*upstream.ConnectionsPage, error) {
	return f(ctx, start, end, cursor)
}

func strPtr(s string) *string { return &s }

func itinerary(name string) model.Itinerary {
	return model.Itinerary{StartStation: "StationA", EndStation: "StationB", TotalDuration: name}
}

func twoPageFake() *fakeConnectionAPI {
	return &fakeConnectionAPI{pages: map[string]*upstream.ConnectionsPage{
		"2025-06-10T12:30": {
			Items:       []model.Itinerary{itinerary("p1-a"), itinerary("p1-b")},
			NextCursor:  strPtr("2025-06-10T15:00"),
			HasNextPage: true,
		},
		"2025-06-10T15:00": {
			Items:       []model.Itinerary{itinerary("p2-a")},
			NextCursor:  nil,
			HasNextPage: false,
		},
	}}
}

func TestSearchEngine_PaginationScenario(t *testing.T) {
	// First page keyed on the query's departure time reports another
	// page; load-more fetches exactly the returned cursor.
	fake := twoPageFake()
	eng := NewSearchEngine(fake)

	page, err := eng.Search(context.Background(), SearchQuery{
		StartStationID: "stA", EndStationID: "stB", DepartureTime: "2025-06-10T12:30",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !page.HasNextPage {
		t.Fatal("first page should report a next page")
	}

	if _, err := eng.LoadMore(context.Background()); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if eng.HasNextPage() {
		t.Error("engine should stop exactly when hasNextPage=false")
	}
	if _, err := eng.LoadMore(context.Background()); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("load more past the end = %v, want ErrNoMorePages", err)
	}

	wantCursors := []string{"2025-06-10T12:30", "2025-06-10T15:00"}
	if len(fake.cursors) != len(wantCursors) {
		t.Fatalf("cursors fetched = %v, want %v", fake.cursors, wantCursors)
	}
	for i, c := range wantCursors {
		if fake.cursors[i] != c {
			t.Errorf("cursor[%d] = %q, want %q", i, fake.cursors[i], c)
		}
	}

	if got := eng.Results(); len(got) != 3 {
		t.Errorf("accumulated results = %d, want 3", len(got))
	}
}

func TestSearchEngine_NeverRefetchesSeenCursor(t *testing.T) {
	fake := twoPageFake()
	eng := NewSearchEngine(fake)

	if _, err := eng.Search(context.Background(), SearchQuery{"stA", "stB", "2025-06-10T12:30"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := eng.LoadMore(context.Background()); err != nil {
		t.Fatalf("load more: %v", err)
	}

	seen := map[string]int{}
	for _, c := range fake.cursors {
		seen[c]++
		if seen[c] > 1 {
			t.Errorf("cursor %q fetched more than once", c)
		}
	}
}

func TestSearchEngine_SameKeyResetsPagination(t *testing.T) {
	fake := twoPageFake()
	eng := NewSearchEngine(fake)
	q := SearchQuery{"stA", "stB", "2025-06-10T12:30"}

	if _, err := eng.Search(context.Background(), q); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := eng.LoadMore(context.Background()); err != nil {
		t.Fatalf("load more: %v", err)
	}

	// Re-issuing the key starts over from page one.
	if _, err := eng.Search(context.Background(), q); err != nil {
		t.Fatalf("re-search: %v", err)
	}
	if got := eng.Results(); len(got) != 2 {
		t.Errorf("results after reset = %d, want first page only (2)", len(got))
	}
	if !eng.HasNextPage() {
		t.Error("reset search should report the next page again")
	}
}

func TestSearchEngine_SupersededPageDiscarded(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	firstInFlight := make(chan struct{})
	release := make(chan struct{})

	api := connFunc(func(ctx context.Context, start, end, cursor string) (*upstream.ConnectionsPage, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstInFlight)
			<-release
		}
		return &upstream.ConnectionsPage{Items: []model.Itinerary{itinerary(start)}}, nil
	})
	eng := NewSearchEngine(api)

	firstDone := make(chan error, 1)
	go func() {
		_, err := eng.Search(context.Background(), SearchQuery{"stA", "stB", "2025-06-10T12:30"})
		firstDone <- err
	}()
	<-firstInFlight

	// A new query key takes over while the first page is still in flight.
	if _, err := eng.Search(context.Background(), SearchQuery{"stC", "stD", "2025-06-10T12:30"}); err != nil {
		t.Fatalf("second search: %v", err)
	}
	close(release)

	if err := <-firstDone; !errors.Is(err, ErrSearchSuperseded) {
		t.Errorf("stale page error = %v, want ErrSearchSuperseded", err)
	}

	// Only the winning query's results survive.
	results := eng.Results()
	if len(results) != 1 || results[0].TotalDuration != "stC" {
		t.Errorf("results = %+v, want the second query's page only", results)
	}
}

func TestSearchEngine_TimeoutSurfacedAndRetryable(t *testing.T) {
	fake := twoPageFake()
	fake.err = upstream.ErrTimeout
	eng := NewSearchEngine(fake)
	q := SearchQuery{"stA", "stB", "2025-06-10T12:30"}

	if _, err := eng.Search(context.Background(), q); !errors.Is(err, upstream.ErrTimeout) {
		t.Fatalf("search error = %v, want ErrTimeout", err)
	}

	// A manual re-search fetches the same cursor again.
	fake.err = nil
	if _, err := eng.Search(context.Background(), q); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(fake.cursors) != 2 || fake.cursors[0] != fake.cursors[1] {
		t.Errorf("retry cursors = %v, want the same cursor twice", fake.cursors)
	}
}

func TestSearchEngine_ValidatesQuery(t *testing.T) {
	eng := NewSearchEngine(twoPageFake())
	_, err := eng.Search(context.Background(), SearchQuery{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("field errors = %d, want 3", len(verr.Fields))
	}
}
