package handler

import (
	"errors"
	"net/http"

	"github.com/trackeasy/railtick/internal/service"
)

// SearchHandler handles itinerary search HTTP requests. It fronts a
// single search engine: one active query at a time, paginated
// sequentially, exactly as the booking flow consumes it.
type SearchHandler struct {
	engine *service.SearchEngine
}

// NewSearchHandler creates a new handler wired to the search engine.
func NewSearchHandler(engine *service.SearchEngine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/v1/connections/search
//
// Starts a new search and returns the first page. Any previous query and
// its in-flight pages are discarded.
//
// Response codes:
//
//	200 — First page of itineraries
//	422 — Missing station ids or departure time
//	504 — The operator did not answer in time; the same search can be retried
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var query service.SearchQuery
	if !decodeBody(w, r, &query) {
		return
	}

	page, err := h.engine.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrSearchSuperseded) {
			writeError(w, http.StatusConflict, "superseded", "A newer search replaced this one.")
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// LoadMore handles POST /api/v1/connections/more
//
// Fetches the next page of the active search.
//
// Response codes:
//
//	200 — Next page of itineraries
//	404 — The last page already reported no further results
//	409 — A page is already in flight, or a newer search took over
func (h *SearchHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	page, err := h.engine.LoadMore(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoMorePages):
			writeError(w, http.StatusNotFound, "no_more_pages", "There are no further pages for this search.")
		case errors.Is(err, service.ErrPageInFlight):
			writeError(w, http.StatusConflict, "page_in_flight", "A page for this search is already being fetched.")
		case errors.Is(err, service.ErrSearchSuperseded):
			writeError(w, http.StatusConflict, "superseded", "A newer search replaced this one.")
		default:
			respondServiceError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Results handles GET /api/v1/connections
//
// Returns all itineraries accumulated by the active search, in page
// order, with the pagination flag.
func (h *SearchHandler) Results(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       h.engine.Results(),
		"hasNextPage": h.engine.HasNextPage(),
	})
}
