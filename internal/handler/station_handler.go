package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/trackeasy/railtick/internal/service"
)

// StationHandler handles station reference data HTTP requests.
type StationHandler struct {
	catalog *service.StationCatalog
}

// NewStationHandler creates a new handler wired to the station catalog.
func NewStationHandler(catalog *service.StationCatalog) *StationHandler {
	return &StationHandler{catalog: catalog}
}

// ListStations handles GET /api/v1/stations
//
// Returns the full station reference list. The list is immutable for the
// life of a session and served from cache after the first fetch.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.catalog.ListStations(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// NearestStation handles GET /api/v1/stations/nearest?lat={lat}&lon={lon}
//
// Resolves the station closest to the given coordinates. Without
// coordinates the configured location provider is consulted; when none
// is available the affordance is reported unavailable rather than
// guessed.
//
// Response codes:
//
//	200 — Nearest station found
//	400 — Malformed coordinates
//	503 — No location fix available
func (h *StationHandler) NearestStation(w http.ResponseWriter, r *http.Request) {
	latStr, lonStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lon")

	if latStr == "" && lonStr == "" {
		station, err := h.catalog.NearestStation(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrLocationUnavailable) {
				writeError(w, http.StatusServiceUnavailable, "location_unavailable",
					"No location fix is available. Pass lat and lon explicitly.")
				return
			}
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, station)
		return
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lon must be decimal degrees.")
		return
	}

	station, err := h.catalog.NearestStationAt(r.Context(), lat, lon)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}
