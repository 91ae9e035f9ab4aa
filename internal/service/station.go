package service

import (
	"context"
	"fmt"
	"log"

	"github.com/trackeasy/railtick/internal/model"
)

// stationAPI is the slice of the upstream client the catalog needs.
type stationAPI interface {
	Stations(ctx context.Context) ([]model.Station, error)
	NearestStation(ctx context.Context, lat, lon float64) (*model.NearestStation, error)
}

// StationCatalog serves the immutable station reference list and the
// nearest-station lookup. The list is cached by the upstream layer for
// the session TTL; the catalog itself holds no state.
type StationCatalog struct {
	api      stationAPI
	location LocationProvider
}

// NewStationCatalog creates a catalog. location may be nil when callers
// always pass explicit coordinates.
func NewStationCatalog(api stationAPI, location LocationProvider) *StationCatalog {
	return &StationCatalog{api: api, location: location}
}

// ListStations returns all stations.
func (c *StationCatalog) ListStations(ctx context.Context) ([]model.Station, error) {
	return c.api.Stations(ctx)
}

// NearestStationAt resolves the station closest to explicit coordinates.
func (c *StationCatalog) NearestStationAt(ctx context.Context, lat, lon float64) (*model.NearestStation, error) {
	return c.api.NearestStation(ctx, lat, lon)
}

// NearestStation resolves the station closest to the device. A denied
// permission or missing fix surfaces as ErrLocationUnavailable; callers
// disable the affordance rather than retry.
func (c *StationCatalog) NearestStation(ctx context.Context) (*model.NearestStation, error) {
	if c.location == nil {
		return nil, ErrLocationUnavailable
	}
	lat, lon, err := c.location.CurrentCoordinates(ctx)
	if err != nil {
		log.Printf("[stations] location fix failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	return c.api.NearestStation(ctx, lat, lon)
}
