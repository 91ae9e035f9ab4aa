package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/trackeasy/railtick/internal/model"
)

// Cache keys for the read-only reference lists. The nearest-station key
// buckets coordinates into ~1 km cells so nearby lookups share entries.
const (
	stationsCacheKey  = "ref:stations"
	discountsCacheKey = "ref:discounts"
)

func nearestCacheKey(lat, lon float64) string {
	return fmt.Sprintf("ref:nearest:%.2f:%.2f", lat, lon)
}

// Stations returns the full station list, cached for the reference TTL.
func (c *Client) Stations(ctx context.Context) ([]model.Station, error) {
	return cachedJSON(ctx, c, stationsCacheKey, func() ([]model.Station, error) {
		var stations []model.Station
		if err := c.getJSON(ctx, "/system-lists/stations", nil, c.requestTimeout, &stations); err != nil {
			return nil, err
		}
		return stations, nil
	})
}

// NearestStation resolves the station closest to a coordinate pair.
func (c *Client) NearestStation(ctx context.Context, lat, lon float64) (*model.NearestStation, error) {
	station, err := cachedJSON(ctx, c, nearestCacheKey(lat, lon), func() (*model.NearestStation, error) {
		q := url.Values{}
		q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))

		var ns model.NearestStation
		if err := c.getJSON(ctx, "/stations/nearest", q, c.requestTimeout, &ns); err != nil {
			return nil, err
		}
		return &ns, nil
	})
	if err != nil {
		return nil, err
	}
	return station, nil
}

// Discounts returns the passenger-category discount list, cached for
// the reference TTL.
func (c *Client) Discounts(ctx context.Context) ([]model.Discount, error) {
	return cachedJSON(ctx, c, discountsCacheKey, func() ([]model.Discount, error) {
		var discounts []model.Discount
		if err := c.getJSON(ctx, "/system-lists/discounts", nil, c.requestTimeout, &discounts); err != nil {
			return nil, err
		}
		return discounts, nil
	})
}

// DiscountCode resolves a human-entered promotional code. Unknown codes
// surface as ErrNotFound; resolution is never cached because codes can
// expire mid-session.
func (c *Client) DiscountCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	var dc model.DiscountCode
	if err := c.getJSON(ctx, "/discount-codes/"+url.PathEscape(code), nil, c.requestTimeout, &dc); err != nil {
		return nil, err
	}
	return &dc, nil
}
