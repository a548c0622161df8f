package client

import (
	"context"
	"net/url"
	"strconv"

	"aqve/internal/entities"
)

type ParkingAPI struct {
	c *Client
}

func (p *ParkingAPI) List(ctx context.Context, f entities.ParkingFilter) ([]entities.ParkingLot, error) {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return Get[[]entities.ParkingLot](ctx, p.c, withQuery("/parking", q))
}

func (p *ParkingAPI) Get(ctx context.Context, id string) (entities.ParkingLot, error) {
	return Get[entities.ParkingLot](ctx, p.c, "/parking/"+url.PathEscape(id))
}

// Slots lists the lot's slots, optionally on a single floor.
func (p *ParkingAPI) Slots(ctx context.Context, parkingID string, floor *int) ([]entities.ParkingSlot, error) {
	q := url.Values{}
	if floor != nil {
		q.Set("floor", strconv.Itoa(*floor))
	}
	return Get[[]entities.ParkingSlot](ctx, p.c, withQuery("/parking/"+url.PathEscape(parkingID)+"/slots", q))
}

func (p *ParkingAPI) CheckAvailability(ctx context.Context, parkingID string, query entities.AvailabilityQuery) (entities.AvailabilityResponse, error) {
	return Post[entities.AvailabilityResponse](ctx, p.c, "/parking/"+url.PathEscape(parkingID)+"/availability", query)
}

// Nearby searches around a point. A zero radius uses entities.DefaultNearbyRadius.
func (p *ParkingAPI) Nearby(ctx context.Context, nq entities.NearbyQuery) ([]entities.ParkingLot, error) {
	radius := nq.Radius
	if radius == 0 {
		radius = entities.DefaultNearbyRadius
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(nq.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(nq.Lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radius))
	return Get[[]entities.ParkingLot](ctx, p.c, withQuery("/parking/nearby", q))
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
