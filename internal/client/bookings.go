package client

import (
	"context"
	"net/url"

	"aqve/internal/entities"
)

type BookingsAPI struct {
	c *Client
}

func (b *BookingsAPI) Create(ctx context.Context, req entities.CreateBookingRequest) (entities.Booking, error) {
	return Post[entities.Booking](ctx, b.c, "/bookings", req)
}

// List returns the caller's bookings, filtered by status when one is given.
func (b *BookingsAPI) List(ctx context.Context, status entities.BookingStatus) (entities.BookingListResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	return Get[entities.BookingListResponse](ctx, b.c, withQuery("/bookings", q))
}

func (b *BookingsAPI) Get(ctx context.Context, id string) (entities.Booking, error) {
	return Get[entities.Booking](ctx, b.c, "/bookings/"+url.PathEscape(id))
}

func (b *BookingsAPI) Cancel(ctx context.Context, id string) (entities.Booking, error) {
	return Patch[entities.Booking](ctx, b.c, "/bookings/"+url.PathEscape(id)+"/cancel", empty)
}

func (b *BookingsAPI) Extend(ctx context.Context, id string, additionalHours int) (entities.Booking, error) {
	return Patch[entities.Booking](ctx, b.c, "/bookings/"+url.PathEscape(id)+"/extend",
		entities.ExtendBookingRequest{AdditionalHours: additionalHours})
}

func (b *BookingsAPI) QRCode(ctx context.Context, id string) (entities.QRCodeResponse, error) {
	return Get[entities.QRCodeResponse](ctx, b.c, "/bookings/"+url.PathEscape(id)+"/qr")
}
