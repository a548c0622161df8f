package service

import (
	"context"

	"aqve/internal/entities"
	"aqve/internal/query"
)

type ExtendVars struct {
	ID    string
	Hours int
}

type BookingService struct {
	d Deps
}

func NewBookingService(d Deps) *BookingService {
	return &BookingService{d: d.withDefaults()}
}

// List is keyed by status filter; the empty status lists everything.
func (s *BookingService) List() *query.Query[entities.BookingStatus, entities.BookingListResponse] {
	return newQuery(s.d, s.d.API.Bookings.List, nil)
}

func (s *BookingService) Detail() *query.Query[string, entities.Booking] {
	return newQuery(s.d, s.d.API.Bookings.Get, func(id string) bool { return id != "" })
}

func (s *BookingService) Create() *query.Mutation[entities.CreateBookingRequest, entities.Booking] {
	return newMutation(s.d, s.d.API.Bookings.Create,
		outcome{success: "Booking confirmed!", failure: "Booking failed"},
		bookingEvent[entities.CreateBookingRequest]("Booking confirmed!", "confirmed"))
}

func (s *BookingService) Cancel() *query.Mutation[string, entities.Booking] {
	return newMutation(s.d, s.d.API.Bookings.Cancel,
		outcome{success: "Booking cancelled", failure: "Cancellation failed"},
		bookingEvent[string]("Booking cancelled", "cancelled"))
}

func (s *BookingService) Extend() *query.Mutation[ExtendVars, entities.Booking] {
	extend := func(ctx context.Context, v ExtendVars) (entities.Booking, error) {
		return s.d.API.Bookings.Extend(ctx, v.ID, v.Hours)
	}
	return newMutation(s.d, extend,
		outcome{success: "Booking extended!", failure: "Extension failed"},
		bookingEvent[ExtendVars]("Booking extended!", "extended"))
}

func bookingEvent[V any](msg, status string) func(b entities.Booking, vars V) Event {
	return func(b entities.Booking, vars V) Event {
		return Event{Level: LevelSuccess, Message: msg, Booking: &b, Status: status}
	}
}
