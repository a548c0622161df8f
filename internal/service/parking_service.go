package service

import (
	"context"

	"aqve/internal/entities"
	"aqve/internal/query"
)

// SlotsKey selects the slots of one lot, optionally on a single floor.
type SlotsKey struct {
	ParkingID string
	Floor     int
	OneFloor  bool
}

type AvailabilityKey struct {
	ParkingID string
	Query     entities.AvailabilityQuery
}

// NearbyKey carries the caller's position once it is known.
type NearbyKey struct {
	entities.NearbyQuery
	Located bool
}

type ParkingService struct {
	d Deps
}

func NewParkingService(d Deps) *ParkingService {
	return &ParkingService{d: d.withDefaults()}
}

func (s *ParkingService) List() *query.Query[entities.ParkingFilter, []entities.ParkingLot] {
	return newQuery(s.d, s.d.API.Parking.List, nil)
}

// Detail stays idle while the id is empty.
func (s *ParkingService) Detail() *query.Query[string, entities.ParkingLot] {
	return newQuery(s.d, s.d.API.Parking.Get, func(id string) bool { return id != "" })
}

func (s *ParkingService) Slots() *query.Query[SlotsKey, []entities.ParkingSlot] {
	fetch := func(ctx context.Context, k SlotsKey) ([]entities.ParkingSlot, error) {
		var floor *int
		if k.OneFloor {
			floor = &k.Floor
		}
		return s.d.API.Parking.Slots(ctx, k.ParkingID, floor)
	}
	return newQuery(s.d, fetch, func(k SlotsKey) bool { return k.ParkingID != "" })
}

// Availability needs both a lot and a complete time window.
func (s *ParkingService) Availability() *query.Query[AvailabilityKey, entities.AvailabilityResponse] {
	fetch := func(ctx context.Context, k AvailabilityKey) (entities.AvailabilityResponse, error) {
		return s.d.API.Parking.CheckAvailability(ctx, k.ParkingID, k.Query)
	}
	return newQuery(s.d, fetch, func(k AvailabilityKey) bool {
		return k.ParkingID != "" && k.Query != (entities.AvailabilityQuery{})
	})
}

func (s *ParkingService) Nearby() *query.Query[NearbyKey, []entities.ParkingLot] {
	fetch := func(ctx context.Context, k NearbyKey) ([]entities.ParkingLot, error) {
		return s.d.API.Parking.Nearby(ctx, k.NearbyQuery)
	}
	return newQuery(s.d, fetch, func(k NearbyKey) bool { return k.Located })
}
