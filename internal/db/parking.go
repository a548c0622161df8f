package db

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	earthRadiusM   = 6371000.0
	maxBookingHour = 24 * 30
)

type lotSeed struct {
	name, address, city string
	lat, lng            float64
	hourly, daily       string
	floors, perFloor    int
	features            []string
}

var lotSeeds = []lotSeed{
	{"Rustaveli Underground", "Rustaveli Ave 24", "Tbilisi", 41.6977, 44.7990, "3.00", "30.00", 2, 6, []string{"covered", "security", "ev_charging"}},
	{"Vake Park Parking", "Chavchavadze Ave 60", "Tbilisi", 41.7107, 44.7586, "2.50", "25.00", 1, 8, []string{"security"}},
	{"Batumi Boulevard", "Ninoshvili St 12", "Batumi", 41.6506, 41.6364, "2.00", "20.00", 1, 8, []string{"seaside"}},
}

// SeedParking loads the demo parking lots. One slot per lot is kept in
// maintenance.
func (s *Store) SeedParking() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range lotSeeds {
		hourly, _ := entities.NewMoney(seed.hourly)
		daily, _ := entities.NewMoney(seed.daily)
		lot := entities.ParkingLot{
			ID:             s.newID(),
			Name:           seed.name,
			Address:        seed.address,
			City:           seed.city,
			Coordinates:    &entities.Coordinates{Lat: seed.lat, Lng: seed.lng},
			TotalSlots:     seed.floors * seed.perFloor,
			HourlyRate:     hourly,
			DailyRate:      &daily,
			Features:       seed.features,
			OperatingHours: "24/7",
		}
		var slots []entities.ParkingSlot
		for floor := 1; floor <= seed.floors; floor++ {
			for n := 1; n <= seed.perFloor; n++ {
				slot := entities.ParkingSlot{
					ID:           s.newID(),
					SlotNumber:   fmt.Sprintf("%c-%02d", 'A'+floor-1, n),
					Floor:        floor,
					Status:       entities.SlotAvailable,
					ParkingLotID: lot.ID,
				}
				if floor == seed.floors && n == seed.perFloor {
					slot.Status = entities.SlotMaintenance
				}
				slots = append(slots, slot)
			}
		}
		s.lots[lot.ID] = lot
		s.order = append(s.order, lot.ID)
		s.slots[lot.ID] = slots
	}
}

// withAvailability fills AvailableSlots as of now. Must be called with s.mu held.
func (s *Store) withAvailability(lot entities.ParkingLot) entities.ParkingLot {
	now := s.now()
	lot.AvailableSlots = 0
	for _, slot := range s.slots[lot.ID] {
		if s.slotStatusLocked(slot, now, now.Add(time.Minute)) == entities.SlotAvailable {
			lot.AvailableSlots++
		}
	}
	return lot
}

func (s *Store) Lots(f entities.ParkingFilter) []entities.ParkingLot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []entities.ParkingLot{}
	for _, id := range s.order {
		lot := s.lots[id]
		if f.City != "" && !strings.EqualFold(lot.City, f.City) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(lot.Name+" "+lot.Address), search) {
			continue
		}
		out = append(out, s.withAvailability(lot))
	}
	return out
}

func (s *Store) Lot(id string) (entities.ParkingLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[id]
	if !ok {
		return entities.ParkingLot{}, apierr.ErrNotFound("Parking lot not found")
	}
	return s.withAvailability(lot), nil
}

// Slots lists a lot's slots with their status as of now.
func (s *Store) Slots(lotID string, floor *int) ([]entities.ParkingSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.lots[lotID]; !ok {
		return nil, apierr.ErrNotFound("Parking lot not found")
	}
	now := s.now()
	out := []entities.ParkingSlot{}
	for _, slot := range s.slots[lotID] {
		if floor != nil && slot.Floor != *floor {
			continue
		}
		slot.Status = s.slotStatusLocked(slot, now, now.Add(time.Minute))
		out = append(out, slot)
	}
	return out, nil
}

// Availability lists the slots free for the whole requested window.
func (s *Store) Availability(lotID string, q entities.AvailabilityQuery) (entities.AvailabilityResponse, error) {
	start, end, err := bookingWindow(q.Date, q.StartTime, q.Duration)
	if err != nil {
		return entities.AvailabilityResponse{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.lots[lotID]; !ok {
		return entities.AvailabilityResponse{}, apierr.ErrNotFound("Parking lot not found")
	}
	resp := entities.AvailabilityResponse{Slots: []entities.ParkingSlot{}}
	for _, slot := range s.slots[lotID] {
		if s.slotStatusLocked(slot, start, end) != entities.SlotAvailable {
			continue
		}
		resp.Slots = append(resp.Slots, slot)
	}
	resp.AvailableCount = len(resp.Slots)
	return resp, nil
}

// Nearby returns the lots within radius meters of the point, closest first.
func (s *Store) Nearby(q entities.NearbyQuery) []entities.ParkingLot {
	radius := float64(q.Radius)
	if radius <= 0 {
		radius = entities.DefaultNearbyRadius
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		lot  entities.ParkingLot
		dist float64
	}
	var hits []hit
	for _, id := range s.order {
		lot := s.lots[id]
		if lot.Coordinates == nil {
			continue
		}
		d := distance(q.Lat, q.Lng, lot.Coordinates.Lat, lot.Coordinates.Lng)
		if d <= radius {
			hits = append(hits, hit{lot: s.withAvailability(lot), dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]entities.ParkingLot, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.lot)
	}
	return out
}

// slotStatusLocked is the slot's status over [start, end): maintenance
// wins, then any open booking overlapping the window.
func (s *Store) slotStatusLocked(slot entities.ParkingSlot, start, end time.Time) entities.SlotStatus {
	if slot.Status == entities.SlotMaintenance {
		return entities.SlotMaintenance
	}
	for _, b := range s.bookings {
		if b.SlotID != slot.ID || !b.Status.Open() {
			continue
		}
		bs, be, err := bookingWindow(b.Date, b.StartTime, b.Duration)
		if err != nil || !bs.Before(end) || !start.Before(be) {
			continue
		}
		if b.Status == entities.BookingActive {
			return entities.SlotOccupied
		}
		return entities.SlotReserved
	}
	return entities.SlotAvailable
}

// bookingWindow parses a local date and start time and adds hours.
func bookingWindow(date, start string, hours int) (time.Time, time.Time, error) {
	if hours < 1 || hours > maxBookingHour {
		return time.Time{}, time.Time{}, apierr.ErrBadRequest("Duration must be between 1 and 720 hours")
	}
	from, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, apierr.ErrBadRequest("Date must be YYYY-MM-DD and start time HH:MM")
	}
	return from, from.Add(time.Duration(hours) * time.Hour), nil
}

// distance is the haversine distance in meters.
func distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}
