package db

import (
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

func (s *Store) CreateBooking(userID string, req entities.CreateBookingRequest) (entities.Booking, error) {
	start, end, err := bookingWindow(req.Date, req.StartTime, req.Duration)
	if err != nil {
		return entities.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[req.ParkingLotID]
	if !ok {
		return entities.Booking{}, apierr.ErrNotFound("Parking lot not found")
	}
	slot, ok := s.slotLocked(lot.ID, req.SlotID)
	if !ok {
		return entities.Booking{}, apierr.ErrNotFound("Slot not found")
	}
	if end.Before(s.now()) {
		return entities.Booking{}, apierr.ErrBadRequest("Booking must end in the future")
	}
	if s.slotStatusLocked(slot, start, end) != entities.SlotAvailable {
		return entities.Booking{}, apierr.ErrConflict("Slot is not available for the selected time")
	}

	now := s.now().UTC()
	b := entities.Booking{
		ID:            s.newID(),
		UserID:        userID,
		ParkingLotID:  lot.ID,
		ParkingLot:    &entities.BookingLotRef{ID: lot.ID, Name: lot.Name, Address: lot.Address},
		SlotID:        slot.ID,
		Slot:          &entities.BookingSlotRef{ID: slot.ID, SlotNumber: slot.SlotNumber, Floor: slot.Floor},
		Date:          req.Date,
		StartTime:     start.Format(clockLayout),
		EndTime:       end.Format(clockLayout),
		Duration:      req.Duration,
		TotalAmount:   price(lot, req.Duration),
		Status:        entities.BookingConfirmed,
		PaymentStatus: entities.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.VehicleID != "" {
		v, ok := s.vehicleLocked(userID, req.VehicleID)
		if !ok {
			return entities.Booking{}, apierr.ErrNotFound("Vehicle not found")
		}
		b.VehicleID = v.ID
		b.Vehicle = &entities.BookingVehicleRef{ID: v.ID, LicensePlate: v.LicensePlate, Name: v.Name}
	}
	if req.PaymentMethodID != "" {
		if err := s.chargeLocked(userID, req.PaymentMethodID, &b); err != nil {
			return entities.Booking{}, err
		}
	}

	s.bookings[b.ID] = b
	s.notifyLocked(userID, "booking", "Booking confirmed",
		fmt.Sprintf("%s, slot %s on %s at %s.", lot.Name, slot.SlotNumber, b.Date, b.StartTime))
	return b, nil
}

// price is the cheaper of hourly billing and whole days at the daily rate
// plus hourly for the remainder.
func price(lot entities.ParkingLot, hours int) entities.Money {
	hourly := lot.HourlyRate.Mul(decimal.NewFromInt(int64(hours)))
	if lot.DailyRate == nil || hours < 24 {
		return hourly.Round(2)
	}
	days := decimal.NewFromInt(int64(hours / 24))
	rest := lot.HourlyRate.Mul(decimal.NewFromInt(int64(hours % 24)))
	daily := lot.DailyRate.Mul(days).Add(rest)
	return decimal.Min(hourly, daily).Round(2)
}

// Bookings lists the user's bookings, newest first.
func (s *Store) Bookings(userID string, status entities.BookingStatus) entities.BookingListResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entities.Booking{}
	for _, b := range s.bookings {
		if b.UserID != userID || (status != "" && b.Status != status) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return entities.BookingListResponse{Bookings: out, Total: len(out), Page: 1, Pages: 1}
}

func (s *Store) Booking(userID, id string) (entities.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingLocked(userID, id)
}

func (s *Store) bookingLocked(userID, id string) (entities.Booking, error) {
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID {
		return entities.Booking{}, apierr.ErrNotFound("Booking not found")
	}
	return b, nil
}

// CancelBooking cancels an open booking and refunds it to the wallet when
// it was paid.
func (s *Store) CancelBooking(userID, id string) (entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookingLocked(userID, id)
	if err != nil {
		return b, err
	}
	if !b.Status.Open() {
		return b, apierr.ErrBadRequest(fmt.Sprintf("Booking is %s and cannot be cancelled", b.Status))
	}
	b.Status = entities.BookingCancelled
	b.UpdatedAt = s.now().UTC()
	if paid := s.paidLocked(userID, b.ID); paid.IsPositive() {
		b.PaymentStatus = entities.PaymentRefunded
		w := s.walletLocked(userID)
		w.Balance = w.Balance.Add(paid)
		s.recordLocked(userID, entities.Transaction{
			Type:        entities.TransactionRefund,
			Amount:      paid,
			Description: "Refund for cancelled booking",
			BookingID:   b.ID,
			ParkingLot:  b.ParkingLot.Name,
			Status:      "completed",
		})
	}
	s.bookings[id] = b
	s.notifyLocked(userID, "booking", "Booking cancelled", fmt.Sprintf("Booking %s was cancelled.", b.ID))
	return b, nil
}

func (s *Store) ExtendBooking(userID, id string, hours int) (entities.Booking, error) {
	if hours < 1 {
		return entities.Booking{}, apierr.ErrBadRequest("additionalHours must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookingLocked(userID, id)
	if err != nil {
		return b, err
	}
	if !b.Status.Open() {
		return b, apierr.ErrBadRequest(fmt.Sprintf("Booking is %s and cannot be extended", b.Status))
	}
	_, oldEnd, err := bookingWindow(b.Date, b.StartTime, b.Duration)
	if err != nil {
		return b, err
	}
	extraEnd := oldEnd.Add(time.Duration(hours) * time.Hour)
	slot, _ := s.slotLocked(b.ParkingLotID, b.SlotID)
	if s.slotStatusLocked(slot, oldEnd, extraEnd) != entities.SlotAvailable {
		return b, apierr.ErrConflict("Slot is booked right after this booking")
	}

	lot := s.lots[b.ParkingLotID]
	b.Duration += hours
	b.EndTime = extraEnd.Format(clockLayout)
	b.TotalAmount = price(lot, b.Duration)
	if b.PaymentStatus == entities.PaymentPaid {
		// the extra hours are charged by the next ProcessPayment
		b.PaymentStatus = entities.PaymentPending
	}
	b.UpdatedAt = s.now().UTC()
	s.bookings[id] = b
	return b, nil
}

// QRCode returns the entry code for an open booking.
func (s *Store) QRCode(userID, id string) (entities.QRCodeResponse, error) {
	b, err := s.Booking(userID, id)
	if err != nil {
		return entities.QRCodeResponse{}, err
	}
	if !b.Status.Open() {
		return entities.QRCodeResponse{}, apierr.ErrBadRequest("Booking is no longer valid")
	}
	payload := fmt.Sprintf("aqve:%s:%s:%s:%s", b.ID, b.SlotID, b.Date, b.StartTime)
	return entities.QRCodeResponse{QRCode: base64.StdEncoding.EncodeToString([]byte(payload))}, nil
}

// CompleteExpired marks open bookings whose end has passed as completed
// and returns their ids.
func (s *Store) CompleteExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ids []string
	for id, b := range s.bookings {
		if b.Status != entities.BookingConfirmed && b.Status != entities.BookingActive {
			continue
		}
		_, end, err := bookingWindow(b.Date, b.StartTime, b.Duration)
		if err != nil || end.After(now) {
			continue
		}
		b.Status = entities.BookingCompleted
		b.UpdatedAt = now.UTC()
		s.bookings[id] = b
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) slotLocked(lotID, slotID string) (entities.ParkingSlot, bool) {
	for _, slot := range s.slots[lotID] {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return entities.ParkingSlot{}, false
}
