package entities

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Open reports whether the booking can still be cancelled or extended.
func (s BookingStatus) Open() bool {
	return s == BookingPending || s == BookingConfirmed || s == BookingActive
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type CreateBookingRequest struct {
	ParkingLotID    string `json:"parkingLotId"`
	SlotID          string `json:"slotId"`
	VehicleID       string `json:"vehicleId,omitempty"`
	Date            string `json:"date"`      // YYYY-MM-DD
	StartTime       string `json:"startTime"` // HH:MM
	Duration        int    `json:"duration"`  // hours
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
}

type BookingLotRef struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type BookingSlotRef struct {
	ID         string `json:"_id"`
	SlotNumber string `json:"slotNumber"`
	Floor      int    `json:"floor"`
}

type BookingVehicleRef struct {
	ID           string `json:"_id"`
	LicensePlate string `json:"licensePlate"`
	Name         string `json:"name"`
}

type Booking struct {
	ID            string             `json:"_id"`
	UserID        string             `json:"userId"`
	ParkingLotID  string             `json:"parkingLotId"`
	ParkingLot    *BookingLotRef     `json:"parkingLot,omitempty"`
	SlotID        string             `json:"slotId"`
	Slot          *BookingSlotRef    `json:"slot,omitempty"`
	VehicleID     string             `json:"vehicleId,omitempty"`
	Vehicle       *BookingVehicleRef `json:"vehicle,omitempty"`
	Date          string             `json:"date"`
	StartTime     string             `json:"startTime"`
	EndTime       string             `json:"endTime"`
	Duration      int                `json:"duration"`
	TotalAmount   Money              `json:"totalAmount"`
	Status        BookingStatus      `json:"status"`
	PaymentStatus PaymentStatus      `json:"paymentStatus"`
	QRCode        string             `json:"qrCode,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type BookingListResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

type ExtendBookingRequest struct {
	AdditionalHours int `json:"additionalHours"`
}

type QRCodeResponse struct {
	QRCode string `json:"qrCode"`
}
