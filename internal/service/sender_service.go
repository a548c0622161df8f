package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"aqve/internal/entities"
)

//go:embed templates/booking_email.html
var bookingEmailHTML string

var bookingEmailTmpl = template.Must(template.New("booking_email").Parse(bookingEmailHTML))

// BookingMessage is a rendered booking email.
type BookingMessage struct {
	Subject   string
	PlainText string
	HTML      string
}

type bookingEmailData struct {
	Subject    string
	UserName   string
	Status     string
	BookingID  string
	LotName    string
	LotAddress string
	SlotNumber string
	Floor      int
	Plate      string
	Date       string
	StartTime  string
	EndTime    string
	Total      string
	Year       int
}

func newBookingEmailData(b entities.Booking, userName, status string) bookingEmailData {
	if userName == "" {
		userName = "driver"
	}
	d := bookingEmailData{
		Subject:   fmt.Sprintf("Your Aqve booking is %s - %s", status, b.ID),
		UserName:  userName,
		Status:    status,
		BookingID: b.ID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Total:     b.TotalAmount.StringFixed(2),
		Year:      time.Now().Year(),
	}
	if b.ParkingLot != nil {
		d.LotName = b.ParkingLot.Name
		d.LotAddress = b.ParkingLot.Address
	}
	if b.Slot != nil {
		d.SlotNumber = b.Slot.SlotNumber
		d.Floor = b.Slot.Floor
	}
	if b.Vehicle != nil {
		d.Plate = b.Vehicle.LicensePlate
	}
	return d
}

// RenderBookingMessage renders the email sent when a booking changes status.
func RenderBookingMessage(b entities.Booking, userName, status string) (BookingMessage, error) {
	d := newBookingEmailData(b, userName, status)

	plain := fmt.Sprintf("Hello %s,\n\nYour Aqve booking is %s.\n\n"+
		"Booking: %s\n"+
		"Date: %s\n"+
		"Time: %s - %s\n"+
		"Total: %s GEL\n\n"+
		"Thank you for parking with Aqve.",
		d.UserName, d.Status, d.BookingID, d.Date, d.StartTime, d.EndTime, d.Total)

	var html bytes.Buffer
	if err := bookingEmailTmpl.Execute(&html, d); err != nil {
		return BookingMessage{}, fmt.Errorf("render booking email %s: %w", b.ID, err)
	}
	return BookingMessage{
		Subject:   d.Subject,
		PlainText: plain,
		HTML:      html.String(),
	}, nil
}

// RenderBookingSMS renders the text message for a booking status change.
func RenderBookingSMS(b entities.Booking, status string) string {
	where := ""
	if b.ParkingLot != nil && b.ParkingLot.Name != "" {
		where = " at " + b.ParkingLot.Name
	}
	return fmt.Sprintf("Aqve: booking %s%s is %s.\n%s %s-%s.",
		b.ID, where, status, b.Date, b.StartTime, b.EndTime)
}
