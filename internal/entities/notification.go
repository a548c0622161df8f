package entities

import (
	"encoding/json"
	"time"
)

type ChannelPreference struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
}

type NotificationPreferences struct {
	BookingConfirmations ChannelPreference `json:"bookingConfirmations"`
	BookingReminders     ChannelPreference `json:"bookingReminders"`
	PaymentUpdates       ChannelPreference `json:"paymentUpdates"`
	Promotions           ChannelPreference `json:"promotions"`
	AppUpdates           ChannelPreference `json:"appUpdates"`
}

// PreferencesUpdate is a partial update of NotificationPreferences.
type PreferencesUpdate struct {
	BookingConfirmations *ChannelPreference `json:"bookingConfirmations,omitempty"`
	BookingReminders     *ChannelPreference `json:"bookingReminders,omitempty"`
	PaymentUpdates       *ChannelPreference `json:"paymentUpdates,omitempty"`
	Promotions           *ChannelPreference `json:"promotions,omitempty"`
	AppUpdates           *ChannelPreference `json:"appUpdates,omitempty"`
}

// Apply merges the set fields of u into p.
func (u PreferencesUpdate) Apply(p NotificationPreferences) NotificationPreferences {
	if u.BookingConfirmations != nil {
		p.BookingConfirmations = *u.BookingConfirmations
	}
	if u.BookingReminders != nil {
		p.BookingReminders = *u.BookingReminders
	}
	if u.PaymentUpdates != nil {
		p.PaymentUpdates = *u.PaymentUpdates
	}
	if u.Promotions != nil {
		p.Promotions = *u.Promotions
	}
	if u.AppUpdates != nil {
		p.AppUpdates = *u.AppUpdates
	}
	return p
}

type Notification struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	IsRead    bool            `json:"isRead"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
