package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleType(t *testing.T) {
	tests := []struct {
		in      string
		want    VehicleType
		wantErr bool
	}{
		{in: "car", want: VehicleCar},
		{in: " SUV ", want: VehicleCar},
		{in: "Motorbike", want: VehicleMotorcycle},
		{in: "bus", want: VehicleBus},
		{in: "tractor", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVehicleType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in        string
		wantMonth int
		wantYear  int
		wantErr   bool
	}{
		{in: "04/27", wantMonth: 4, wantYear: 2027},
		{in: "12/2030", wantMonth: 12, wantYear: 2030},
		{in: "13/27", wantErr: true},
		{in: "0427", wantErr: true},
		{in: "04/7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, y, err := ParseExpiry(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonth, m)
			assert.Equal(t, tt.wantYear, y)
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	var lot ParkingLot
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"p1","name":"Rustaveli","hourlyRate":2.5,"dailyRate":"20"}`), &lot))
	assert.Equal(t, "2.5", lot.HourlyRate.String())
	require.NotNil(t, lot.DailyRate)
	assert.Equal(t, "20", lot.DailyRate.String())
	assert.Nil(t, lot.MonthlyRate)

	out, err := json.Marshal(WalletBalance{Balance: MoneyFromFloat(12.345), Currency: "GEL"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":12.35,"currency":"GEL"}`, string(out))
}

func TestPreferencesUpdateApply(t *testing.T) {
	base := NotificationPreferences{
		Promotions: ChannelPreference{Push: true, Email: true},
	}
	off := ChannelPreference{}
	got := PreferencesUpdate{Promotions: &off}.Apply(base)
	assert.Equal(t, ChannelPreference{}, got.Promotions)
	assert.Equal(t, base.BookingReminders, got.BookingReminders)
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Nino Beridze", User{FirstName: "Nino", LastName: "Beridze"}.FullName())
	assert.Equal(t, "Nino", User{FirstName: "Nino"}.FullName())
}

func TestBookingStatusOpen(t *testing.T) {
	assert.True(t, BookingConfirmed.Open())
	assert.False(t, BookingCancelled.Open())
	assert.False(t, BookingCompleted.Open())
}
