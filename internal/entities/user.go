package entities

import "time"

type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Username  string `json:"username,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type Vehicle struct {
	ID           string      `json:"_id"`
	UserID       string      `json:"userId"`
	Name         string      `json:"name"`
	LicensePlate string      `json:"licensePlate"`
	Type         VehicleType `json:"type"`
	Color        string      `json:"color"`
	IsDefault    bool        `json:"isDefault"`
}

type CreateVehicleRequest struct {
	Name         string      `json:"name"`
	LicensePlate string      `json:"licensePlate"`
	Type         VehicleType `json:"type"`
	Color        string      `json:"color"`
}

// UpdateVehicleRequest is a partial update; nil fields are left unchanged.
type UpdateVehicleRequest struct {
	Name         *string      `json:"name,omitempty"`
	LicensePlate *string      `json:"licensePlate,omitempty"`
	Type         *VehicleType `json:"type,omitempty"`
	Color        *string      `json:"color,omitempty"`
}

type FavoriteLotRef struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	HourlyRate Money    `json:"hourlyRate"`
	Rating     float64  `json:"rating,omitempty"`
	Features   []string `json:"features,omitempty"`
}

type FavoriteLocation struct {
	ID           string          `json:"_id"`
	UserID       string          `json:"userId"`
	ParkingLotID string          `json:"parkingLotId"`
	ParkingLot   *FavoriteLotRef `json:"parkingLot,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type AddFavoriteRequest struct {
	ParkingLotID string `json:"parkingLotId"`
}
