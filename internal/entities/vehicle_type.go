package entities

import (
	"fmt"
	"strings"
)

type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleTruck      VehicleType = "truck"
	VehicleBus        VehicleType = "bus"
)

// vehicleAliases maps user input onto the backend's vehicle types.
// SUVs and vans park in car slots.
var vehicleAliases = map[string]VehicleType{
	"car":        VehicleCar,
	"suv":        VehicleCar,
	"van":        VehicleCar,
	"motorcycle": VehicleMotorcycle,
	"motorbike":  VehicleMotorcycle,
	"moto":       VehicleMotorcycle,
	"truck":      VehicleTruck,
	"bus":        VehicleBus,
}

// ParseVehicleType normalizes a free-form vehicle type name.
func ParseVehicleType(s string) (VehicleType, error) {
	if t, ok := vehicleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleCar, VehicleMotorcycle, VehicleTruck, VehicleBus:
		return true
	}
	return false
}
