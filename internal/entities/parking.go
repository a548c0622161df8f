package entities

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ParkingLot struct {
	ID             string       `json:"_id"`
	Name           string       `json:"name"`
	Address        string       `json:"address"`
	City           string       `json:"city"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	TotalSlots     int          `json:"totalSlots"`
	AvailableSlots int          `json:"availableSlots"`
	HourlyRate     Money        `json:"hourlyRate"`
	DailyRate      *Money       `json:"dailyRate,omitempty"`
	MonthlyRate    *Money       `json:"monthlyRate,omitempty"`
	Features       []string     `json:"features,omitempty"`
	Images         []string     `json:"images,omitempty"`
	Rating         float64      `json:"rating,omitempty"`
	ReviewCount    int          `json:"reviewCount,omitempty"`
	OperatingHours string       `json:"operatingHours,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Description    string       `json:"description,omitempty"`
}

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotOccupied    SlotStatus = "occupied"
	SlotReserved    SlotStatus = "reserved"
	SlotMaintenance SlotStatus = "maintenance"
)

type ParkingSlot struct {
	ID           string     `json:"_id"`
	SlotNumber   string     `json:"slotNumber"`
	Floor        int        `json:"floor"`
	Status       SlotStatus `json:"status"`
	Type         string     `json:"type,omitempty"`
	ParkingLotID string     `json:"parkingLotId"`
}

// ParkingFilter narrows the parking list. Zero fields are not sent.
type ParkingFilter struct {
	City   string
	Search string
}

type AvailabilityQuery struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Duration  int    `json:"duration"` // hours
}

type AvailabilityResponse struct {
	Slots          []ParkingSlot `json:"slots"`
	AvailableCount int           `json:"availableCount"`
}

// DefaultNearbyRadius is the search radius in meters when none is given.
const DefaultNearbyRadius = 5000

type NearbyQuery struct {
	Lat    float64
	Lng    float64
	Radius int
}
