package db

import (
	"strings"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

func (s *Store) Vehicles(userID string) []entities.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Vehicle{}, s.vehicles[userID]...)
}

// AddVehicle stores a vehicle. Plates are unique per user and the first
// vehicle becomes the default.
func (s *Store) AddVehicle(userID string, req entities.CreateVehicleRequest) (entities.Vehicle, error) {
	plate := normalizePlate(req.LicensePlate)
	if plate == "" {
		return entities.Vehicle{}, apierr.ErrBadRequest("License plate is required")
	}
	if req.Type == "" {
		req.Type = entities.VehicleCar
	}
	if !req.Type.Valid() {
		return entities.Vehicle{}, apierr.ErrBadRequest("Unknown vehicle type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles[userID] {
		if v.LicensePlate == plate {
			return entities.Vehicle{}, apierr.ErrConflict("Vehicle already exists")
		}
	}
	v := entities.Vehicle{
		ID:           s.newID(),
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		LicensePlate: plate,
		Type:         req.Type,
		Color:        strings.TrimSpace(req.Color),
		IsDefault:    len(s.vehicles[userID]) == 0,
	}
	s.vehicles[userID] = append(s.vehicles[userID], v)
	return v, nil
}

func (s *Store) UpdateVehicle(userID, id string, req entities.UpdateVehicleRequest) (entities.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vs := s.vehicles[userID]
	for i := range vs {
		if vs[i].ID != id {
			continue
		}
		if req.Name != nil {
			vs[i].Name = strings.TrimSpace(*req.Name)
		}
		if req.LicensePlate != nil {
			plate := normalizePlate(*req.LicensePlate)
			if plate == "" {
				return entities.Vehicle{}, apierr.ErrBadRequest("License plate is required")
			}
			vs[i].LicensePlate = plate
		}
		if req.Type != nil {
			if !req.Type.Valid() {
				return entities.Vehicle{}, apierr.ErrBadRequest("Unknown vehicle type")
			}
			vs[i].Type = *req.Type
		}
		if req.Color != nil {
			vs[i].Color = strings.TrimSpace(*req.Color)
		}
		return vs[i], nil
	}
	return entities.Vehicle{}, apierr.ErrNotFound("Vehicle not found")
}

func (s *Store) DeleteVehicle(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vs := s.vehicles[userID]
	for i, v := range vs {
		if v.ID != id {
			continue
		}
		vs = append(vs[:i:i], vs[i+1:]...)
		if v.IsDefault && len(vs) > 0 {
			vs[0].IsDefault = true
		}
		s.vehicles[userID] = vs
		return nil
	}
	return apierr.ErrNotFound("Vehicle not found")
}

func (s *Store) SetDefaultVehicle(userID, id string) (entities.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicleLocked(userID, id); !ok {
		return entities.Vehicle{}, apierr.ErrNotFound("Vehicle not found")
	}
	var out entities.Vehicle
	for i, v := range s.vehicles[userID] {
		s.vehicles[userID][i].IsDefault = v.ID == id
		if v.ID == id {
			out = s.vehicles[userID][i]
		}
	}
	return out, nil
}

func (s *Store) vehicleLocked(userID, id string) (entities.Vehicle, bool) {
	for _, v := range s.vehicles[userID] {
		if v.ID == id {
			return v, true
		}
	}
	return entities.Vehicle{}, false
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

func (s *Store) Favorites(userID string) []entities.FavoriteLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.FavoriteLocation{}, s.favorites[userID]...)
}

// AddFavorite is idempotent: adding a saved lot returns the existing entry.
func (s *Store) AddFavorite(userID, lotID string) (entities.FavoriteLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[lotID]
	if !ok {
		return entities.FavoriteLocation{}, apierr.ErrNotFound("Parking lot not found")
	}
	for _, f := range s.favorites[userID] {
		if f.ParkingLotID == lotID {
			return f, nil
		}
	}
	f := entities.FavoriteLocation{
		ID:           s.newID(),
		UserID:       userID,
		ParkingLotID: lotID,
		ParkingLot: &entities.FavoriteLotRef{
			ID:         lot.ID,
			Name:       lot.Name,
			Address:    lot.Address,
			HourlyRate: lot.HourlyRate,
			Rating:     lot.Rating,
			Features:   lot.Features,
		},
		CreatedAt: s.now().UTC(),
	}
	s.favorites[userID] = append(s.favorites[userID], f)
	return f, nil
}

// RemoveFavorite drops a saved lot by its parking lot id.
func (s *Store) RemoveFavorite(userID, lotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs := s.favorites[userID]
	for i, f := range fs {
		if f.ParkingLotID == lotID {
			s.favorites[userID] = append(fs[:i:i], fs[i+1:]...)
			return nil
		}
	}
	return apierr.ErrNotFound("Favorite not found")
}
