package service

import (
	"context"

	"aqve/internal/entities"
	"aqve/internal/query"
)

type PasswordChange struct {
	Current string
	Next    string
}

type UserService struct {
	d Deps
}

func NewUserService(d Deps) *UserService {
	return &UserService{d: d.withDefaults()}
}

func (s *UserService) Profile() *query.Query[NoKey, entities.User] {
	fetch := func(ctx context.Context, _ NoKey) (entities.User, error) {
		return s.d.API.Users.Profile(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

// UpdateProfile also reloads the session user so the new name shows up
// everywhere.
func (s *UserService) UpdateProfile() *query.Mutation[entities.UpdateProfileRequest, entities.User] {
	return newMutation(s.d, s.d.API.Users.UpdateProfile,
		outcome{success: "Profile updated!", failure: "Update failed"},
		func(u entities.User, _ entities.UpdateProfileRequest) Event {
			if s.d.Session != nil {
				if err := s.d.Session.RefreshUser(s.d.Context); err != nil {
					s.d.Log.Warnf("refresh user after profile update: %v", err)
				}
			}
			return Event{Level: LevelSuccess, Message: "Profile updated!"}
		})
}

func (s *UserService) ChangePassword() *query.Mutation[PasswordChange, entities.MessageResponse] {
	change := func(ctx context.Context, v PasswordChange) (entities.MessageResponse, error) {
		return s.d.API.Users.ChangePassword(ctx, v.Current, v.Next)
	}
	return newMutation(s.d, change, outcome{success: "Password changed!", failure: "Password change failed"}, nil)
}

func (s *UserService) Vehicles() *query.Query[NoKey, []entities.Vehicle] {
	fetch := func(ctx context.Context, _ NoKey) ([]entities.Vehicle, error) {
		return s.d.API.Users.Vehicles(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *UserService) AddVehicle() *query.Mutation[entities.CreateVehicleRequest, entities.Vehicle] {
	return newMutation(s.d, s.d.API.Users.AddVehicle,
		outcome{success: "Vehicle added!", failure: "Failed to add vehicle"}, nil)
}

func (s *UserService) DeleteVehicle() *query.Mutation[string, NoKey] {
	return newMutation(s.d, noData(s.d.API.Users.DeleteVehicle),
		outcome{success: "Vehicle removed", failure: "Failed to remove vehicle"}, nil)
}

func (s *UserService) SetDefaultVehicle() *query.Mutation[string, entities.Vehicle] {
	return newMutation(s.d, s.d.API.Users.SetDefaultVehicle,
		outcome{success: "Default vehicle updated", failure: "Failed to update"}, nil)
}

func (s *UserService) Favorites() *query.Query[NoKey, []entities.FavoriteLocation] {
	fetch := func(ctx context.Context, _ NoKey) ([]entities.FavoriteLocation, error) {
		return s.d.API.Users.Favorites(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *UserService) AddFavorite() *query.Mutation[string, entities.FavoriteLocation] {
	return newMutation(s.d, s.d.API.Users.AddFavorite,
		outcome{success: "Added to favorites", failure: "Failed to add favorite"}, nil)
}

func (s *UserService) RemoveFavorite() *query.Mutation[string, NoKey] {
	return newMutation(s.d, noData(s.d.API.Users.RemoveFavorite),
		outcome{success: "Removed from favorites", failure: "Failed to remove favorite"}, nil)
}
