package client

import (
	"context"
	"net/url"

	"aqve/internal/entities"
)

type UsersAPI struct {
	c *Client
}

func (u *UsersAPI) Profile(ctx context.Context) (entities.User, error) {
	return Get[entities.User](ctx, u.c, "/users/me")
}

func (u *UsersAPI) UpdateProfile(ctx context.Context, req entities.UpdateProfileRequest) (entities.User, error) {
	return Put[entities.User](ctx, u.c, "/users/me", req)
}

func (u *UsersAPI) ChangePassword(ctx context.Context, current, next string) (entities.MessageResponse, error) {
	return Patch[entities.MessageResponse](ctx, u.c, "/users/me/password", entities.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
}

func (u *UsersAPI) DeleteAccount(ctx context.Context) error {
	_, err := Delete[struct{}](ctx, u.c, "/users/me")
	return err
}

func (u *UsersAPI) Vehicles(ctx context.Context) ([]entities.Vehicle, error) {
	return Get[[]entities.Vehicle](ctx, u.c, "/users/vehicles")
}

func (u *UsersAPI) AddVehicle(ctx context.Context, req entities.CreateVehicleRequest) (entities.Vehicle, error) {
	return Post[entities.Vehicle](ctx, u.c, "/users/vehicles", req)
}

func (u *UsersAPI) UpdateVehicle(ctx context.Context, id string, req entities.UpdateVehicleRequest) (entities.Vehicle, error) {
	return Put[entities.Vehicle](ctx, u.c, "/users/vehicles/"+url.PathEscape(id), req)
}

func (u *UsersAPI) DeleteVehicle(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, u.c, "/users/vehicles/"+url.PathEscape(id))
	return err
}

func (u *UsersAPI) SetDefaultVehicle(ctx context.Context, id string) (entities.Vehicle, error) {
	return Patch[entities.Vehicle](ctx, u.c, "/users/vehicles/"+url.PathEscape(id)+"/default", empty)
}

func (u *UsersAPI) Favorites(ctx context.Context) ([]entities.FavoriteLocation, error) {
	return Get[[]entities.FavoriteLocation](ctx, u.c, "/users/favorites")
}

func (u *UsersAPI) AddFavorite(ctx context.Context, parkingLotID string) (entities.FavoriteLocation, error) {
	return Post[entities.FavoriteLocation](ctx, u.c, "/users/favorites", entities.AddFavoriteRequest{ParkingLotID: parkingLotID})
}

func (u *UsersAPI) RemoveFavorite(ctx context.Context, parkingLotID string) error {
	_, err := Delete[struct{}](ctx, u.c, "/users/favorites/"+url.PathEscape(parkingLotID))
	return err
}
