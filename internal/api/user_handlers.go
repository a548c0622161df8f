package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/entities"
)

// UserHandler serves the profile, vehicles and favorites under /api/users.
type UserHandler struct {
	store *db.Store
	log   *zap.SugaredLogger
}

func NewUserHandler(store *db.Store, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{store: store, log: log}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.User(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	user, err := h.store.UpdateUser(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req entities.ChangePasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.store.ChangePassword(auth.UserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := auth.UserID(r.Context())
	if err := h.store.DeleteUser(id); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("account deleted", "user", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Vehicles(auth.UserID(r.Context())))
}

func (h *UserHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateVehicleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	v, err := h.store.AddVehicle(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *UserHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateVehicleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	v, err := h.store.UpdateVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *UserHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) SetDefaultVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.SetDefaultVehicle(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *UserHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Favorites(auth.UserID(r.Context())))
}

func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req entities.AddFavoriteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	f, err := h.store.AddFavorite(auth.UserID(r.Context()), req.ParkingLotID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveFavorite(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
