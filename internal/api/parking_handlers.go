package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/db"
	"aqve/internal/entities"
)

type ParkingHandler struct {
	store *db.Store
	log   *zap.SugaredLogger
}

func NewParkingHandler(store *db.Store, log *zap.SugaredLogger) *ParkingHandler {
	return &ParkingHandler{store: store, log: log}
}

func (h *ParkingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.store.Lots(entities.ParkingFilter{
		City:   q.Get("city"),
		Search: q.Get("search"),
	}))
}

func (h *ParkingHandler) Get(w http.ResponseWriter, r *http.Request) {
	lot, err := h.store.Lot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (h *ParkingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	var floor *int
	n, ok, err := intParam(r, "floor")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if ok {
		floor = &n
	}
	slots, err := h.store.Slots(mux.Vars(r)["id"], floor)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *ParkingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	var q entities.AvailabilityQuery
	if err := decode(w, r, &q); err != nil {
		writeError(w, h.log, err)
		return
	}
	resp, err := h.store.Availability(mux.Vars(r)["id"], q)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ParkingHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	lng, err := floatParam(r, "lng")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	radius, _, err := intParam(r, "radius")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Nearby(entities.NearbyQuery{Lat: lat, Lng: lng, Radius: radius}))
}
