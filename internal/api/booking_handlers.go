package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/entities"
)

type BookingHandler struct {
	store *db.Store
	log   *zap.SugaredLogger
}

func NewBookingHandler(store *db.Store, log *zap.SugaredLogger) *BookingHandler {
	return &BookingHandler{store: store, log: log}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateBookingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	b, err := h.store.CreateBooking(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("booking created", "booking", b.ID, "lot", b.ParkingLotID, "slot", b.SlotID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	status := entities.BookingStatus(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, h.store.Bookings(auth.UserID(r.Context()), status))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Booking(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.CancelBooking(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("booking cancelled", "booking", b.ID)
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Extend(w http.ResponseWriter, r *http.Request) {
	var req entities.ExtendBookingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	b, err := h.store.ExtendBooking(auth.UserID(r.Context()), mux.Vars(r)["id"], req.AdditionalHours)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	qr, err := h.store.QRCode(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}
