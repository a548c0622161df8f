package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/entities"
)

type PaymentHandler struct {
	store *db.Store
	log   *zap.SugaredLogger
}

func NewPaymentHandler(store *db.Store, log *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{store: store, log: log}
}

func (h *PaymentHandler) Methods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Methods(auth.UserID(r.Context())))
}

func (h *PaymentHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req entities.AddCardRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	pm, err := h.store.AddCard(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

func (h *PaymentHandler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteMethod(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) SetDefaultMethod(w http.ResponseWriter, r *http.Request) {
	pm, err := h.store.SetDefaultMethod(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pm)
}

func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req entities.ProcessPaymentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.store.ProcessPayment(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("payment processed", "booking", res.BookingID, "amount", res.Amount.StringFixed(2))
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Wallet(auth.UserID(r.Context())))
}

func (h *PaymentHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req entities.TopUpRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	bal, err := h.store.TopUp(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (h *PaymentHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	page, _, err := intParam(r, "page")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	limit, _, err := intParam(r, "limit")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Transactions(auth.UserID(r.Context()), entities.TransactionFilter{
		Type:  entities.TransactionType(r.URL.Query().Get("type")),
		Page:  page,
		Limit: limit,
	}))
}
