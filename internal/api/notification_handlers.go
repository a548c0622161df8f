package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/entities"
)

type NotificationHandler struct {
	store *db.Store
	log   *zap.SugaredLogger
}

func NewNotificationHandler(store *db.Store, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{store: store, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Notifications(auth.UserID(r.Context())))
}

func (h *NotificationHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Preferences(auth.UserID(r.Context())))
}

func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var u entities.PreferencesUpdate
	if err := decode(w, r, &u); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.UpdatePreferences(auth.UserID(r.Context()), u))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.MarkRead(auth.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n := h.store.MarkAllRead(auth.UserID(r.Context()))
	writeMessage(w, http.StatusOK, fmt.Sprintf("%d notifications marked as read", n))
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNotification(auth.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
