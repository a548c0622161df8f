package db

import (
	"sort"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

func defaultPreferences() entities.NotificationPreferences {
	on := entities.ChannelPreference{Push: true, Email: true}
	return entities.NotificationPreferences{
		BookingConfirmations: on,
		BookingReminders:     entities.ChannelPreference{Push: true},
		PaymentUpdates:       on,
		Promotions:           entities.ChannelPreference{},
		AppUpdates:           entities.ChannelPreference{Push: true},
	}
}

// notifyLocked appends an in-app notification unless the user turned push
// off for its kind.
func (s *Store) notifyLocked(userID, kind, title, message string) {
	prefs, ok := s.prefs[userID]
	if !ok {
		prefs = defaultPreferences()
	}
	switch kind {
	case "booking":
		if !prefs.BookingConfirmations.Push {
			return
		}
	case "payment":
		if !prefs.PaymentUpdates.Push {
			return
		}
	}
	s.notifications[userID] = append(s.notifications[userID], entities.Notification{
		ID:        s.newID(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
}

// Notifications lists the user's notifications, newest first.
func (s *Store) Notifications(userID string) []entities.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]entities.Notification{}, s.notifications[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) Preferences(userID string) entities.NotificationPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[userID]; ok {
		return p
	}
	return defaultPreferences()
}

func (s *Store) UpdatePreferences(userID string, u entities.PreferencesUpdate) entities.NotificationPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		p = defaultPreferences()
	}
	p = u.Apply(p)
	s.prefs[userID] = p
	return p
}

func (s *Store) MarkRead(userID, id string) (entities.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.notifications[userID]
	for i := range ns {
		if ns[i].ID == id {
			ns[i].IsRead = true
			return ns[i], nil
		}
	}
	return entities.Notification{}, apierr.ErrNotFound("Notification not found")
}

// MarkAllRead returns how many notifications changed.
func (s *Store) MarkAllRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.notifications[userID] {
		if !s.notifications[userID][i].IsRead {
			s.notifications[userID][i].IsRead = true
			n++
		}
	}
	return n
}

func (s *Store) DeleteNotification(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.notifications[userID]
	for i, n := range ns {
		if n.ID == id {
			s.notifications[userID] = append(ns[:i:i], ns[i+1:]...)
			return nil
		}
	}
	return apierr.ErrNotFound("Notification not found")
}
