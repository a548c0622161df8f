package service

import (
	"context"

	"aqve/internal/entities"
	"aqve/internal/query"
)

// NotificationService covers the inbox and channel preferences. Its
// mutations are silent; the inbox itself is the feedback.
type NotificationService struct {
	d Deps
}

func NewNotificationService(d Deps) *NotificationService {
	return &NotificationService{d: d.withDefaults()}
}

func (s *NotificationService) List() *query.Query[NoKey, []entities.Notification] {
	fetch := func(ctx context.Context, _ NoKey) ([]entities.Notification, error) {
		return s.d.API.Notifications.List(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *NotificationService) Preferences() *query.Query[NoKey, entities.NotificationPreferences] {
	fetch := func(ctx context.Context, _ NoKey) (entities.NotificationPreferences, error) {
		return s.d.API.Notifications.Preferences(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *NotificationService) UpdatePreferences() *query.Mutation[entities.PreferencesUpdate, entities.NotificationPreferences] {
	return newMutation(s.d, s.d.API.Notifications.UpdatePreferences, outcome{}, nil)
}

func (s *NotificationService) MarkRead() *query.Mutation[string, entities.Notification] {
	return newMutation(s.d, s.d.API.Notifications.MarkRead, outcome{}, nil)
}

func (s *NotificationService) MarkAllRead() *query.Mutation[NoKey, entities.MessageResponse] {
	markAll := func(ctx context.Context, _ NoKey) (entities.MessageResponse, error) {
		return s.d.API.Notifications.MarkAllRead(ctx)
	}
	return newMutation(s.d, markAll, outcome{}, nil)
}

func (s *NotificationService) Delete() *query.Mutation[string, NoKey] {
	return newMutation(s.d, noData(s.d.API.Notifications.Delete), outcome{}, nil)
}
