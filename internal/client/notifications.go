package client

import (
	"context"
	"net/url"

	"aqve/internal/entities"
)

type NotificationsAPI struct {
	c *Client
}

func (n *NotificationsAPI) Preferences(ctx context.Context) (entities.NotificationPreferences, error) {
	return Get[entities.NotificationPreferences](ctx, n.c, "/notifications/preferences")
}

func (n *NotificationsAPI) UpdatePreferences(ctx context.Context, u entities.PreferencesUpdate) (entities.NotificationPreferences, error) {
	return Put[entities.NotificationPreferences](ctx, n.c, "/notifications/preferences", u)
}

func (n *NotificationsAPI) List(ctx context.Context) ([]entities.Notification, error) {
	return Get[[]entities.Notification](ctx, n.c, "/notifications")
}

func (n *NotificationsAPI) MarkRead(ctx context.Context, id string) (entities.Notification, error) {
	return Patch[entities.Notification](ctx, n.c, "/notifications/"+url.PathEscape(id)+"/read", empty)
}

func (n *NotificationsAPI) MarkAllRead(ctx context.Context) (entities.MessageResponse, error) {
	return Patch[entities.MessageResponse](ctx, n.c, "/notifications/read-all", empty)
}

func (n *NotificationsAPI) Delete(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, n.c, "/notifications/"+url.PathEscape(id))
	return err
}
