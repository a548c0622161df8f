package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) notificationsCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read notifications and set preferences",
	})

	var unread bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := fetch(cmd.Context(), a.svc.Notifications.List(), service.NoKey{})
			if err != nil {
				return err
			}
			shown := all[:0:0]
			for _, n := range all {
				if !unread || !n.IsRead {
					shown = append(shown, n)
				}
			}
			t := &table{header: []string{"", "ID", "DATE", "TYPE", "TITLE", "MESSAGE"}}
			for _, n := range shown {
				t.add(mark(!n.IsRead), n.ID, when(n.CreatedAt), n.Type, n.Title, n.Message)
			}
			return a.out.Print(shown, t)
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	read := &cobra.Command{
		Use:   "read ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.Notifications.MarkRead().Mutate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Message("Marked %q as read", n.Title)
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.svc.Notifications.MarkAllRead().Mutate(cmd.Context(), service.NoKey{})
			if err != nil {
				return err
			}
			return a.out.Message("%s", res.Message)
		},
	}

	remove := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a notification",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.svc.Notifications.Delete().Mutate(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.out.Message("Notification deleted")
		},
	}

	cmd.AddCommand(list, read, readAll, remove, a.preferencesCommand())
	return cmd
}

// preferenceNames are the categories as typed on the command line.
var preferenceNames = []string{"confirmations", "reminders", "payments", "promotions", "updates"}

type preferenceRow struct {
	name string
	pref entities.ChannelPreference
}

func preferenceRows(p entities.NotificationPreferences) []preferenceRow {
	return []preferenceRow{
		{"confirmations", p.BookingConfirmations},
		{"reminders", p.BookingReminders},
		{"payments", p.PaymentUpdates},
		{"promotions", p.Promotions},
		{"updates", p.AppUpdates},
	}
}

// parsePreference reads "category.channel=bool" into u, starting from the
// current value of the category.
func parsePreference(u *entities.PreferencesUpdate, cur entities.NotificationPreferences, s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("preference %q: want category.channel=true|false", s)
	}
	category, channel, ok := strings.Cut(name, ".")
	if !ok {
		return fmt.Errorf("preference %q: want category.channel=true|false", s)
	}
	on, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("preference %q: %w", s, err)
	}

	var slot **entities.ChannelPreference
	var base entities.ChannelPreference
	switch category {
	case "confirmations":
		slot, base = &u.BookingConfirmations, cur.BookingConfirmations
	case "reminders":
		slot, base = &u.BookingReminders, cur.BookingReminders
	case "payments":
		slot, base = &u.PaymentUpdates, cur.PaymentUpdates
	case "promotions":
		slot, base = &u.Promotions, cur.Promotions
	case "updates":
		slot, base = &u.AppUpdates, cur.AppUpdates
	default:
		return fmt.Errorf("unknown category %q (want one of %s)", category, strings.Join(preferenceNames, ", "))
	}
	if *slot != nil {
		base = **slot
	}
	switch channel {
	case "push":
		base.Push = on
	case "email":
		base.Email = on
	default:
		return fmt.Errorf("unknown channel %q (want push or email)", channel)
	}
	*slot = &base
	return nil
}

func (a *App) preferencesCommand() *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change notification preferences",
		Example: `  aqve notifications prefs
  aqve notifications prefs --set promotions.push=true --set reminders.email=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := fetch(cmd.Context(), a.svc.Notifications.Preferences(), service.NoKey{})
			if err != nil {
				return err
			}
			if len(set) > 0 {
				var u entities.PreferencesUpdate
				for _, s := range set {
					if err := parsePreference(&u, prefs, s); err != nil {
						return err
					}
				}
				if prefs, err = a.svc.Notifications.UpdatePreferences().Mutate(cmd.Context(), u); err != nil {
					return err
				}
			}
			t := &table{header: []string{"CATEGORY", "PUSH", "EMAIL"}}
			for _, row := range preferenceRows(prefs) {
				t.add(row.name, yesNo(row.pref.Push), yesNo(row.pref.Email))
			}
			return a.out.Print(prefs, t)
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "change a preference, as category.channel=true|false")
	return cmd
}
