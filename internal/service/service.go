package service

import (
	"context"

	"go.uber.org/zap"

	"aqve/internal/client"
	"aqve/internal/entities"
	apierr "aqve/internal/errors"
	"aqve/internal/query"
)

// NoKey is the key of queries that take no parameters.
type NoKey = struct{}

// UserRefresher reloads the signed-in user after a profile change.
type UserRefresher interface {
	RefreshUser(ctx context.Context) error
}

// Tokenizer turns raw card data into a processor token before it is sent.
type Tokenizer interface {
	Tokenize(ctx context.Context, req entities.AddCardRequest) (entities.AddCardRequest, error)
}

type Deps struct {
	API      *client.Client
	Session  UserRefresher
	Notifier Notifier
	Cards    Tokenizer
	Log      *zap.SugaredLogger
	// Context is the parent of every query fetch and notification.
	Context context.Context
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.Notifier == nil {
		d.Notifier = LogNotifier{Log: d.Log}
	}
	if d.Context == nil {
		d.Context = context.Background()
	}
	return d
}

// Services groups the read and write models of every resource.
type Services struct {
	Parking       *ParkingService
	Bookings      *BookingService
	Payments      *PaymentService
	Users         *UserService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	d = d.withDefaults()
	return &Services{
		Parking:       NewParkingService(d),
		Bookings:      NewBookingService(d),
		Payments:      NewPaymentService(d),
		Users:         NewUserService(d),
		Notifications: NewNotificationService(d),
	}
}

func newQuery[K comparable, T any](d Deps, fetch func(ctx context.Context, key K) (T, error), enabled func(K) bool) *query.Query[K, T] {
	return query.New[K, T](fetch, query.Options[K, T]{
		Enabled: enabled,
		Context: d.Context,
	})
}

// outcome holds the messages shown when a mutation settles. An empty
// message is not shown.
type outcome struct {
	success string
	failure string
}

func newMutation[V, T any](d Deps, fn func(ctx context.Context, vars V) (T, error), o outcome, onSuccess func(data T, vars V) Event) *query.Mutation[V, T] {
	return query.NewMutation(fn, query.MutationOptions[V, T]{
		OnSuccess: func(data T, vars V) {
			e := Event{Level: LevelSuccess, Message: o.success}
			if onSuccess != nil {
				e = onSuccess(data, vars)
			}
			if e.Message != "" {
				d.Notifier.Notify(d.Context, e)
			}
		},
		OnError: func(err *apierr.APIError, vars V) {
			if o.failure == "" {
				return
			}
			d.Notifier.Notify(d.Context, Event{Level: LevelError, Message: errorMessage(err, o.failure)})
		},
	})
}

// errorMessage prefers the backend's message and falls back to the fixed
// text when there is none.
func errorMessage(err *apierr.APIError, fallback string) string {
	if err == nil || err.Message == "" || err.Message == apierr.DefaultMessage {
		if fallback == "" {
			return apierr.DefaultMessage
		}
		return fallback
	}
	return err.Message
}

// noData adapts an error-only call to a mutation function.
func noData[V any](fn func(ctx context.Context, vars V) error) func(ctx context.Context, vars V) (NoKey, error) {
	return func(ctx context.Context, vars V) (NoKey, error) {
		return NoKey{}, fn(ctx, vars)
	}
}
