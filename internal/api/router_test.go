package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"aqve/internal/api"
	"aqve/internal/auth"
	"aqve/internal/client"
	"aqve/internal/db"
	"aqve/internal/entities"
	apierr "aqve/internal/errors"
	"aqve/internal/metrics"
	"aqve/internal/repository"
	"aqve/internal/session"
)

const webhookSecret = "whsec_test"

type harness struct {
	srv     *httptest.Server
	store   *db.Store
	client  *client.Client
	session *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := db.NewStore()
	store.SeedParking()
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Store:               store,
		Issuer:              iss,
		Metrics:             metrics.NewServerMetrics(prometheus.NewRegistry()),
		StripeWebhookSecret: webhookSecret,
	}))
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.URL + "/api"})
	m := session.NewManager(c.Auth, repository.NewMemoryTokenRepository(""), nil)
	c.SetTokenSource(client.TokenFunc(m.Token))
	return &harness{srv: srv, store: store, client: c, session: m}
}

func (h *harness) register(t *testing.T) entities.User {
	t.Helper()
	user, err := h.session.Register(context.Background(), entities.RegisterRequest{
		FirstName: "Nino", LastName: "Beridze", Email: "nino@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func apiCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apierr.FromError(err).Code
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Restore(ctx))
	assert.Equal(t, session.StatusUnauthenticated, h.session.Status())

	user := h.register(t)
	assert.Equal(t, session.StatusAuthenticated, h.session.Status())

	me, err := h.client.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, err = h.session.Register(ctx, entities.RegisterRequest{
		FirstName: "A", LastName: "B", Email: "nino@example.com", Password: "secret123",
	})
	assert.Equal(t, http.StatusConflict, apiCode(t, err))

	old := h.session.Token()
	require.NoError(t, h.session.Logout(ctx))
	_, err = h.client.Auth.Me(client.WithToken(ctx, old))
	assert.Equal(t, http.StatusUnauthorized, apiCode(t, err), "logged out tokens are revoked")

	_, err = h.session.Login(ctx, entities.LoginRequest{Email: "nino@example.com", Password: "wrong"})
	assert.Equal(t, "Invalid credentials", apierr.FromError(err).Message)

	_, err = h.session.Login(ctx, entities.LoginRequest{Email: "nino@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, h.session.IsAuthenticated())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Bookings.List(context.Background(), "")
	require.Error(t, err)
	e := apierr.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, e.Code)
	assert.Equal(t, "Not authorized, no token", e.Message)
}

func TestBookingAndPaymentFlow(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	lots, err := h.client.Parking.List(ctx, entities.ParkingFilter{City: "Tbilisi"})
	require.NoError(t, err)
	require.Len(t, lots, 2)

	near, err := h.client.Parking.Nearby(ctx, entities.NearbyQuery{Lat: 41.65, Lng: 41.63})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "Batumi", near[0].City)

	floor := 1
	slots, err := h.client.Parking.Slots(ctx, lots[0].ID, &floor)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	query := entities.AvailabilityQuery{Date: date, StartTime: "10:00", Duration: 2}
	avail, err := h.client.Parking.CheckAvailability(ctx, lots[0].ID, query)
	require.NoError(t, err)
	before := avail.AvailableCount

	vehicle, err := h.client.Users.AddVehicle(ctx, entities.CreateVehicleRequest{Name: "Golf", LicensePlate: "AA-123-BB"})
	require.NoError(t, err)

	booking, err := h.client.Bookings.Create(ctx, entities.CreateBookingRequest{
		ParkingLotID: lots[0].ID, SlotID: slots[0].ID, VehicleID: vehicle.ID,
		Date: date, StartTime: "10:00", Duration: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BookingConfirmed, booking.Status)
	assert.Equal(t, "AA-123-BB", booking.Vehicle.LicensePlate)

	avail, err = h.client.Parking.CheckAvailability(ctx, lots[0].ID, query)
	require.NoError(t, err)
	assert.Equal(t, before-1, avail.AvailableCount)

	_, err = h.client.Bookings.Create(ctx, entities.CreateBookingRequest{
		ParkingLotID: lots[0].ID, SlotID: slots[0].ID, Date: date, StartTime: "11:00", Duration: 1,
	})
	assert.Equal(t, "Slot is not available for the selected time", apierr.FromError(err).Message)

	card, err := h.client.Payments.AddCard(ctx, entities.AddCardRequest{
		CardNumber: "4242424242424242", CardholderName: "Nino", Expiry: "12/40", CVV: "123",
	})
	require.NoError(t, err)

	res, err := h.client.Payments.Process(ctx, entities.ProcessPaymentRequest{BookingID: booking.ID, PaymentMethodID: card.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.ResultSuccess, res.Status)

	got, err := h.client.Bookings.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentPaid, got.PaymentStatus)

	qr, err := h.client.Bookings.QRCode(ctx, booking.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, qr.QRCode)

	cancelled, err := h.client.Bookings.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentRefunded, cancelled.PaymentStatus)

	wallet, err := h.client.Payments.WalletBalance(ctx)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(booking.TotalAmount), "refunds land in the wallet")

	txs, err := h.client.Payments.Transactions(ctx, entities.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, txs.Total)
	require.Len(t, txs.Transactions, 1)

	require.NoError(t, h.client.Payments.DeleteMethod(ctx, card.ID))
	assert.Equal(t, http.StatusNotFound, apiCode(t, h.client.Payments.DeleteMethod(ctx, card.ID)))
}

func TestNotificationsAndFavorites(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	lots, err := h.client.Parking.List(ctx, entities.ParkingFilter{})
	require.NoError(t, err)

	fav, err := h.client.Users.AddFavorite(ctx, lots[1].ID)
	require.NoError(t, err)
	assert.Equal(t, lots[1].Name, fav.ParkingLot.Name)
	require.NoError(t, h.client.Users.RemoveFavorite(ctx, lots[1].ID))

	slots, err := h.client.Parking.Slots(ctx, lots[0].ID, nil)
	require.NoError(t, err)
	_, err = h.client.Bookings.Create(ctx, entities.CreateBookingRequest{
		ParkingLotID: lots[0].ID, SlotID: slots[0].ID,
		Date: time.Now().AddDate(0, 0, 1).Format("2006-01-02"), StartTime: "09:00", Duration: 1,
	})
	require.NoError(t, err)

	list, err := h.client.Notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	msg, err := h.client.Notifications.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1 notifications marked as read", msg.Message)

	off := entities.ChannelPreference{}
	prefs, err := h.client.Notifications.UpdatePreferences(ctx, entities.PreferencesUpdate{Promotions: &off})
	require.NoError(t, err)
	assert.True(t, prefs.BookingConfirmations.Push)

	require.NoError(t, h.client.Notifications.Delete(ctx, list[0].ID))
	list, err = h.client.Notifications.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProfileUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	u, err := h.client.Users.UpdateProfile(ctx, entities.UpdateProfileRequest{FirstName: "Nina"})
	require.NoError(t, err)
	assert.Equal(t, "Nina", u.FirstName)

	_, err = h.client.Users.ChangePassword(ctx, "wrong", "another1")
	assert.Equal(t, http.StatusBadRequest, apiCode(t, err))
	_, err = h.client.Users.ChangePassword(ctx, "secret123", "another1")
	require.NoError(t, err)

	require.NoError(t, h.client.Users.DeleteAccount(ctx))
	_, err = h.client.Auth.Me(ctx)
	assert.Equal(t, http.StatusNotFound, apiCode(t, err))
}

func TestRouterErrors(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.srv.URL + "/api/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Route not found", body["message"])

	bad, err := http.Post(h.srv.URL+"/api/auth/login", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	_, err = h.client.Parking.Slots(context.Background(), "missing", nil)
	assert.Equal(t, http.StatusNotFound, apiCode(t, err))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Parking.List(context.Background(), entities.ParkingFilter{})
	require.NoError(t, err)

	resp, err := http.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `aqve_devserver_requests_total{code="200",method="GET",route="/api/parking"}`)
}

func TestStripeWebhookCreditsWallet(t *testing.T) {
	h := newHarness(t)
	user := h.register(t)

	event := map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": stripe.APIVersion,
		"data": map[string]any{"object": map[string]any{
			"id":       "pi_1",
			"object":   "payment_intent",
			"amount":   2550,
			"currency": "gel",
			"metadata": map[string]string{"user_id": user.ID},
		}},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	send := func(header string) int {
		req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/api/webhooks/stripe", strings.NewReader(string(payload)))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", header)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusBadRequest, send("t=1,v1=bad"))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	assert.Equal(t, http.StatusOK, send(signed.Header))
	assert.Equal(t, http.StatusOK, send(signed.Header), "redelivery is idempotent")

	assert.Equal(t, "25.50", h.store.Wallet(user.ID).Balance.StringFixed(2))
}
