package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/metrics"
)

type RouterConfig struct {
	Store   *db.Store
	Issuer  *auth.Issuer
	Log     *zap.SugaredLogger
	Metrics *metrics.ServerMetrics

	// StripeWebhookSecret enables POST /api/webhooks/stripe when set.
	StripeWebhookSecret string
	AllowedOrigins      []string
}

// NewRouter mounts the REST API under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	authH := NewAuthHandler(cfg.Store, cfg.Issuer, log)
	parkingH := NewParkingHandler(cfg.Store, log)
	bookingH := NewBookingHandler(cfg.Store, log)
	paymentH := NewPaymentHandler(cfg.Store, log)
	userH := NewUserHandler(cfg.Store, log)
	notifH := NewNotificationHandler(cfg.Store, log)

	r := mux.NewRouter()
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})

	// Public endpoints
	api.HandleFunc("/auth/login", authH.Login).Methods("POST")
	api.HandleFunc("/auth/register", authH.Register).Methods("POST")
	api.HandleFunc("/auth/forgot", authH.ForgotPassword).Methods("POST")
	api.HandleFunc("/auth/reset", authH.ResetPassword).Methods("POST")
	api.HandleFunc("/auth/register/phone", authH.SendPhoneOTP).Methods("POST")
	api.HandleFunc("/auth/verify-phone-otp", authH.VerifyPhoneOTP).Methods("POST")
	api.HandleFunc("/auth/resend-otp", authH.ResendOTP).Methods("POST")
	api.HandleFunc("/auth/resend-verification-email", authH.ResendVerificationEmail).Methods("POST")
	api.HandleFunc("/parking", parkingH.List).Methods("GET")
	api.HandleFunc("/parking/nearby", parkingH.Nearby).Methods("GET")
	api.HandleFunc("/parking/{id}", parkingH.Get).Methods("GET")
	api.HandleFunc("/parking/{id}/slots", parkingH.Slots).Methods("GET")
	api.HandleFunc("/parking/{id}/availability", parkingH.Availability).Methods("POST")
	if cfg.StripeWebhookSecret != "" {
		stripeH := NewStripeWebhookHandler(cfg.StripeWebhookSecret, cfg.Store, log)
		api.HandleFunc("/webhooks/stripe", stripeH.HandleWebhook).Methods("POST")
	}

	// Authenticated endpoints
	private := api.NewRoute().Subrouter()
	private.Use(auth.Middleware(cfg.Issuer))
	private.HandleFunc("/auth/me", authH.Me).Methods("GET")
	private.HandleFunc("/auth/logout", authH.Logout).Methods("POST")

	private.HandleFunc("/bookings", bookingH.Create).Methods("POST")
	private.HandleFunc("/bookings", bookingH.List).Methods("GET")
	private.HandleFunc("/bookings/{id}", bookingH.Get).Methods("GET")
	private.HandleFunc("/bookings/{id}/cancel", bookingH.Cancel).Methods("PATCH")
	private.HandleFunc("/bookings/{id}/extend", bookingH.Extend).Methods("PATCH")
	private.HandleFunc("/bookings/{id}/qr", bookingH.QRCode).Methods("GET")

	private.HandleFunc("/payments/methods", paymentH.Methods).Methods("GET")
	private.HandleFunc("/payments/methods/card", paymentH.AddCard).Methods("POST")
	private.HandleFunc("/payments/methods/{id}", paymentH.DeleteMethod).Methods("DELETE")
	private.HandleFunc("/payments/methods/{id}/default", paymentH.SetDefaultMethod).Methods("PATCH")
	private.HandleFunc("/payments/process", paymentH.Process).Methods("POST")
	private.HandleFunc("/payments/wallet", paymentH.Wallet).Methods("GET")
	private.HandleFunc("/payments/wallet/topup", paymentH.TopUp).Methods("POST")
	private.HandleFunc("/payments/transactions", paymentH.Transactions).Methods("GET")

	private.HandleFunc("/users/me", userH.Profile).Methods("GET")
	private.HandleFunc("/users/me", userH.UpdateProfile).Methods("PUT")
	private.HandleFunc("/users/me", userH.DeleteAccount).Methods("DELETE")
	private.HandleFunc("/users/me/password", userH.ChangePassword).Methods("PATCH")
	private.HandleFunc("/users/vehicles", userH.Vehicles).Methods("GET")
	private.HandleFunc("/users/vehicles", userH.AddVehicle).Methods("POST")
	private.HandleFunc("/users/vehicles/{id}", userH.UpdateVehicle).Methods("PUT")
	private.HandleFunc("/users/vehicles/{id}", userH.DeleteVehicle).Methods("DELETE")
	private.HandleFunc("/users/vehicles/{id}/default", userH.SetDefaultVehicle).Methods("PATCH")
	private.HandleFunc("/users/favorites", userH.Favorites).Methods("GET")
	private.HandleFunc("/users/favorites", userH.AddFavorite).Methods("POST")
	private.HandleFunc("/users/favorites/{id}", userH.RemoveFavorite).Methods("DELETE")

	private.HandleFunc("/notifications", notifH.List).Methods("GET")
	private.HandleFunc("/notifications/preferences", notifH.Preferences).Methods("GET")
	private.HandleFunc("/notifications/preferences", notifH.UpdatePreferences).Methods("PUT")
	private.HandleFunc("/notifications/read-all", notifH.MarkAllRead).Methods("PATCH")
	private.HandleFunc("/notifications/{id}/read", notifH.MarkRead).Methods("PATCH")
	private.HandleFunc("/notifications/{id}", notifH.Delete).Methods("DELETE")

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
	)
	access := zap.NewStdLog(log.Desugar()).Writer()
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.LoggingHandler(access, cors(r)),
	)
}
