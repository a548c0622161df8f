package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"aqve/internal/db"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	metadataUserID        = "user_id"
	maxWebhookBytes       = int64(65536)
)

// StripeWebhookHandler credits wallets for card payments settled in
// Stripe. The payment intent carries the user in its metadata.
type StripeWebhookHandler struct {
	secret string
	store  *db.Store
	log    *zap.SugaredLogger
}

func NewStripeWebhookHandler(secret string, store *db.Store, log *zap.SugaredLogger) *StripeWebhookHandler {
	return &StripeWebhookHandler{secret: secret, store: store, log: log}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warnw("read webhook body", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.log.Warnw("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case eventPaymentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			h.log.Warnw("parse payment intent", "event", event.ID, "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		userID := pi.Metadata[metadataUserID]
		if userID == "" {
			h.log.Infow("payment intent without user, ignored", "intent", pi.ID)
			break
		}
		bal, err := h.store.CreditWallet(userID, decimal.New(pi.Amount, -2), pi.ID)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		h.log.Infow("wallet credited from stripe", "user", userID, "intent", pi.ID, "balance", bal.Balance.StringFixed(2))
	default:
		h.log.Debugw("unhandled stripe event", "type", event.Type)
	}
	w.WriteHeader(http.StatusOK)
}
