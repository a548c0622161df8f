package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentmethod"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

// CardTokenizer exchanges raw card data for a Stripe payment method so that
// only the token reaches the parking backend.
type CardTokenizer struct {
	create func(params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error)
}

func NewCardTokenizer(key string) *CardTokenizer {
	c := paymentmethod.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}
	return &CardTokenizer{create: c.New}
}

// Tokenize returns req with the raw card fields replaced by the token. A
// request that already carries a token is returned as is.
func (t *CardTokenizer) Tokenize(ctx context.Context, req entities.AddCardRequest) (entities.AddCardRequest, error) {
	if req.ProviderToken != "" {
		return req, nil
	}
	number := strings.ReplaceAll(req.CardNumber, " ", "")
	if number == "" {
		return req, apierr.ErrBadRequest("card number is required")
	}
	month, year, err := entities.ParseExpiry(req.Expiry)
	if err != nil {
		return req, apierr.ErrBadRequest(err.Error())
	}

	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(number),
			ExpMonth: stripe.Int64(int64(month)),
			ExpYear:  stripe.Int64(int64(year)),
			CVC:      stripe.String(req.CVV),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(req.CardholderName),
		},
	}
	params.Context = ctx

	pm, err := t.create(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			code := stripeErr.HTTPStatusCode
			if code == 0 {
				code = http.StatusPaymentRequired
			}
			return req, apierr.New(code, stripeErr.Msg)
		}
		return req, apierr.Transport(fmt.Errorf("stripe: %w", err))
	}

	out := entities.AddCardRequest{
		CardholderName: req.CardholderName,
		Expiry:         fmt.Sprintf("%02d/%02d", month, year%100),
		ProviderToken:  pm.ID,
	}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
	}
	return out, nil
}
