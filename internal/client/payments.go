package client

import (
	"context"
	"net/url"
	"strconv"

	"aqve/internal/entities"
)

type PaymentsAPI struct {
	c *Client
}

func (p *PaymentsAPI) Methods(ctx context.Context) ([]entities.PaymentMethod, error) {
	return Get[[]entities.PaymentMethod](ctx, p.c, "/payments/methods")
}

func (p *PaymentsAPI) AddCard(ctx context.Context, req entities.AddCardRequest) (entities.PaymentMethod, error) {
	return Post[entities.PaymentMethod](ctx, p.c, "/payments/methods/card", req)
}

func (p *PaymentsAPI) DeleteMethod(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, p.c, "/payments/methods/"+url.PathEscape(id))
	return err
}

func (p *PaymentsAPI) SetDefaultMethod(ctx context.Context, id string) (entities.PaymentMethod, error) {
	return Patch[entities.PaymentMethod](ctx, p.c, "/payments/methods/"+url.PathEscape(id)+"/default", empty)
}

func (p *PaymentsAPI) Process(ctx context.Context, req entities.ProcessPaymentRequest) (entities.PaymentResult, error) {
	return Post[entities.PaymentResult](ctx, p.c, "/payments/process", req)
}

func (p *PaymentsAPI) WalletBalance(ctx context.Context) (entities.WalletBalance, error) {
	return Get[entities.WalletBalance](ctx, p.c, "/payments/wallet")
}

func (p *PaymentsAPI) TopUpWallet(ctx context.Context, amount entities.Money, paymentMethodID string) (entities.WalletBalance, error) {
	return Post[entities.WalletBalance](ctx, p.c, "/payments/wallet/topup", entities.TopUpRequest{
		Amount:          amount,
		PaymentMethodID: paymentMethodID,
	})
}

func (p *PaymentsAPI) Transactions(ctx context.Context, f entities.TransactionFilter) (entities.TransactionList, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return Get[entities.TransactionList](ctx, p.c, withQuery("/payments/transactions", q))
}
