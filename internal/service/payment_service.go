package service

import (
	"context"

	"aqve/internal/entities"
	"aqve/internal/query"
)

type TopUpVars struct {
	Amount   entities.Money
	MethodID string
}

type PaymentService struct {
	d Deps
}

func NewPaymentService(d Deps) *PaymentService {
	return &PaymentService{d: d.withDefaults()}
}

func (s *PaymentService) Methods() *query.Query[NoKey, []entities.PaymentMethod] {
	fetch := func(ctx context.Context, _ NoKey) ([]entities.PaymentMethod, error) {
		return s.d.API.Payments.Methods(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *PaymentService) Wallet() *query.Query[NoKey, entities.WalletBalance] {
	fetch := func(ctx context.Context, _ NoKey) (entities.WalletBalance, error) {
		return s.d.API.Payments.WalletBalance(ctx)
	}
	return newQuery(s.d, fetch, nil)
}

func (s *PaymentService) Transactions() *query.Query[entities.TransactionFilter, entities.TransactionList] {
	return newQuery(s.d, s.d.API.Payments.Transactions, nil)
}

// AddCard tokenizes raw card data first when a tokenizer is configured.
func (s *PaymentService) AddCard() *query.Mutation[entities.AddCardRequest, entities.PaymentMethod] {
	add := func(ctx context.Context, req entities.AddCardRequest) (entities.PaymentMethod, error) {
		if s.d.Cards != nil {
			tokenized, err := s.d.Cards.Tokenize(ctx, req)
			if err != nil {
				return entities.PaymentMethod{}, err
			}
			req = tokenized
		}
		return s.d.API.Payments.AddCard(ctx, req)
	}
	return newMutation(s.d, add, outcome{success: "Card added successfully", failure: "Failed to add card"}, nil)
}

func (s *PaymentService) DeleteMethod() *query.Mutation[string, NoKey] {
	return newMutation(s.d, noData(s.d.API.Payments.DeleteMethod),
		outcome{success: "Payment method removed", failure: "Failed to remove"}, nil)
}

func (s *PaymentService) SetDefaultMethod() *query.Mutation[string, entities.PaymentMethod] {
	return newMutation(s.d, s.d.API.Payments.SetDefaultMethod,
		outcome{success: "Default payment method updated", failure: "Failed to update"}, nil)
}

// Process only reports failures; the booking flow announces success itself.
func (s *PaymentService) Process() *query.Mutation[entities.ProcessPaymentRequest, entities.PaymentResult] {
	return newMutation(s.d, s.d.API.Payments.Process, outcome{failure: "Payment failed"}, nil)
}

func (s *PaymentService) TopUp() *query.Mutation[TopUpVars, entities.WalletBalance] {
	topUp := func(ctx context.Context, v TopUpVars) (entities.WalletBalance, error) {
		return s.d.API.Payments.TopUpWallet(ctx, v.Amount, v.MethodID)
	}
	return newMutation(s.d, topUp, outcome{success: "Wallet topped up!", failure: "Top-up failed"}, nil)
}
