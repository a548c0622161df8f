package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PaymentMethodType string

const (
	MethodCard   PaymentMethodType = "card"
	MethodWallet PaymentMethodType = "wallet"
)

type PaymentMethod struct {
	ID        string            `json:"_id"`
	Type      PaymentMethodType `json:"type"`
	Brand     string            `json:"brand,omitempty"`
	Last4     string            `json:"last4,omitempty"`
	ExpMonth  int               `json:"expMonth,omitempty"`
	ExpYear   int               `json:"expYear,omitempty"`
	IsDefault bool              `json:"isDefault"`
}

// AddCardRequest carries either raw card data or a processor token. When
// ProviderToken is set the raw fields are left empty and Brand/Last4/Expiry
// describe the tokenized card.
type AddCardRequest struct {
	CardNumber     string `json:"cardNumber,omitempty"`
	CardholderName string `json:"cardholderName"`
	Expiry         string `json:"expiry"` // MM/YY
	CVV            string `json:"cvv,omitempty"`
	ProviderToken  string `json:"providerToken,omitempty"`
	Brand          string `json:"brand,omitempty"`
	Last4          string `json:"last4,omitempty"`
}

// ParseExpiry splits an MM/YY or MM/YYYY expiry into month and four digit year.
func ParseExpiry(expiry string) (month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expiry %q: want MM/YY", expiry)
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("expiry %q: bad month", expiry)
	}
	yearPart := strings.TrimSpace(parts[1])
	year, err = strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("expiry %q: bad year", expiry)
	}
	switch len(yearPart) {
	case 2:
		year += 2000
	case 4:
	default:
		return 0, 0, fmt.Errorf("expiry %q: bad year", expiry)
	}
	return month, year, nil
}

type ProcessPaymentRequest struct {
	BookingID       string `json:"bookingId"`
	PaymentMethodID string `json:"paymentMethodId"`
	Amount          Money  `json:"amount"`
}

type PaymentResultStatus string

const (
	ResultSuccess PaymentResultStatus = "success"
	ResultFailed  PaymentResultStatus = "failed"
	ResultPending PaymentResultStatus = "pending"
)

type PaymentResult struct {
	ID            string              `json:"_id"`
	BookingID     string              `json:"bookingId"`
	Amount        Money               `json:"amount"`
	Status        PaymentResultStatus `json:"status"`
	TransactionID string              `json:"transactionId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionRefund  TransactionType = "refund"
	TransactionTopUp   TransactionType = "topup"
)

type Transaction struct {
	ID            string          `json:"_id"`
	UserID        string          `json:"userId"`
	Type          TransactionType `json:"type"`
	Amount        Money           `json:"amount"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference,omitempty"`
	BookingID     string          `json:"bookingId,omitempty"`
	ParkingLot    string          `json:"parkingLot,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TransactionFilter pages through the transaction history. Zero fields are not sent.
type TransactionFilter struct {
	Type  TransactionType
	Page  int
	Limit int
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

type WalletBalance struct {
	Balance  Money  `json:"balance"`
	Currency string `json:"currency"`
}

type TopUpRequest struct {
	Amount          Money  `json:"amount"`
	PaymentMethodID string `json:"paymentMethodId"`
}
