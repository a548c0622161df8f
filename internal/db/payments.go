package db

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

// WalletMethodID selects the wallet balance as the payment method.
const WalletMethodID = "wallet"

var maxTopUp = decimal.NewFromInt(1000)

func (s *Store) Methods(userID string) []entities.PaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]entities.PaymentMethod{}, s.methods[userID]...)
	return out
}

// AddCard stores a card. Only the brand and last four digits are kept; the
// first card becomes the default.
func (s *Store) AddCard(userID string, req entities.AddCardRequest) (entities.PaymentMethod, error) {
	month, year, err := entities.ParseExpiry(req.Expiry)
	if err != nil {
		return entities.PaymentMethod{}, apierr.ErrBadRequest("Expiry must be MM/YY")
	}
	last4, brand := req.Last4, req.Brand
	if req.ProviderToken == "" {
		number := strings.ReplaceAll(req.CardNumber, " ", "")
		if len(number) < 12 || len(number) > 19 || strings.Trim(number, "0123456789") != "" {
			return entities.PaymentMethod{}, apierr.ErrBadRequest("Invalid card number")
		}
		last4, brand = number[len(number)-4:], cardBrand(number)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if y, m, _ := s.now().Date(); year < y || (year == y && month < int(m)) {
		return entities.PaymentMethod{}, apierr.ErrBadRequest("Card has expired")
	}
	pm := entities.PaymentMethod{
		ID:        s.newID(),
		Type:      entities.MethodCard,
		Brand:     brand,
		Last4:     last4,
		ExpMonth:  month,
		ExpYear:   year,
		IsDefault: len(s.methods[userID]) == 0,
	}
	s.methods[userID] = append(s.methods[userID], pm)
	return pm, nil
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case number[0] == '5' || strings.HasPrefix(number, "2"):
		return "mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	}
	return "card"
}

// DeleteMethod removes a card. When the default goes, the oldest remaining
// card takes its place.
func (s *Store) DeleteMethod(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := s.methods[userID]
	for i, pm := range methods {
		if pm.ID != id {
			continue
		}
		methods = append(methods[:i:i], methods[i+1:]...)
		if pm.IsDefault && len(methods) > 0 {
			methods[0].IsDefault = true
		}
		s.methods[userID] = methods
		return nil
	}
	return apierr.ErrNotFound("Payment method not found")
}

func (s *Store) SetDefaultMethod(userID, id string) (entities.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, pm := range s.methods[userID] {
		if pm.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return entities.PaymentMethod{}, apierr.ErrNotFound("Payment method not found")
	}
	for i := range s.methods[userID] {
		s.methods[userID][i].IsDefault = i == idx
	}
	return s.methods[userID][idx], nil
}

// ProcessPayment charges the unpaid part of a booking.
func (s *Store) ProcessPayment(userID string, req entities.ProcessPaymentRequest) (entities.PaymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookingLocked(userID, req.BookingID)
	if err != nil {
		return entities.PaymentResult{}, err
	}
	if !b.Status.Open() {
		return entities.PaymentResult{}, apierr.ErrBadRequest(fmt.Sprintf("Booking is %s and cannot be paid", b.Status))
	}
	if b.PaymentStatus == entities.PaymentPaid {
		return entities.PaymentResult{}, apierr.ErrConflict("Booking is already paid")
	}
	due := b.TotalAmount.Sub(s.paidLocked(userID, b.ID))
	if req.Amount.IsPositive() && !req.Amount.Equal(due) {
		return entities.PaymentResult{}, apierr.ErrBadRequest(fmt.Sprintf("Amount due is %s", due.StringFixed(2)))
	}
	if err := s.chargeLocked(userID, req.PaymentMethodID, &b); err != nil {
		return entities.PaymentResult{}, err
	}
	s.bookings[b.ID] = b

	txs := s.transactions[userID]
	tx := txs[len(txs)-1]
	return entities.PaymentResult{
		ID:            s.newID(),
		BookingID:     b.ID,
		Amount:        tx.Amount,
		Status:        entities.ResultSuccess,
		TransactionID: tx.ID,
		CreatedAt:     tx.CreatedAt,
	}, nil
}

// chargeLocked takes what is still due on b from the wallet or a stored
// card, records the transaction and marks b paid.
func (s *Store) chargeLocked(userID, methodID string, b *entities.Booking) error {
	due := b.TotalAmount.Sub(s.paidLocked(userID, b.ID))
	method := "Wallet"
	if methodID == WalletMethodID {
		w := s.walletLocked(userID)
		if w.Balance.LessThan(due) {
			return apierr.New(http.StatusPaymentRequired, "Insufficient wallet balance")
		}
		w.Balance = w.Balance.Sub(due)
	} else {
		pm, ok := s.methodLocked(userID, methodID)
		if !ok {
			return apierr.ErrNotFound("Payment method not found")
		}
		method = fmt.Sprintf("%s •••• %s", pm.Brand, pm.Last4)
	}

	name := ""
	if b.ParkingLot != nil {
		name = b.ParkingLot.Name
	}
	s.recordLocked(userID, entities.Transaction{
		Type:          entities.TransactionPayment,
		Amount:        due,
		Description:   "Parking booking",
		BookingID:     b.ID,
		ParkingLot:    name,
		PaymentMethod: method,
		Status:        "completed",
	})
	b.PaymentStatus = entities.PaymentPaid
	b.UpdatedAt = s.now().UTC()
	s.notifyLocked(userID, "payment", "Payment received",
		fmt.Sprintf("%s %s paid for booking %s.", due.StringFixed(2), DefaultCurrency, b.ID))
	return nil
}

// paidLocked is the net amount charged for a booking so far.
func (s *Store) paidLocked(userID, bookingID string) entities.Money {
	paid := decimal.Zero
	for _, tx := range s.transactions[userID] {
		if tx.BookingID != bookingID {
			continue
		}
		switch tx.Type {
		case entities.TransactionPayment:
			paid = paid.Add(tx.Amount)
		case entities.TransactionRefund:
			paid = paid.Sub(tx.Amount)
		}
	}
	return paid
}

func (s *Store) methodLocked(userID, id string) (entities.PaymentMethod, bool) {
	for _, pm := range s.methods[userID] {
		if pm.ID == id {
			return pm, true
		}
	}
	return entities.PaymentMethod{}, false
}

func (s *Store) walletLocked(userID string) *wallet {
	w, ok := s.wallets[userID]
	if !ok {
		w = &wallet{Balance: decimal.Zero, Currency: DefaultCurrency}
		s.wallets[userID] = w
	}
	return w
}

func (s *Store) recordLocked(userID string, tx entities.Transaction) {
	tx.ID = s.newID()
	tx.UserID = userID
	if tx.Reference == "" {
		tx.Reference = "TX-" + tx.ID[len(tx.ID)-8:]
	}
	tx.CreatedAt = s.now().UTC()
	s.transactions[userID] = append(s.transactions[userID], tx)
}

func (s *Store) Wallet(userID string) entities.WalletBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.walletLocked(userID)
	return entities.WalletBalance{Balance: w.Balance, Currency: w.Currency}
}

// TopUp moves money from a stored card into the wallet.
func (s *Store) TopUp(userID string, req entities.TopUpRequest) (entities.WalletBalance, error) {
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(maxTopUp) {
		return entities.WalletBalance{}, apierr.ErrBadRequest("Amount must be between 0 and 1000")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pm, ok := s.methodLocked(userID, req.PaymentMethodID)
	if !ok {
		return entities.WalletBalance{}, apierr.ErrNotFound("Payment method not found")
	}
	w := s.walletLocked(userID)
	w.Balance = w.Balance.Add(req.Amount.Round(2))
	s.recordLocked(userID, entities.Transaction{
		Type:          entities.TransactionTopUp,
		Amount:        req.Amount.Round(2),
		Description:   "Wallet top-up",
		PaymentMethod: fmt.Sprintf("%s •••• %s", pm.Brand, pm.Last4),
		Status:        "completed",
	})
	return entities.WalletBalance{Balance: w.Balance, Currency: w.Currency}, nil
}

// Transactions pages through the history, newest first.
func (s *Store) Transactions(userID string, f entities.TransactionFilter) entities.TransactionList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []entities.Transaction{}
	for _, tx := range s.transactions[userID] {
		if f.Type == "" || tx.Type == f.Type {
			all = append(all, tx)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	limit, page := f.Limit, f.Page
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if page < 1 {
		page = 1
	}
	from := min((page-1)*limit, len(all))
	to := min(from+limit, len(all))
	return entities.TransactionList{Transactions: all[from:to], Total: len(all)}
}

// CreditWallet adds an externally settled payment to the wallet. A
// reference that was already credited is ignored, so redelivered webhook
// events are safe.
func (s *Store) CreditWallet(userID string, amount entities.Money, reference string) (entities.WalletBalance, error) {
	if !amount.IsPositive() {
		return entities.WalletBalance{}, apierr.ErrBadRequest("Amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return entities.WalletBalance{}, apierr.ErrNotFound("User not found")
	}
	w := s.walletLocked(userID)
	for _, tx := range s.transactions[userID] {
		if tx.Reference == reference {
			return entities.WalletBalance{Balance: w.Balance, Currency: w.Currency}, nil
		}
	}
	w.Balance = w.Balance.Add(amount.Round(2))
	s.recordLocked(userID, entities.Transaction{
		Type:          entities.TransactionTopUp,
		Amount:        amount.Round(2),
		Description:   "Wallet top-up",
		Reference:     reference,
		PaymentMethod: "stripe",
		Status:        "completed",
	})
	return entities.WalletBalance{Balance: w.Balance, Currency: w.Currency}, nil
}
