package db

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

const minPasswordLength = 6

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apierr.ErrBadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *Store) CreateUser(req entities.RegisterRequest) (entities.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return entities.User{}, apierr.ErrBadRequest("A valid email is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return entities.User{}, apierr.ErrBadRequest("First and last name are required")
	}
	if err := validatePassword(req.Password); err != nil {
		return entities.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return entities.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return entities.User{}, apierr.ErrConflict("User already exists")
	}
	rec := &UserRecord{
		User: entities.User{
			ID:        s.newID(),
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
			Phone:     strings.TrimSpace(req.Phone),
			CreatedAt: s.now().UTC(),
		},
		PasswordHash: string(hash),
	}
	s.users[rec.ID] = rec
	s.emails[email] = rec.ID
	s.wallets[rec.ID] = &wallet{Currency: DefaultCurrency}
	s.prefs[rec.ID] = defaultPreferences()
	return rec.User, nil
}

// Authenticate checks the credentials and returns the account.
func (s *Store) Authenticate(email, password string) (entities.User, error) {
	s.mu.RLock()
	var rec UserRecord
	p, ok := s.users[s.emails[normalizeEmail(email)]]
	if ok {
		rec = *p
	}
	s.mu.RUnlock()
	if !ok {
		return entities.User{}, apierr.ErrUnauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return entities.User{}, apierr.ErrUnauthorized("Invalid credentials")
	}
	return rec.User, nil
}

func (s *Store) User(id string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return entities.User{}, apierr.ErrNotFound("User not found")
	}
	return rec.User, nil
}

// UserByEmail looks an account up for password recovery.
func (s *Store) UserByEmail(email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[s.emails[normalizeEmail(email)]]
	if !ok {
		return entities.User{}, apierr.ErrNotFound("User not found")
	}
	return rec.User, nil
}

func (s *Store) UpdateUser(id string, req entities.UpdateProfileRequest) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return entities.User{}, apierr.ErrNotFound("User not found")
	}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		rec.FirstName = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		rec.LastName = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" && v != rec.Phone {
		rec.Phone = v
		rec.IsPhoneVerified = false
	}
	if v := strings.TrimSpace(req.Username); v != "" {
		rec.Username = v
	}
	return rec.User, nil
}

func (s *Store) ChangePassword(id, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	s.mu.RLock()
	var hash string
	rec, ok := s.users[id]
	if ok {
		hash = rec.PasswordHash
	}
	s.mu.RUnlock()
	if !ok {
		return apierr.ErrNotFound("User not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return apierr.ErrBadRequest("Current password is incorrect")
	}
	return s.setPassword(id, next)
}

func (s *Store) setPassword(id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return apierr.ErrNotFound("User not found")
	}
	rec.PasswordHash = string(hash)
	return nil
}

// DeleteUser removes the account and everything it owns.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return apierr.ErrNotFound("User not found")
	}
	delete(s.emails, rec.Email)
	delete(s.users, id)
	for bid, b := range s.bookings {
		if b.UserID == id {
			delete(s.bookings, bid)
		}
	}
	delete(s.methods, id)
	delete(s.wallets, id)
	delete(s.transactions, id)
	delete(s.vehicles, id)
	delete(s.favorites, id)
	delete(s.notifications, id)
	delete(s.prefs, id)
	return nil
}

// IssueOTP creates a six digit phone code for the user and returns it.
func (s *Store) IssueOTP(userID string, typ entities.OTPType) (string, error) {
	if !typ.Valid() {
		return "", apierr.ErrBadRequest(fmt.Sprintf("Unknown OTP type %q", typ))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return "", apierr.ErrNotFound("User not found")
	}
	code := randomCode()
	s.otps[userID] = otpRecord{Code: code, Type: typ, ExpiresAt: s.now().Add(otpTTL)}
	return code, nil
}

func (s *Store) VerifyOTP(userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return apierr.ErrNotFound("User not found")
	}
	otp, ok := s.otps[userID]
	if !ok || otp.Code != code || s.now().After(otp.ExpiresAt) {
		return apierr.ErrBadRequest("Invalid or expired code")
	}
	delete(s.otps, userID)
	rec.IsPhoneVerified = true
	return nil
}

// IssueReset starts a password reset and returns its token.
func (s *Store) IssueReset(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return "", apierr.ErrNotFound("User not found")
	}
	token := s.newID()
	s.resets[token] = resetRecord{UserID: id, ExpiresAt: s.now().Add(resetTTL)}
	return token, nil
}

func (s *Store) ResetPassword(token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	s.mu.Lock()
	rec, ok := s.resets[token]
	if ok {
		delete(s.resets, token)
	}
	now := s.now()
	s.mu.Unlock()
	if !ok || now.After(rec.ExpiresAt) {
		return apierr.ErrBadRequest("Invalid or expired reset token")
	}
	return s.setPassword(rec.UserID, password)
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
