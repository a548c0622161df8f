package db

import (
	"time"

	"aqve/internal/entities"
)

// UserRecord is a stored account. The password hash never leaves the store.
type UserRecord struct {
	entities.User
	PasswordHash string
}

// otpRecord is a pending phone verification code.
type otpRecord struct {
	Code      string
	Type      entities.OTPType
	ExpiresAt time.Time
}

// resetRecord is a pending password reset.
type resetRecord struct {
	UserID    string
	ExpiresAt time.Time
}

type wallet struct {
	Balance  entities.Money
	Currency string
}
