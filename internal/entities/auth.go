package entities

import "time"

type User struct {
	ID              string    `json:"_id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Username        string    `json:"username,omitempty"`
	Avatar          string    `json:"avatar,omitempty"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsPhoneVerified bool      `json:"isPhoneVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type OTPType string

const (
	OTPRegistration  OTPType = "registration"
	OTPLogin         OTPType = "login"
	OTPPasswordReset OTPType = "password_reset"
)

func (t OTPType) Valid() bool {
	switch t {
	case OTPRegistration, OTPLogin, OTPPasswordReset:
		return true
	}
	return false
}

type SendPhoneOTPRequest struct {
	UserID string `json:"userId"`
}

type VerifyPhoneOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type ResendOTPRequest struct {
	UserID string  `json:"userId"`
	Type   OTPType `json:"type"`
}

type ResendVerificationEmailRequest struct {
	Email string `json:"email"`
}

// MessageResponse is the generic {"message"} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
