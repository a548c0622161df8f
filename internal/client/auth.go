package client

import (
	"context"
	"fmt"

	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

type AuthAPI struct {
	c *Client
}

func (a *AuthAPI) Login(ctx context.Context, req entities.LoginRequest) (entities.AuthResponse, error) {
	return Post[entities.AuthResponse](ctx, a.c, "/auth/login", req)
}

func (a *AuthAPI) Register(ctx context.Context, req entities.RegisterRequest) (entities.AuthResponse, error) {
	return Post[entities.AuthResponse](ctx, a.c, "/auth/register", req)
}

// Me returns the user that owns the current bearer token.
func (a *AuthAPI) Me(ctx context.Context) (entities.User, error) {
	return Get[entities.User](ctx, a.c, "/auth/me")
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := Post[entities.MessageResponse](ctx, a.c, "/auth/logout", empty)
	return err
}

// ForgotPassword asks the backend to send a reset code to the account's phone.
func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (entities.MessageResponse, error) {
	return Post[entities.MessageResponse](ctx, a.c, "/auth/forgot", entities.ForgotPasswordRequest{Email: email})
}

func (a *AuthAPI) ResetPassword(ctx context.Context, token, newPassword string) (entities.MessageResponse, error) {
	return Post[entities.MessageResponse](ctx, a.c, "/auth/reset", entities.ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
}

func (a *AuthAPI) SendPhoneOTP(ctx context.Context, userID string) (entities.MessageResponse, error) {
	return Post[entities.MessageResponse](ctx, a.c, "/auth/register/phone", entities.SendPhoneOTPRequest{UserID: userID})
}

func (a *AuthAPI) VerifyPhoneOTP(ctx context.Context, userID, otp string) (entities.MessageResponse, error) {
	return Post[entities.MessageResponse](ctx, a.c, "/auth/verify-phone-otp", entities.VerifyPhoneOTPRequest{
		UserID: userID,
		OTP:    otp,
	})
}

func (a *AuthAPI) ResendOTP(ctx context.Context, userID string, typ entities.OTPType) (entities.MessageResponse, error) {
	if !typ.Valid() {
		return entities.MessageResponse{}, apierr.ErrBadRequest(fmt.Sprintf("unknown otp type %q", typ))
	}
	return Post[entities.MessageResponse](ctx, a.c, "/auth/resend-otp", entities.ResendOTPRequest{
		UserID: userID,
		Type:   typ,
	})
}

func (a *AuthAPI) ResendVerificationEmail(ctx context.Context, email string) (entities.MessageResponse, error) {
	return Post[entities.MessageResponse](ctx, a.c, "/auth/resend-verification-email",
		entities.ResendVerificationEmailRequest{Email: email})
}
