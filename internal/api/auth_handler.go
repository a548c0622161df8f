package api

import (
	"net/http"

	"go.uber.org/zap"

	"aqve/internal/auth"
	"aqve/internal/db"
	"aqve/internal/entities"
	apierr "aqve/internal/errors"
)

// AuthHandler serves /api/auth. Reset tokens and phone codes are written
// to the log since the development backend delivers no mail.
type AuthHandler struct {
	store  *db.Store
	issuer *auth.Issuer
	log    *zap.SugaredLogger
}

func NewAuthHandler(store *db.Store, issuer *auth.Issuer, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{store: store, issuer: issuer, log: log}
}

func (h *AuthHandler) respond(w http.ResponseWriter, status int, user entities.User) {
	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, status, entities.AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.respond(w, http.StatusOK, user)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	user, err := h.store.CreateUser(req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("user registered", "user", user.ID)
	h.respond(w, http.StatusCreated, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.User(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.issuer.Revoke(auth.BearerToken(r))
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req entities.ForgotPasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	token, err := h.store.IssueReset(req.Email)
	if err != nil && !apierr.FromError(err).IsClientError() {
		writeError(w, h.log, err)
		return
	}
	if token != "" {
		h.log.Infow("password reset issued", "email", req.Email, "token", token)
	}
	// the answer does not reveal whether the account exists
	writeMessage(w, http.StatusOK, "If the email is registered, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req entities.ResetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.store.ResetPassword(req.Token, req.NewPassword); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset")
}

func (h *AuthHandler) SendPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.SendPhoneOTPRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.issueOTP(w, req.UserID, entities.OTPRegistration)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.ResendOTPRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.issueOTP(w, req.UserID, req.Type)
}

func (h *AuthHandler) issueOTP(w http.ResponseWriter, userID string, typ entities.OTPType) {
	code, err := h.store.IssueOTP(userID, typ)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Infow("phone code issued", "user", userID, "type", typ, "code", code)
	writeMessage(w, http.StatusOK, "Verification code sent")
}

func (h *AuthHandler) VerifyPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.VerifyPhoneOTPRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.store.VerifyOTP(req.UserID, req.OTP); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Phone verified")
}

func (h *AuthHandler) ResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var req entities.ResendVerificationEmailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if _, err := h.store.UserByEmail(req.Email); err == nil {
		h.log.Infow("verification email requested", "email", req.Email)
	}
	writeMessage(w, http.StatusOK, "If the email is registered, a verification email has been sent")
}
