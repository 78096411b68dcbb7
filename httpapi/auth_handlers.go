package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/credauth"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type registerResponse struct {
	AccountID string `json:"account_id"`
	Resent    bool   `json:"resent"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := a.engine.Register(r.Context(), credauth.RegisterRequest{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == credauth.RegisterResent {
		status = http.StatusOK
	}
	writeJSON(w, status, registerResponse{
		AccountID: result.AccountID,
		Resent:    result.Outcome == credauth.RegisterResent,
	})
}

type verifyEmailRequest struct {
	AccountID string `json:"account_id"`
	OTP       string `json:"otp"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := a.engine.VerifyEmail(r.Context(), req.AccountID, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := a.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

type resetSendOTPRequest struct {
	Email string `json:"email"`
}

func (a *API) handleResetSendOTP(w http.ResponseWriter, r *http.Request) {
	var req resetSendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

type resetVerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetVerifyOTPResponse struct {
	ResetToken string `json:"reset_token"`
}

func (a *API) handleResetVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resetToken, err := a.engine.ConfirmResetOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetVerifyOTPResponse{ResetToken: resetToken})
}

type resetSavePasswordRequest struct {
	Email           string `json:"email"`
	ResetToken      string `json:"reset_token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (a *API) handleResetSavePassword(w http.ResponseWriter, r *http.Request) {
	var req resetSavePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := a.engine.SetNewPassword(r.Context(), req.Email, req.ResetToken, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

type profileResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Verified bool      `json:"verified"`
	JoinedAt time.Time `json:"joined_at"`
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := a.engine.Profile(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		Verified: profile.Verified,
		JoinedAt: profile.JoinedAt,
	})
}
