package handler

import "github.com/taskboard/taskboard-api/internal/core/domain"

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type userResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	User    *domain.PrincipalView `json:"user"`
}

type loginResponse struct {
	Success     bool                  `json:"success"`
	Message     string                `json:"message"`
	User        *domain.PrincipalView `json:"user"`
	AccessToken string                `json:"accessToken"`
}

type tokenResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

const (
	msgOTPSent             = "OTP sent successfully"
	msgOTPResent           = "OTP resent successfully"
	msgOTPVerified         = "OTP verified successfully"
	msgLoginSuccess        = "Login successful"
	msgRegistrationSuccess = "User registration successful"
	msgResetEmailSent      = "Password reset email sent"
	msgResetSuccess        = "Password reset successful"
	msgLoggedOut           = "Logout successful"
	msgCurrentUser         = "Current user fetched successfully"
	msgTokenCreated        = "Token created successfully"
	msgUserUpdated         = "User updated successfully"
)
