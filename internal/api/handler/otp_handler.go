package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

type OTPHandler struct {
	otp ports.OTPService
}

func NewOTPHandler(otp ports.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type otpEmailRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
	OTP   string `json:"otp" validate:"omitempty,numeric,min=4,max=6"`
}

// SendOTP mails a fresh one-time code. The code is never echoed back.
//
// @Summary      Send OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      otpEmailRequest  true  "Email to verify"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/send-otp [post]
func (h *OTPHandler) SendOTP(c echo.Context) error {
	var req otpEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.otp.SendOTP(c.Request().Context(), req.Email)
	metrics.OTPTotal.WithLabelValues("send", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgOTPSent})
}

// VerifyOTP checks a code against the newest one sent to the email.
//
// @Summary      Verify OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Email and code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/verify-otp [post]
func (h *OTPHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.otp.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	metrics.OTPTotal.WithLabelValues("verify", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: ok, Message: msgOTPVerified})
}

// ResendOTP issues a new code, up to the resend cap.
//
// @Summary      Resend OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      otpEmailRequest  true  "Email to verify"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/resend-otp [post]
func (h *OTPHandler) ResendOTP(c echo.Context) error {
	var req otpEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.otp.ResendOTP(c.Request().Context(), req.Email)
	metrics.OTPTotal.WithLabelValues("resend", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgOTPResent})
}
