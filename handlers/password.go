package handlers

import (
	"errors"
	"net/http"

	"github.com/campusconecto/campusconecto/backend/api/internal/auth"
	"github.com/gin-gonic/gin"
)

type sendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,min=4"`
}

type resetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,min=4"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (h *UserHandler) registerPassword(rg *gin.RouterGroup) {
	rg.POST("/password/send-otp", h.SendOTP)
	rg.POST("/forgot-password", h.SendOTP)
	rg.POST("/password/verify-otp", h.VerifyOTP)
	rg.POST("/password/reset", h.ResetPassword)
	rg.POST("/reset-password", h.ResetPassword)
	rg.POST("/forgot-password/reset", h.ResetPassword)
}

func (h *UserHandler) SendOTP(c *gin.Context) {
	var req sendCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	dev, err := h.auth.SendResetCode(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, auth.ErrNoAccount):
		fail(c, http.StatusNotFound, "No user found with this email")
	case errors.Is(err, auth.ErrResetMailFailed):
		fail(c, http.StatusInternalServerError, "Failed to send OTP email")
	case err != nil:
		serverError(c, "Failed to send OTP email", err)
	case dev:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP generated (DEV mode)", "dev": true})
	default:
		respondMessage(c, http.StatusOK, "OTP sent to email", nil)
	}
}

func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req verifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.auth.VerifyResetCode(c.Request.Context(), req.Email, req.OTP)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
	case err != nil:
		serverError(c, "OTP verification failed", err)
	default:
		respondMessage(c, http.StatusOK, "OTP verified", nil)
	}
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, auth.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case err != nil:
		serverError(c, "Password reset failed", err)
	default:
		respondMessage(c, http.StatusOK, "Password reset successful", nil)
	}
}
