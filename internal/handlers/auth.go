package handlers

import (
	"errors"
	"net/http"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/gin-gonic/gin"
)

type requestOTPBody struct {
	Phone   string `json:"phone" binding:"required,min=10,max=15"`
	Channel string `json:"channel"` // "sms" (default) or "email"
}

// RequestOTP issues a one-time code to the given phone
func (h *Handlers) RequestOTP(c *gin.Context) {
	var body requestOTPBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apierr.ValidationError("phone", "a valid phone number is required"))
		return
	}

	err := h.auth.RequestOTP(c.Request.Context(), body.Phone, body.Channel)
	switch {
	case errors.Is(err, auth.ErrRateLimited):
		respondError(c, apierr.RateLimited("too many code requests, try again later"))
	case err != nil:
		respondError(c, apierr.InternalError("couldn't send the verification code"))
	default:
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}

type verifyOTPBody struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyOTP exchanges a valid code for a session token, creating the
// account on first sign-in
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var body verifyOTPBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apierr.ValidationError("code", "phone and 6-digit code are required"))
		return
	}

	resp, err := h.auth.VerifyOTP(c.Request.Context(), body.Phone, body.Code)
	switch {
	case errors.Is(err, auth.ErrOTPExpired):
		respondError(c, apierr.OTPExpired())
	case errors.Is(err, auth.ErrOTPInvalid):
		respondError(c, apierr.OTPInvalid())
	case errors.Is(err, auth.ErrTooManyAttempts):
		respondError(c, apierr.RateLimited("too many attempts, request a new code"))
	case err != nil:
		respondError(c, apierr.InternalError("verification failed"))
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// GoogleLogin redirects to Google's consent screen
func (h *Handlers) GoogleLogin(c *gin.Context) {
	state := c.Query("state")
	c.Redirect(http.StatusTemporaryRedirect, h.auth.GetGoogleOAuthURL(state))
}

// GoogleCallback completes the OAuth code flow
func (h *Handlers) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respondError(c, apierr.BadRequest("missing authorization code"))
		return
	}

	resp, err := h.auth.ExchangeGoogleCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, apierr.Unauthorized("Google sign-in failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's own record
func (h *Handlers) Me(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		respondError(c, apierr.Unauthorized("Authentication required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
