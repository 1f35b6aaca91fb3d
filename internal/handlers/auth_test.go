package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func (s *HandlersTestSuite) TestOTPRequestAndVerify() {
	body := bytes.NewBufferString(`{"phone": "+919876543210"}`)
	w := s.request(http.MethodPost, "/api/v1/auth/otp/request", body, "")
	s.Equal(http.StatusOK, w.Code)

	s.Equal("+919876543210", s.deliverer.lastDestination)
	s.Equal("sms", s.deliverer.lastChannel)
	s.Len(s.deliverer.lastCode, 6)

	// Wrong code is rejected
	body = bytes.NewBufferString(`{"phone": "+919876543210", "code": "000000"}`)
	if s.deliverer.lastCode == "000000" {
		body = bytes.NewBufferString(`{"phone": "+919876543210", "code": "111111"}`)
	}
	w = s.request(http.MethodPost, "/api/v1/auth/otp/verify", body, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	// Correct code creates the account and returns a token
	payload, err := json.Marshal(map[string]string{
		"phone": "+919876543210",
		"code":  s.deliverer.lastCode,
	})
	s.Require().NoError(err)
	w = s.request(http.MethodPost, "/api/v1/auth/otp/verify", bytes.NewReader(payload), "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.NotEmpty(resp.Token)
	s.True(resp.User.PhoneVerified)
	s.Contains(resp.User.Username, "aspirant_")

	// The issued token works against protected endpoints
	w = s.request(http.MethodGet, "/api/v1/auth/me", nil, resp.Token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestVerifyOTPExpired() {
	code := "123456"
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	s.Require().NoError(err)

	otp := models.PhoneOTP{
		Phone:     "+911112223334",
		CodeHash:  string(hash),
		Channel:   "sms",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	s.Require().NoError(s.db.Create(&otp).Error)

	body := bytes.NewBufferString(`{"phone": "+911112223334", "code": "123456"}`)
	w := s.request(http.MethodPost, "/api/v1/auth/otp/verify", body, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "OTP_EXPIRED")
}

func (s *HandlersTestSuite) TestVerifyOTPAttemptLockout() {
	code := "654321"
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	s.Require().NoError(err)

	otp := models.PhoneOTP{
		Phone:     "+911112223335",
		CodeHash:  string(hash),
		Channel:   "sms",
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
		Attempts:  5,
	}
	s.Require().NoError(s.db.Create(&otp).Error)

	body := bytes.NewBufferString(`{"phone": "+911112223335", "code": "654321"}`)
	w := s.request(http.MethodPost, "/api/v1/auth/otp/verify", body, "")
	s.Equal(http.StatusTooManyRequests, w.Code)
}

func (s *HandlersTestSuite) TestMeRequiresAuth() {
	w := s.request(http.MethodGet, "/api/v1/auth/me", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodGet, "/api/v1/auth/me", nil, "not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestMeReturnsFreshUser() {
	user := s.createUser("priya")
	token := s.tokenFor(user)

	w := s.request(http.MethodGet, "/api/v1/auth/me", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("priya", resp.User.Username)
}
