package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/cache"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already taken")
	ErrOTPExpired      = errors.New("verification code expired")
	ErrOTPInvalid      = errors.New("verification code is incorrect")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrRateLimited     = errors.New("too many code requests, try again later")
)

const (
	otpLength      = 6
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
	tokenTTL       = 24 * time.Hour
)

// OTPDeliverer sends a one-time code over the chosen channel ("sms" or
// "email"). Implementations live in the notify package.
type OTPDeliverer interface {
	DeliverOTP(ctx context.Context, destination, channel, code string) error
}

// Service handles authentication: phone OTP and Google sign-in, both
// converging on the same account record.
type Service struct {
	jwtSecret    []byte
	googleConfig *oauth2.Config
	deliverer    OTPDeliverer
	redis        *cache.RedisClient
	httpClient   *http.Client
}

// NewService creates the authentication service
func NewService(jwtSecret []byte, deliverer OTPDeliverer, redis *cache.RedisClient, googleClientID, googleClientSecret string) *Service {
	googleRedirectURL := "http://localhost:8080/api/v1/auth/google/callback"
	if apiBaseURL := os.Getenv("API_BASE_URL"); apiBaseURL != "" {
		googleRedirectURL = apiBaseURL + "/api/v1/auth/google/callback"
	}

	return &Service{
		jwtSecret: jwtSecret,
		deliverer: deliverer,
		redis:     redis,
		googleConfig: &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			RedirectURL:  googleRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RequestOTP issues a one-time code to the phone over the given channel.
// Only a bcrypt hash of the code is stored.
func (s *Service) RequestOTP(ctx context.Context, phone, channel string) error {
	if channel != "sms" && channel != "email" {
		channel = "sms"
	}

	if s.redis != nil && !s.redis.AllowOTPRequest(ctx, phone) {
		return ErrRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	otp := models.PhoneOTP{
		Phone:     phone,
		CodeHash:  string(hash),
		Channel:   channel,
		ExpiresAt: time.Now().UTC().Add(otpTTL),
	}
	if err := database.DB.Create(&otp).Error; err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.deliverer.DeliverOTP(ctx, phone, channel, code); err != nil {
		return fmt.Errorf("failed to deliver verification code: %w", err)
	}

	metrics.Get().OTPIssuedTotal.WithLabelValues(channel).Inc()
	logger.Log.Info("OTP issued", zap.String("channel", channel))
	return nil
}

// VerifyOTP checks the code against the latest pending OTP for the phone,
// creating the account on first sign-in
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*AuthResponse, error) {
	var otp models.PhoneOTP
	err := database.DB.WithContext(ctx).
		Where("phone = ? AND used = ?", phone, false).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Get().OTPVerifiedTotal.WithLabelValues("invalid").Inc()
		return nil, ErrOTPInvalid
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if time.Now().UTC().After(otp.ExpiresAt) {
		metrics.Get().OTPVerifiedTotal.WithLabelValues("expired").Inc()
		return nil, ErrOTPExpired
	}
	if otp.Attempts >= otpMaxAttempts {
		metrics.Get().OTPVerifiedTotal.WithLabelValues("locked").Inc()
		return nil, ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)); err != nil {
		database.DB.Model(&otp).Update("attempts", otp.Attempts+1)
		metrics.Get().OTPVerifiedTotal.WithLabelValues("invalid").Inc()
		return nil, ErrOTPInvalid
	}

	database.DB.Model(&otp).Update("used", true)

	user, err := s.findOrCreatePhoneUser(phone)
	if err != nil {
		return nil, err
	}

	metrics.Get().OTPVerifiedTotal.WithLabelValues("ok").Inc()
	return s.generateAuthResponse(user)
}

// findOrCreatePhoneUser fetches the account for a verified phone, creating
// it with a generated username on first sign-in
func (s *Service) findOrCreatePhoneUser(phone string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("phone = ?", phone).First(&user).Error
	if err == nil {
		if !user.PhoneVerified {
			database.DB.Model(&user).Update("phone_verified", true)
			user.PhoneVerified = true
		}
		now := time.Now().UTC()
		user.LastActiveAt = &now
		database.DB.Model(&user).Update("last_active_at", now)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user = models.User{
		Phone:         &phone,
		Username:      generateUsername(),
		DisplayName:   "New Aspirant",
		PhoneVerified: true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetGoogleOAuthURL returns the Google authorization URL
func (s *Service) GetGoogleOAuthURL(state string) string {
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// googleUserInfo is the subset of the userinfo response we consume
type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeGoogleCode completes the OAuth code flow: exchange the code,
// fetch the profile, and find or create the matching account
func (s *Service) ExchangeGoogleCode(ctx context.Context, code string) (*AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/oauth2/v3/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("google profile missing subject")
	}

	user, err := s.findOrCreateGoogleUser(info)
	if err != nil {
		return nil, err
	}
	return s.generateAuthResponse(user)
}

func (s *Service) findOrCreateGoogleUser(info googleUserInfo) (*models.User, error) {
	var user models.User
	err := database.DB.Where("google_id = ?", info.Sub).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// An existing phone account with the same email gets linked, not duplicated
	if info.Email != "" {
		err = database.DB.Where("LOWER(email) = LOWER(?)", info.Email).First(&user).Error
		if err == nil {
			database.DB.Model(&user).Update("google_id", info.Sub)
			user.GoogleID = &info.Sub
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	displayName := info.Name
	if displayName == "" {
		displayName = "New Aspirant"
	}
	user = models.User{
		GoogleID:    &info.Sub,
		Username:    generateUsername(),
		DisplayName: displayName,
	}
	if info.Email != "" {
		user.Email = &info.Email
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// generateAuthResponse creates the JWT and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(tokenTTL)

	claims := jwt.MapClaims{
		"user_id":        user.ID,
		"username":       user.Username,
		"phone_verified": user.PhoneVerified,
		"exp":            expiresAt.Unix(),
		"iat":            time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT and returns fresh user data
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}

// generateOTPCode produces a random numeric code of otpLength digits
func generateOTPCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < otpLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}

// generateUsername builds a unique handle for freshly created accounts
func generateUsername() string {
	return "aspirant_" + strings.Split(uuid.New().String(), "-")[0]
}
