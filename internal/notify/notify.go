// Package notify delivers one-time codes and transactional messages over
// SMS and email.
package notify

import (
	"context"
	"fmt"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"go.uber.org/zap"
)

// SMSSender sends a text message to a phone number
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

// EmailSender sends a plain-text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Deliverer routes OTP delivery to the requested channel
type Deliverer struct {
	SMS   SMSSender
	Email EmailSender
}

// DeliverOTP sends the code over "sms" or "email"
func (d *Deliverer) DeliverOTP(ctx context.Context, destination, channel, code string) error {
	body := fmt.Sprintf("Your CollegeDost verification code is %s. It expires in 5 minutes.", code)

	switch channel {
	case "email":
		if d.Email == nil {
			return fmt.Errorf("email delivery not configured")
		}
		return d.Email.SendEmail(ctx, destination, "Your CollegeDost verification code", body)
	default:
		if d.SMS == nil {
			return fmt.Errorf("sms delivery not configured")
		}
		return d.SMS.SendSMS(ctx, destination, body)
	}
}

// LogSMSSender logs instead of sending, for development environments
// without an SMS gateway
type LogSMSSender struct{}

// SendSMS logs the message body
func (LogSMSSender) SendSMS(ctx context.Context, phone, body string) error {
	logger.Log.Info("SMS (dev mode, not sent)",
		zap.String("phone", phone),
		zap.String("body", body))
	return nil
}
