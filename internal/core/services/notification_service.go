package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"village-sabha/internal/core/domain"
)

// mailTimeout bounds one OTP mail before falling back to the console
const mailTimeout = 10 * time.Second

// NotificationService delivers OTPs by mail and falls back to the
// operator console when mail is unavailable.
type NotificationService struct {
	mailer      Mailer
	console     io.Writer
	mailTimeout time.Duration
}

// NewNotificationService creates a new notification service. A nil
// mailer sends everything to the console.
func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{mailer: mailer, console: os.Stdout, mailTimeout: mailTimeout}
}

// WithConsole redirects fallback output
func (s *NotificationService) WithConsole(w io.Writer) *NotificationService {
	s.console = w
	return s
}

// WithMailTimeout overrides how long one mail may take
func (s *NotificationService) WithMailTimeout(d time.Duration) *NotificationService {
	s.mailTimeout = d
	return s
}

// IsEnabled checks if mail delivery is configured
func (s *NotificationService) IsEnabled() bool {
	return s.mailer != nil
}

// DeliverOTP sends code to address. Only addresses that look like email
// are mailed; everything else, and every mail failure, goes to the console.
func (s *NotificationService) DeliverOTP(ctx context.Context, address, code string) domain.Delivery {
	if s.IsEnabled() && strings.Contains(address, "@") {
		body := fmt.Sprintf("Your Village Sabha verification code is %s.\n\nIt expires in 5 minutes. Do not share it with anyone.", code)
		mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
		err := s.mailer.Send(mailCtx, address, "Your Village Sabha OTP", body)
		cancel()
		if err == nil {
			log.Printf("✅ OTP mailed to %s", address)
			return domain.DeliveryDelivered
		}
		log.Printf("⚠️ OTP mail to %s failed, using console: %v", address, err)
	}

	line := strings.Repeat("=", 40)
	fmt.Fprintf(s.console, "\n%s\n[OTP] %s: %s\n%s\n\n", line, address, code, line)
	return domain.DeliveryFallback
}
