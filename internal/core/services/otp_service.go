package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/metrics"
)

// ============================================================
// OTP Service - one-time codes keyed by identifier
// ============================================================

// OTPLength is the number of digits in a code
const OTPLength = 6

// OTPService issues and verifies one-time codes
type OTPService struct {
	store    OTPStore
	notifier *NotificationService
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store OTPStore, notifier *NotificationService, ttl time.Duration, m *metrics.Metrics) *OTPService {
	return &OTPService{
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
	}
}

// Issue stores a fresh code for identifier, replacing any earlier one
func (s *OTPService) Issue(ctx context.Context, identifier string) (string, error) {
	code, err := generateSecureOTP(OTPLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	entry := domain.OTPEntry{Code: code, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.store.Put(ctx, identifier, entry); err != nil {
		return "", err
	}
	return code, nil
}

// Send issues a code for identifier and delivers it to address
func (s *OTPService) Send(ctx context.Context, identifier, address string) (domain.Delivery, error) {
	code, err := s.Issue(ctx, identifier)
	if err != nil {
		return "", err
	}

	delivery := s.notifier.DeliverOTP(ctx, address, code)
	s.metrics.OTPIssued.WithLabelValues(string(delivery)).Inc()
	return delivery, nil
}

// Verify consumes identifier's code. Expired and accepted codes are
// removed; a mismatch leaves the code in place.
func (s *OTPService) Verify(ctx context.Context, identifier, code string) error {
	outcome, err := s.store.Consume(ctx, identifier, code, s.now())
	if err != nil {
		return err
	}
	s.metrics.OTPVerified.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case domain.OTPAccepted:
		return nil
	case domain.OTPExpired:
		return domain.ErrOtpExpired
	case domain.OTPMismatch:
		return domain.ErrOtpMismatch
	default:
		return domain.ErrNoOtpRequested
	}
}

// Sweep removes expired codes
func (s *OTPService) Sweep(ctx context.Context) (int, error) {
	removed, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d expired OTPs", removed)
	}
	return removed, nil
}

// generateSecureOTP generates a cryptographically secure random OTP
func generateSecureOTP(length int) (string, error) {
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		result[i] = byte('0' + n.Int64())
	}
	return string(result), nil
}
