package services

import (
	"context"
	"time"

	"village-sabha/internal/core/domain"
)

// OTPStore keeps at most one outstanding code per identifier.
// Consume must check and delete atomically.
type OTPStore interface {
	Put(ctx context.Context, identifier string, entry domain.OTPEntry) error
	Consume(ctx context.Context, identifier, code string, now time.Time) (domain.OTPOutcome, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Mailer sends a plain text message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PaymentGateway creates orders and verifies payment signatures.
// Each channel uses its own credential pair.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, channel domain.Channel, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.Order, error)
	VerifySignature(channel domain.Channel, orderID, paymentID, signature string) bool
	FetchOrderAmount(ctx context.Context, channel domain.Channel, orderID string) (int64, error)
	KeyID(channel domain.Channel) string
}

// EventPublisher publishes domain events. Failures never fail a request.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v interface{}) error
}
