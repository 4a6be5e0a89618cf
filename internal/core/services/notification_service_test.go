package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"village-sabha/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

// stallingMailer blocks until its context ends
type stallingMailer struct{}

func (stallingMailer) Send(ctx context.Context, _, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type recordingMailer struct {
	to  []string
	err error
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.to = append(m.to, to)
	return m.err
}

func TestDeliverOTPMailsEmailAddresses(t *testing.T) {
	var console bytes.Buffer
	mailer := &recordingMailer{}
	n := NewNotificationService(mailer).WithConsole(&console)

	assert.Equal(t, domain.DeliveryDelivered, n.DeliverOTP(context.Background(), "a@example.com", "123456"))
	assert.Equal(t, []string{"a@example.com"}, mailer.to)
	assert.Empty(t, console.String())

	// Phone numbers are never mailed
	assert.Equal(t, domain.DeliveryFallback, n.DeliverOTP(context.Background(), "9000000000", "654321"))
	assert.Len(t, mailer.to, 1)
	assert.Contains(t, console.String(), "[OTP] 9000000000: 654321")
}

func TestDeliverOTPFallsBackOnMailError(t *testing.T) {
	var console bytes.Buffer
	n := NewNotificationService(&recordingMailer{err: errors.New("relay refused")}).WithConsole(&console)

	assert.Equal(t, domain.DeliveryFallback, n.DeliverOTP(context.Background(), "a@example.com", "123456"))
	assert.Contains(t, console.String(), "[OTP] a@example.com: 123456")
}

func TestDeliverOTPFallsBackOnStalledMail(t *testing.T) {
	var console bytes.Buffer
	n := NewNotificationService(stallingMailer{}).
		WithConsole(&console).
		WithMailTimeout(50 * time.Millisecond)

	start := time.Now()
	delivery := n.DeliverOTP(context.Background(), "a@example.com", "123456")

	assert.Equal(t, domain.DeliveryFallback, delivery)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, console.String(), "[OTP] a@example.com: 123456")
}
