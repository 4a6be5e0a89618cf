package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("verify: %w", ErrPaymentVerificationFailed)

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
	assert.NotErrorIs(t, err, ErrNoOtpRequested)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestForbiddenIsUnauthorized(t *testing.T) {
	assert.ErrorIs(t, ErrAdminRequired, ErrForbidden)
	assert.ErrorIs(t, ErrAdminRequired, ErrUnauthorized)
	assert.NotErrorIs(t, ErrInvalidCredentials, ErrForbidden)
}

func TestExternalIsRetryable(t *testing.T) {
	cause := errors.New("timeout")
	err := External("gateway down", cause)

	assert.True(t, err.Retryable())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "gateway down: timeout", err.Error())
	assert.False(t, ErrAlreadyMember.Retryable())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestOTPErrorKinds(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(ErrNoOtpRequested))
	assert.Equal(t, KindValidation, KindOf(ErrOtpExpired))
	assert.Equal(t, KindUnauth, KindOf(ErrOtpMismatch))
}

func TestToMinorTruncates(t *testing.T) {
	assert.EqualValues(t, 50000, ToMinor(500))
	assert.EqualValues(t, 12345, ToMinor(123.456))
	assert.EqualValues(t, 0, ToMinor(0.009))
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, ChannelSpecial, ChannelFor(PurposeSpecialFund))
	assert.Equal(t, ChannelDefault, ChannelFor(PurposeMembershipFee))
	assert.Equal(t, ChannelDefault, ChannelFor(PurposeEventDonation))
}
