package domain

import "time"

// OTPOutcome is the result of checking a code against the ledger
type OTPOutcome int

const (
	// OTPNone means no entry exists for the identifier
	OTPNone OTPOutcome = iota
	// OTPExpired means the entry was past its expiry and has been removed
	OTPExpired
	// OTPMismatch means the code differs. The entry is kept.
	OTPMismatch
	// OTPAccepted means the code matched and the entry has been removed
	OTPAccepted
)

func (o OTPOutcome) String() string {
	switch o {
	case OTPNone:
		return "none"
	case OTPExpired:
		return "expired"
	case OTPMismatch:
		return "mismatch"
	case OTPAccepted:
		return "accepted"
	}
	return "unknown"
}

// OTPEntry is one outstanding code
type OTPEntry struct {
	Code      string
	ExpiresAt time.Time
}

// Delivery reports how an OTP reached its recipient
type Delivery string

const (
	DeliveryDelivered Delivery = "delivered"
	// DeliveryFallback means the code was only written to the operator console
	DeliveryFallback Delivery = "fallback"
)
