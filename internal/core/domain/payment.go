package domain

// Order is a gateway order awaiting payment
type Order struct {
	ID          string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
	Receipt     string `json:"receipt"`
}

// ToMinor converts a major-unit amount to minor units, truncating
// any fraction of the minor unit.
func ToMinor(amount float64) int64 {
	return int64(amount * 100)
}
