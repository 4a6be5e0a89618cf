package domain

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status represents where a user is in the membership lifecycle
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusMember   Status = "member"
	// StatusRejected is never stored: rejection deletes the pending record.
	StatusRejected Status = "rejected"
)

// IsApprovedOrMember reports whether the status unlocks member-only features
func (s Status) IsApprovedOrMember() bool {
	return s == StatusApproved || s == StatusMember
}

// Purpose tags what a payment was collected for
type Purpose string

const (
	PurposeMembershipFee Purpose = "membership_fee"
	PurposeEventDonation Purpose = "event_donation"
	PurposeSpecialFund   Purpose = "special_fund"
	PurposeGeneral       Purpose = "general"
)

// Valid reports whether p is a known purpose
func (p Purpose) Valid() bool {
	switch p {
	case PurposeMembershipFee, PurposeEventDonation, PurposeSpecialFund, PurposeGeneral:
		return true
	}
	return false
}

// PaymentStatusCompleted is the only status a recorded payment can have
const PaymentStatusCompleted = "completed"

// Channel selects which gateway credential pair handles a payment
type Channel string

const (
	ChannelDefault Channel = "default"
	ChannelSpecial Channel = "special"
)

// ChannelFor returns the gateway channel used for a purpose
func ChannelFor(p Purpose) Channel {
	if p == PurposeSpecialFund {
		return ChannelSpecial
	}
	return ChannelDefault
}
