package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/config"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/metrics"

	"github.com/google/uuid"
)

// orderTimeout bounds a single gateway round trip
const orderTimeout = 15 * time.Second

// PaymentService creates gateway orders and records verified payments
type PaymentService struct {
	store      repositories.Store
	gateway    PaymentGateway
	membership *MembershipService
	events     EventPublisher
	metrics    *metrics.Metrics
	cfg        *config.Config
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	store repositories.Store,
	gateway PaymentGateway,
	membership *MembershipService,
	events EventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		store:      store,
		gateway:    gateway,
		membership: membership,
		events:     events,
		metrics:    m,
		cfg:        cfg,
	}
}

// CreateOrderInput represents a request for a gateway order
type CreateOrderInput struct {
	Amount  float64 `json:"amount"`
	EventID uint    `json:"event_id,omitempty"`
}

// VerifyPaymentInput carries the gateway callback fields and the
// client-declared amount
type VerifyPaymentInput struct {
	PaymentID string  `json:"razorpay_payment_id"`
	OrderID   string  `json:"razorpay_order_id"`
	Signature string  `json:"razorpay_signature"`
	Amount    float64 `json:"amount"`
	EventID   uint    `json:"event_id,omitempty"`
}

// OrderResponse is returned to clients opening the gateway checkout
type OrderResponse struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"razorpay_key_id"`
}

// FeeResponse describes the membership fee and the checkout key that
// collects it
type FeeResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"razorpay_key_id"`
}

// MembershipResult is returned after a successful membership payment
type MembershipResult struct {
	Message    string          `json:"message"`
	SabhasadID string          `json:"sabhasad_id"`
	Status     domain.Status   `json:"status"`
	Payment    *models.Payment `json:"payment"`
}

// HistoryOutput is a page of payments
type HistoryOutput struct {
	Payments []*models.Payment `json:"payments"`
	Total    int64             `json:"total"`
}

// Fee returns the membership fee
func (s *PaymentService) Fee() *FeeResponse {
	return &FeeResponse{
		Amount:   s.cfg.Membership.Fee,
		Currency: s.cfg.Membership.Currency,
		KeyID:    s.gateway.KeyID(domain.ChannelFor(domain.PurposeMembershipFee)),
	}
}

// ============================================================
// Orders
// ============================================================

// CreateMembershipOrder opens an order for the membership fee
func (s *PaymentService) CreateMembershipOrder(ctx context.Context, userID uint) (*OrderResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.membership.CanPayFee(user); err != nil {
		return nil, err
	}

	return s.createOrder(ctx, user, domain.PurposeMembershipFee, s.cfg.Membership.Fee, "MEM-", nil)
}

// CreateOrder opens an order of a positive amount for purpose
func (s *PaymentService) CreateOrder(ctx context.Context, userID uint, purpose domain.Purpose, input *CreateOrderInput) (*OrderResponse, error) {
	if purpose == domain.PurposeMembershipFee {
		return s.CreateMembershipOrder(ctx, userID)
	}
	if !purpose.Valid() {
		return nil, domain.Validation("", "unknown payment purpose")
	}
	if input.Amount <= 0 || domain.ToMinor(input.Amount) < 1 {
		return nil, domain.Validation("", "amount must be positive")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefix := "PAY-"
	notes := map[string]string{}
	switch purpose {
	case domain.PurposeEventDonation:
		event, err := s.getEvent(ctx, input.EventID)
		if err != nil {
			return nil, err
		}
		prefix = fmt.Sprintf("DON-%d-", event.ID)
		notes["event_id"] = strconv.FormatUint(uint64(event.ID), 10)
	case domain.PurposeSpecialFund:
		prefix = "SWF-"
	}

	return s.createOrder(ctx, user, purpose, input.Amount, prefix, notes)
}

func (s *PaymentService) createOrder(ctx context.Context, user *models.User, purpose domain.Purpose, amount float64, receiptPrefix string, notes map[string]string) (*OrderResponse, error) {
	if notes == nil {
		notes = map[string]string{}
	}
	notes["user_id"] = strconv.FormatUint(uint64(user.ID), 10)
	notes["purpose"] = string(purpose)

	ctx, cancel := context.WithTimeout(ctx, orderTimeout)
	defer cancel()

	channel := domain.ChannelFor(purpose)
	currency := s.cfg.Membership.Currency
	order, err := s.gateway.CreateOrder(ctx, channel, domain.ToMinor(amount), currency, receiptID(receiptPrefix), notes)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Payment order created: %s (%s, user %d, %.2f %s)", order.ID, purpose, user.ID, amount, currency)
	return &OrderResponse{
		OrderID:  order.ID,
		Amount:   amount,
		Currency: currency,
		KeyID:    order.KeyID,
	}, nil
}

// receiptID returns prefix followed by 8 random hex characters
func receiptID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ============================================================
// Verification
// ============================================================

// VerifyMembership verifies a membership fee payment, records it and
// promotes the user to member in one transaction
func (s *PaymentService) VerifyMembership(ctx context.Context, userID uint, input *VerifyPaymentInput) (*MembershipResult, error) {
	// 1. Guards before touching the gateway
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.membership.CanPayFee(user); err != nil {
		return nil, err
	}

	// 2. Verify signature and amount
	payment, err := s.verified(ctx, user.ID, domain.PurposeMembershipFee, input)
	if err != nil {
		return nil, err
	}

	// 3. Record payment and promote atomically
	sabhasadID, err := s.membership.Activate(ctx, user.ID, payment)
	if err != nil {
		return nil, err
	}

	s.recorded(ctx, payment)
	return &MembershipResult{
		Message:    "Payment successful! Welcome to the community!",
		SabhasadID: sabhasadID,
		Status:     domain.StatusMember,
		Payment:    payment,
	}, nil
}

// VerifyPayment verifies and records a non-membership payment. Event
// donations also add to the event's raised total in the same transaction.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID uint, purpose domain.Purpose, input *VerifyPaymentInput) (*models.Payment, error) {
	if purpose == domain.PurposeMembershipFee {
		return nil, domain.Validation("", "membership payments are verified through the membership endpoint")
	}
	if !purpose.Valid() {
		return nil, domain.Validation("", "unknown payment purpose")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if purpose == domain.PurposeEventDonation {
		if _, err := s.getEvent(ctx, input.EventID); err != nil {
			return nil, err
		}
	}

	payment, err := s.verified(ctx, user.ID, purpose, input)
	if err != nil {
		return nil, err
	}
	if purpose == domain.PurposeEventDonation {
		payment.EventID = &input.EventID
	}

	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		if err := tx.Payments().Create(ctx, payment); err != nil {
			if repositories.IsDuplicateKey(err) {
				return domain.ErrDuplicateTransaction
			}
			return err
		}
		if payment.EventID != nil {
			if err := tx.Events().AddRaised(ctx, *payment.EventID, payment.Amount); err != nil {
				if repositories.IsNotFound(err) {
					return domain.ErrEventNotFound
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorded(ctx, payment)
	return payment, nil
}

// verified checks the gateway signature, and the order amount when
// configured, and builds the payment to record
func (s *PaymentService) verified(ctx context.Context, userID uint, purpose domain.Purpose, input *VerifyPaymentInput) (*models.Payment, error) {
	channel := domain.ChannelFor(purpose)

	if !s.gateway.VerifySignature(channel, input.OrderID, input.PaymentID, input.Signature) {
		s.metrics.PaymentVerifyFailed.WithLabelValues("signature").Inc()
		log.Printf("⚠️ Payment signature rejected: order %s payment %s (user %d)", input.OrderID, input.PaymentID, userID)
		return nil, domain.ErrPaymentVerificationFailed
	}

	if input.Amount <= 0 {
		return nil, domain.Validation("", "amount must be positive")
	}

	if s.cfg.Razorpay.VerifyOrderAmount {
		fetchCtx, cancel := context.WithTimeout(ctx, orderTimeout)
		amount, err := s.gateway.FetchOrderAmount(fetchCtx, channel, input.OrderID)
		cancel()
		if err != nil {
			return nil, err
		}
		if amount != domain.ToMinor(input.Amount) {
			s.metrics.PaymentVerifyFailed.WithLabelValues("amount").Inc()
			log.Printf("⚠️ Payment amount mismatch: order %s holds %d, client claimed %.2f", input.OrderID, amount, input.Amount)
			return nil, domain.ErrAmountMismatch
		}
	}

	return &models.Payment{
		UserID:         userID,
		Amount:         input.Amount,
		Currency:       s.cfg.Membership.Currency,
		Purpose:        purpose,
		TransactionRef: input.PaymentID,
		OrderID:        input.OrderID,
		Status:         domain.PaymentStatusCompleted,
	}, nil
}

func (s *PaymentService) recorded(ctx context.Context, payment *models.Payment) {
	purpose := string(payment.Purpose)
	s.metrics.PaymentsRecorded.WithLabelValues(purpose).Inc()
	s.metrics.PaymentAmount.WithLabelValues(purpose).Add(payment.Amount)
	publishEvent(ctx, s.events, messaging.KeyPaymentRecorded, payment)
	log.Printf("✅ Payment recorded: %s %.2f %s (%s, user %d)", payment.TransactionRef, payment.Amount, payment.Currency, purpose, payment.UserID)
}

// ============================================================
// Reporting
// ============================================================

// History lists the caller's payments; admins see everyone's
func (s *PaymentService) History(ctx context.Context, userID uint, isAdmin bool, offset, limit int) (*HistoryOutput, error) {
	if isAdmin {
		payments, total, err := s.store.Payments().List(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		return &HistoryOutput{Payments: payments, Total: total}, nil
	}

	payments, err := s.store.Payments().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Payments: payments, Total: int64(len(payments))}, nil
}

// Stats aggregates the whole ledger
func (s *PaymentService) Stats(ctx context.Context) (*repositories.PaymentStats, error) {
	return s.store.Payments().Stats(ctx)
}

func (s *PaymentService) getUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *PaymentService) getEvent(ctx context.Context, eventID uint) (*models.DonationEvent, error) {
	if eventID == 0 {
		return nil, domain.Validation("", "event_id is required")
	}
	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}
