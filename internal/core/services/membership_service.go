package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/metrics"
)

// DefaultApproveComment is stored when an admin approves without a comment
const DefaultApproveComment = "Application approved"

// maxAllocationAttempts bounds retries after a sabhasad ID collision
const maxAllocationAttempts = 5

// errSabhasadTaken marks a collision on the unique sabhasad_id index
var errSabhasadTaken = errors.New("sabhasad id already allocated")

// MembershipService runs the pending -> approved -> member lifecycle
type MembershipService struct {
	store     repositories.Store
	allocator *SabhasadAllocator
	events    EventPublisher
	metrics   *metrics.Metrics
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	store repositories.Store,
	allocator *SabhasadAllocator,
	events EventPublisher,
	m *metrics.Metrics,
) *MembershipService {
	return &MembershipService{
		store:     store,
		allocator: allocator,
		events:    events,
		metrics:   m,
	}
}

// ApplyInput represents a membership application
type ApplyInput struct {
	VillageID   uint       `json:"village_id" validate:"required"`
	Address     string     `json:"address"`
	Profession  string     `json:"profession"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// MemberEvent is published on membership transitions
type MemberEvent struct {
	UserID     uint          `json:"user_id"`
	Email      string        `json:"email"`
	Status     domain.Status `json:"status"`
	SabhasadID string        `json:"sabhasad_id,omitempty"`
	Comment    string        `json:"comment,omitempty"`
	At         time.Time     `json:"at"`
}

// Apply records an application and puts the user back into pending
func (s *MembershipService) Apply(ctx context.Context, userID uint, input *ApplyInput) (*models.UserResponse, error) {
	users := s.store.Users()

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if user.Status.IsApprovedOrMember() {
		return nil, domain.ErrAlreadyApproved
	}

	// Verify village exists
	if input.VillageID == 0 {
		return nil, domain.Validation("", "village is required")
	}
	if _, err := s.store.Villages().GetByID(ctx, input.VillageID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrVillageNotFound
		}
		return nil, err
	}

	user.VillageID = &input.VillageID
	user.Village = nil
	user.Address = strings.TrimSpace(input.Address)
	user.Profession = strings.TrimSpace(input.Profession)
	user.DateOfBirth = input.DateOfBirth
	user.Status = domain.StatusPending

	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Membership application submitted: user %d", user.ID)
	return s.reload(ctx, user.ID)
}

// ListPending lists users awaiting a decision
func (s *MembershipService) ListPending(ctx context.Context) ([]*models.UserResponse, error) {
	users, _, err := s.store.Users().List(ctx, repositories.UserFilter{
		Statuses: []domain.Status{domain.StatusPending},
	}, 0, -1)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

// Approve moves a pending user to approved
func (s *MembershipService) Approve(ctx context.Context, userID uint, comment string) (*models.UserResponse, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = DefaultApproveComment
	}

	ok, err := s.store.Users().Approve(ctx, userID, comment)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing user from one in the wrong state
		if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
			if repositories.IsNotFound(err) {
				return nil, domain.ErrUserNotFound
			}
			return nil, err
		}
		return nil, domain.ErrNotPending
	}

	user, err := s.reload(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipTransition.WithLabelValues(string(domain.StatusApproved)).Inc()
	s.publish(ctx, messaging.KeyMemberApproved, MemberEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Status:  domain.StatusApproved,
		Comment: comment,
		At:      time.Now().UTC(),
	})
	log.Printf("✅ Member approved: user %d", userID)
	return user, nil
}

// Reject deletes a pending application. A user that is missing or no
// longer pending yields NotFound.
func (s *MembershipService) Reject(ctx context.Context, userID uint) error {
	ok, err := s.store.Users().DeletePending(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	s.metrics.MembershipTransition.WithLabelValues(string(domain.StatusRejected)).Inc()
	s.publish(ctx, messaging.KeyMemberRejected, MemberEvent{
		UserID: userID,
		Status: domain.StatusRejected,
		At:     time.Now().UTC(),
	})
	log.Printf("✅ Application rejected and removed: user %d", userID)
	return nil
}

// CanPayFee checks that user may start a membership payment
func (s *MembershipService) CanPayFee(user *models.User) error {
	if user.SabhasadID != nil {
		return domain.ErrAlreadyMember
	}
	if user.Status != domain.StatusApproved {
		return domain.ErrNotApproved
	}
	return nil
}

// Activate records a verified membership payment and promotes the user
// in one transaction. A collision on the sabhasad ID reruns the whole
// transaction with a freshly allocated ID.
func (s *MembershipService) Activate(ctx context.Context, userID uint, payment *models.Payment) (string, error) {
	var (
		sabhasadID string
		email      string
	)

	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		err := s.store.Transaction(ctx, func(tx repositories.Store) error {
			user, err := tx.Users().GetByID(ctx, userID)
			if err != nil {
				if repositories.IsNotFound(err) {
					return domain.ErrUserNotFound
				}
				return err
			}
			if err := s.CanPayFee(user); err != nil {
				return err
			}

			id, err := s.allocator.Next(ctx, tx.Users())
			if err != nil {
				return err
			}

			if err := tx.Payments().Create(ctx, payment); err != nil {
				if repositories.IsDuplicateKey(err) {
					return domain.ErrDuplicateTransaction
				}
				return err
			}

			ok, err := tx.Users().Promote(ctx, userID, id)
			if err != nil {
				if repositories.IsDuplicateKey(err) {
					return errSabhasadTaken
				}
				return err
			}
			if !ok {
				return domain.ErrAlreadyMember
			}

			sabhasadID = id
			email = user.Email
			return nil
		})

		if errors.Is(err, errSabhasadTaken) {
			log.Printf("⚠️ Sabhasad ID collision for user %d (attempt %d), retrying", userID, attempt)
			s.metrics.SabhasadRetries.Inc()
			payment.ID = 0
			payment.CreatedAt = time.Time{}
			continue
		}
		if err != nil {
			return "", err
		}

		s.metrics.MembershipTransition.WithLabelValues(string(domain.StatusMember)).Inc()
		s.publish(ctx, messaging.KeyMemberActivated, MemberEvent{
			UserID:     userID,
			Email:      email,
			Status:     domain.StatusMember,
			SabhasadID: sabhasadID,
			At:         time.Now().UTC(),
		})
		log.Printf("✅ Member activated: user %d -> %s", userID, sabhasadID)
		return sabhasadID, nil
	}

	return "", fmt.Errorf("allocate sabhasad id for user %d: gave up after %d attempts", userID, maxAllocationAttempts)
}

func (s *MembershipService) reload(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *MembershipService) publish(ctx context.Context, key string, v interface{}) {
	publishEvent(ctx, s.events, key, v)
}

// publishEvent publishes v and only logs failures
func publishEvent(ctx context.Context, events EventPublisher, key string, v interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, key, v); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", key, err)
	}
}

func toResponses(users []*models.User) []*models.UserResponse {
	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out
}
