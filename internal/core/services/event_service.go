package services

import (
	"context"
	"log"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
)

// EventService manages donation events
type EventService struct {
	store repositories.Store
}

// NewEventService creates a new donation event service
func NewEventService(store repositories.Store) *EventService {
	return &EventService{store: store}
}

// CreateEventInput represents create event input
type CreateEventInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Goal        float64 `json:"goal"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

// List lists donation events, newest first
func (s *EventService) List(ctx context.Context) ([]*models.DonationEvent, error) {
	return s.store.Events().List(ctx)
}

// Get returns one donation event
func (s *EventService) Get(ctx context.Context, id uint) (*models.DonationEvent, error) {
	event, err := s.store.Events().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// Create creates a donation event
func (s *EventService) Create(ctx context.Context, input *CreateEventInput) (*models.DonationEvent, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Validation("", "title is required")
	}
	if input.Goal < 0 {
		return nil, domain.Validation("", "goal cannot be negative")
	}

	event := &models.DonationEvent{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Goal:        input.Goal,
		Image:       strings.TrimSpace(input.Image),
		Category:    strings.TrimSpace(input.Category),
	}
	if err := s.store.Events().Create(ctx, event); err != nil {
		return nil, err
	}

	log.Printf("✅ Donation event created: %s", event.Title)
	return event, nil
}
