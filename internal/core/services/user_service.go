package services

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/pagination"
)

// UserService serves the member directory
type UserService struct {
	store repositories.Store
}

// NewUserService creates a new user service
func NewUserService(store repositories.Store) *UserService {
	return &UserService{store: store}
}

// ListMembersInput represents list members input
type ListMembersInput struct {
	Params    *pagination.Params
	VillageID *uint
}

// ListMembersOutput represents list members output
type ListMembersOutput struct {
	Members []*models.UserResponse `json:"members"`
	Meta    *pagination.Meta       `json:"meta"`
}

// directoryStatuses are the statuses listed in the directory
var directoryStatuses = []domain.Status{domain.StatusApproved, domain.StatusMember}

// ListMembers lists approved users and members, excluding admins
func (s *UserService) ListMembers(ctx context.Context, caller *models.User, input *ListMembersInput) (*ListMembersOutput, error) {
	if err := canViewDirectory(caller); err != nil {
		return nil, err
	}

	params := input.Params
	if params == nil {
		params = pagination.New(1, pagination.DefaultLimit)
	}

	users, total, err := s.store.Users().List(ctx, repositories.UserFilter{
		Statuses:    directoryStatuses,
		ExcludeRole: domain.RoleAdmin,
		VillageID:   input.VillageID,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	return &ListMembersOutput{
		Members: toResponses(users),
		Meta:    pagination.GetMeta(params, total),
	}, nil
}

// GetMember returns an approved user or member by ID
func (s *UserService) GetMember(ctx context.Context, caller *models.User, id uint) (*models.UserResponse, error) {
	if err := canViewDirectory(caller); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if !user.Status.IsApprovedOrMember() {
		return nil, domain.ErrMemberNotFound
	}
	return user.ToResponse(), nil
}

// canViewDirectory allows approved users, members and admins
func canViewDirectory(caller *models.User) error {
	if caller == nil {
		return domain.ErrApprovedRequired
	}
	if caller.IsAdmin() || caller.Status.IsApprovedOrMember() {
		return nil
	}
	return domain.ErrApprovedRequired
}
