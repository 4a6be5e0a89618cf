package services

import (
	"context"
	"log"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
)

// FamilyService manages the family tree of a user
type FamilyService struct {
	store repositories.Store
}

// NewFamilyService creates a new family service
func NewFamilyService(store repositories.Store) *FamilyService {
	return &FamilyService{store: store}
}

// FamilyMemberInput represents add/update family member input
type FamilyMemberInput struct {
	Name             string `json:"name"`
	Relation         string `json:"relation"`
	ParentID         *uint  `json:"parent_id"`
	Gender           string `json:"gender"`
	Age              *int   `json:"age"`
	Profession       string `json:"profession"`
	LinkedSabhasadID string `json:"linked_sabhasad_id"`
}

// TreeNode is a family member with its descendants
type TreeNode struct {
	ID           uint        `json:"id"`
	Name         string      `json:"name"`
	Relation     string      `json:"relation"`
	Gender       string      `json:"gender"`
	Age          *int        `json:"age"`
	Profession   string      `json:"profession"`
	LinkedUserID *uint       `json:"linked_user_id"`
	Children     []*TreeNode `json:"children"`
}

// List lists the caller's family members
func (s *FamilyService) List(ctx context.Context, ownerID uint) ([]*models.FamilyMember, error) {
	return s.store.Family().ListByOwner(ctx, ownerID)
}

// Create adds a family member to the caller's tree
func (s *FamilyService) Create(ctx context.Context, ownerID uint, input *FamilyMemberInput) (*models.FamilyMember, error) {
	member := &models.FamilyMember{UserID: ownerID}
	if err := s.apply(ctx, member, input); err != nil {
		return nil, err
	}

	if err := s.store.Family().Create(ctx, member); err != nil {
		return nil, err
	}

	log.Printf("✅ Family member added: %s (%s) for user %d", member.Name, member.Relation, ownerID)
	return member, nil
}

// Update replaces one of the caller's family members
func (s *FamilyService) Update(ctx context.Context, ownerID, id uint, input *FamilyMemberInput) (*models.FamilyMember, error) {
	member, err := s.store.Family().GetByID(ctx, ownerID, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrFamilyMemberNotFound
		}
		return nil, err
	}

	if input.ParentID != nil && *input.ParentID == id {
		return nil, domain.Validation("", "a family member cannot be its own parent")
	}
	if err := s.apply(ctx, member, input); err != nil {
		return nil, err
	}

	if err := s.store.Family().Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a family member. Owners delete their own members and
// admins delete any. Children move up to the root.
func (s *FamilyService) Delete(ctx context.Context, caller *models.User, id uint) error {
	member, err := s.store.Family().Find(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.ErrFamilyMemberNotFound
		}
		return err
	}
	if member.UserID != caller.ID && !caller.IsAdmin() {
		return domain.Forbidden("not authorized to delete this family member")
	}

	if err := s.store.Family().Delete(ctx, member.UserID, id); err != nil {
		if repositories.IsNotFound(err) {
			return domain.ErrFamilyMemberNotFound
		}
		return err
	}

	log.Printf("✅ Family member deleted: %d", id)
	return nil
}

// Tree returns owner's family as a tree rooted at the owner
func (s *FamilyService) Tree(ctx context.Context, ownerID uint) (*TreeNode, error) {
	owner, err := s.store.Users().GetByID(ctx, ownerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return s.tree(ctx, owner)
}

// TreeOf returns another user's tree. Only members have a public tree.
func (s *FamilyService) TreeOf(ctx context.Context, userID uint) (*TreeNode, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if user.Status != domain.StatusMember {
		return nil, domain.ErrMemberNotFound
	}
	return s.tree(ctx, user)
}

func (s *FamilyService) tree(ctx context.Context, owner *models.User) (*TreeNode, error) {
	members, err := s.store.Family().ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	return BuildTree(owner, members), nil
}

// BuildTree nests members under their parents. Members whose parent is
// missing hang off the root, which stands for the owner.
func BuildTree(owner *models.User, members []*models.FamilyMember) *TreeNode {
	ownerID := owner.ID
	root := &TreeNode{
		ID:           0,
		Name:         owner.FullName,
		Relation:     "Self",
		Gender:       "male",
		Profession:   owner.Profession,
		LinkedUserID: &ownerID,
		Children:     []*TreeNode{},
	}

	nodes := make(map[uint]*TreeNode, len(members))
	for _, m := range members {
		nodes[m.ID] = &TreeNode{
			ID:           m.ID,
			Name:         m.Name,
			Relation:     m.Relation,
			Gender:       m.Gender,
			Age:          m.Age,
			Profession:   m.Profession,
			LinkedUserID: m.LinkedUserID,
			Children:     []*TreeNode{},
		}
	}

	for _, m := range members {
		node := nodes[m.ID]
		if m.ParentID != nil {
			if parent, ok := nodes[*m.ParentID]; ok && *m.ParentID != m.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		root.Children = append(root.Children, node)
	}

	return root
}

// apply validates input and copies it onto member
func (s *FamilyService) apply(ctx context.Context, member *models.FamilyMember, input *FamilyMemberInput) error {
	// 1. Validate input
	name := strings.TrimSpace(input.Name)
	relation := strings.TrimSpace(input.Relation)
	if name == "" || relation == "" {
		return domain.Validation("", "name and relation are required")
	}
	if input.Age != nil && (*input.Age < 0 || *input.Age > 150) {
		return domain.Validation("", "age must be between 0 and 150")
	}
	gender := strings.ToLower(strings.TrimSpace(input.Gender))
	switch gender {
	case "":
		gender = "male"
	case "male", "female", "other":
	default:
		return domain.Validation("", "gender must be male, female or other")
	}

	// 2. Parent must be in the same tree
	if input.ParentID != nil && *input.ParentID != 0 {
		if _, err := s.store.Family().GetByID(ctx, member.UserID, *input.ParentID); err != nil {
			if repositories.IsNotFound(err) {
				return domain.NotFound("parent member not found")
			}
			return err
		}
		member.ParentID = input.ParentID
	} else {
		member.ParentID = nil
	}

	// 3. Resolve linked sabhasad
	member.LinkedUserID = nil
	if sabhasadID := strings.TrimSpace(input.LinkedSabhasadID); sabhasadID != "" {
		users, _, err := s.store.Users().List(ctx, repositories.UserFilter{SabhasadID: sabhasadID}, 0, 1)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return domain.NotFound("linked sabhasad ID not found")
		}
		member.LinkedUserID = &users[0].ID
	}

	member.Name = name
	member.Relation = relation
	member.Gender = gender
	member.Age = input.Age
	member.Profession = strings.TrimSpace(input.Profession)
	return nil
}
