package services

import (
	"context"
	"testing"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// ============================================================
// Directory
// ============================================================

func TestListMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	village := f.addVillage(t, "Kherva")

	caller := f.addUser(t, "caller@example.com", domain.StatusApproved)
	f.addUser(t, "pending@example.com", domain.StatusPending)
	member := f.addUser(t, "member@example.com", domain.StatusMember)
	member.VillageID = &village.ID
	require.NoError(t, f.store.Users().Update(ctx, member))
	admin := f.addAdmin(t, "admin@example.com")

	out, err := f.users.ListMembers(ctx, caller, &ListMembersInput{Params: pagination.New(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Meta.Total)
	for _, m := range out.Members {
		assert.NotEqual(t, admin.ID, m.ID)
		assert.True(t, m.Status.IsApprovedOrMember())
	}

	out, err = f.users.ListMembers(ctx, admin, &ListMembersInput{VillageID: &village.ID})
	require.NoError(t, err)
	require.Len(t, out.Members, 1)
	assert.Equal(t, "Kherva", out.Members[0].VillageName)

	pending := f.addUser(t, "pending2@example.com", domain.StatusPending)
	_, err = f.users.ListMembers(ctx, pending, &ListMembersInput{})
	assert.ErrorIs(t, err, domain.ErrApprovedRequired)
}

func TestGetMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := f.addUser(t, "caller@example.com", domain.StatusMember)
	pending := f.addUser(t, "pending@example.com", domain.StatusPending)

	got, err := f.users.GetMember(ctx, caller, caller.ID)
	require.NoError(t, err)
	assert.Equal(t, caller.Email, got.Email)

	_, err = f.users.GetMember(ctx, caller, pending.ID)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	_, err = f.users.GetMember(ctx, pending, caller.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ============================================================
// Villages
// ============================================================

func TestVillageLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	village, err := f.villages.Create(ctx, &VillageInput{Name: strPtr(" Gozariya "), District: strPtr("Mahesana")})
	require.NoError(t, err)
	assert.Equal(t, "Gozariya", village.Name)

	_, err = f.villages.Create(ctx, &VillageInput{Name: strPtr("Gozariya")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.villages.Create(ctx, &VillageInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	other := f.addVillage(t, "Vihar")
	_, err = f.villages.Update(ctx, other.ID, &VillageInput{Name: strPtr("Gozariya")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Renaming to its own name and changing only the district both work
	updated, err := f.villages.Update(ctx, village.ID, &VillageInput{Name: strPtr("Gozariya"), District: strPtr("Gandhinagar")})
	require.NoError(t, err)
	assert.Equal(t, "Gandhinagar", updated.District)

	_, err = f.villages.Update(ctx, 999, &VillageInput{District: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrVillageNotFound)
}

func TestVillageDeleteInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	village := f.addVillage(t, "Devrasan")
	user := f.addUser(t, "villager@example.com", domain.StatusPending)
	user.VillageID = &village.ID
	require.NoError(t, f.store.Users().Update(ctx, user))

	err := f.villages.Delete(ctx, village.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeVillageInUse, de.Code)
	assert.Contains(t, err.Error(), "1 members")

	villages, err := f.villages.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, villages, 1)
	assert.Equal(t, int64(1), villages[0].MemberCount)

	require.NoError(t, f.membership.Reject(ctx, user.ID))
	require.NoError(t, f.villages.Delete(ctx, village.ID))
	assert.ErrorIs(t, f.villages.Delete(ctx, village.ID), domain.ErrNotFound)
}

// ============================================================
// Donation events
// ============================================================

func TestEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.donations.Create(ctx, &CreateEventInput{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.donations.Create(ctx, &CreateEventInput{Title: "Well", Goal: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	event, err := f.donations.Create(ctx, &CreateEventInput{Title: "School library", Goal: 25000, Category: "education"})
	require.NoError(t, err)
	assert.Zero(t, event.Raised)

	events, err := f.donations.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = f.donations.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

// ============================================================
// Family tree
// ============================================================

func TestFamilyTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@example.com", domain.StatusMember)

	father, err := f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Ramesh", Relation: "Father"})
	require.NoError(t, err)
	assert.Equal(t, "male", father.Gender)

	_, err = f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Kanta", Relation: "Aunt", ParentID: &father.ID, Gender: "Female"})
	require.NoError(t, err)
	_, err = f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Son", Relation: "Son"})
	require.NoError(t, err)

	tree, err := f.family.Tree(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), tree.ID)
	assert.Equal(t, "Self", tree.Relation)
	assert.Equal(t, owner.FullName, tree.Name)
	require.NotNil(t, tree.LinkedUserID)
	assert.Equal(t, owner.ID, *tree.LinkedUserID)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Ramesh", tree.Children[0].Name)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "female", tree.Children[0].Children[0].Gender)

	public, err := f.family.TreeOf(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, public.Children, 2)

	approved := f.addUser(t, "approved@example.com", domain.StatusApproved)
	_, err = f.family.TreeOf(ctx, approved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFamilyMemberValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@example.com", domain.StatusMember)
	other := f.addUser(t, "other@example.com", domain.StatusMember)
	foreign, err := f.family.Create(ctx, other.ID, &FamilyMemberInput{Name: "Foreign", Relation: "Father"})
	require.NoError(t, err)

	age := 200
	tests := []struct {
		name  string
		input FamilyMemberInput
		want  error
	}{
		{"missing name", FamilyMemberInput{Relation: "Son"}, domain.ErrValidation},
		{"bad age", FamilyMemberInput{Name: "A", Relation: "Son", Age: &age}, domain.ErrValidation},
		{"bad gender", FamilyMemberInput{Name: "A", Relation: "Son", Gender: "x"}, domain.ErrValidation},
		{"parent of another user", FamilyMemberInput{Name: "A", Relation: "Son", ParentID: &foreign.ID}, domain.ErrNotFound},
		{"unknown sabhasad", FamilyMemberInput{Name: "A", Relation: "Son", LinkedSabhasadID: "SAB-9999"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := f.family.Create(ctx, owner.ID, &input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFamilyLinkedSabhasad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@example.com", domain.StatusMember)
	cousin := f.addUser(t, "cousin@example.com", domain.StatusApproved)
	_, err := f.payments.VerifyMembership(ctx, cousin.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)

	member, err := f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Cousin", Relation: "Cousin", LinkedSabhasadID: "SAB-0001"})
	require.NoError(t, err)
	require.NotNil(t, member.LinkedUserID)
	assert.Equal(t, cousin.ID, *member.LinkedUserID)

	updated, err := f.family.Update(ctx, owner.ID, member.ID, &FamilyMemberInput{Name: "Cousin", Relation: "Cousin"})
	require.NoError(t, err)
	assert.Nil(t, updated.LinkedUserID)

	_, err = f.family.Update(ctx, owner.ID, member.ID, &FamilyMemberInput{Name: "Cousin", Relation: "Cousin", ParentID: &member.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.family.Update(ctx, cousin.ID, member.ID, &FamilyMemberInput{Name: "x", Relation: "y"})
	assert.ErrorIs(t, err, domain.ErrFamilyMemberNotFound)
}

func TestFamilyDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@example.com", domain.StatusMember)
	stranger := f.addUser(t, "stranger@example.com", domain.StatusMember)
	admin := f.addAdmin(t, "admin@example.com")

	father, err := f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Father", Relation: "Father"})
	require.NoError(t, err)
	child, err := f.family.Create(ctx, owner.ID, &FamilyMemberInput{Name: "Brother", Relation: "Brother", ParentID: &father.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.family.Delete(ctx, stranger, father.ID), domain.ErrForbidden)
	require.NoError(t, f.family.Delete(ctx, owner, father.ID))

	// The child moves up to the root
	tree, err := f.family.Tree(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, child.ID, tree.Children[0].ID)

	require.NoError(t, f.family.Delete(ctx, admin, child.ID))
	assert.ErrorIs(t, f.family.Delete(ctx, owner, child.ID), domain.ErrFamilyMemberNotFound)
}

func TestBuildTreeOrphansBecomeRoots(t *testing.T) {
	missing := uint(77)
	owner := &models.User{ID: 5, FullName: "Owner"}
	tree := BuildTree(owner, []*models.FamilyMember{
		{ID: 1, Name: "Orphan", ParentID: &missing},
		{ID: 2, Name: "Self loop", ParentID: uintPtr(2)},
	})
	assert.Len(t, tree.Children, 2)
	assert.Empty(t, tree.Children[0].Children)
}

func uintPtr(v uint) *uint { return &v }
