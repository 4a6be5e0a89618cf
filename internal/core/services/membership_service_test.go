package services

import (
	"context"
	"errors"
	"testing"

	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	village := f.addVillage(t, "Devrasan")
	user := f.addUser(t, "apply@example.com", domain.StatusPending)

	resp, err := f.membership.Apply(ctx, user.ID, &ApplyInput{VillageID: village.ID, Address: " Main road ", Profession: "Farmer"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, "Main road", resp.Address)
	assert.Equal(t, "Devrasan", resp.VillageName)

	_, err = f.membership.Apply(ctx, user.ID, &ApplyInput{VillageID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	approved := f.addUser(t, "approved@example.com", domain.StatusApproved)
	_, err = f.membership.Apply(ctx, approved.ID, &ApplyInput{VillageID: village.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMembershipApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "pending@example.com", domain.StatusPending)

	resp, err := f.membership.Approve(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resp.Status)
	assert.Equal(t, DefaultApproveComment, resp.AdminComment)
	assert.Empty(t, resp.SabhasadID)
	assert.Equal(t, []string{messaging.KeyMemberApproved}, f.events.Keys())

	// Approving twice is a state conflict, a missing user is NotFound
	_, err = f.membership.Approve(ctx, user.ID, "again")
	assert.ErrorIs(t, err, domain.ErrNotPending)
	_, err = f.membership.Approve(ctx, 999, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMembershipRejectDeletesApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "reject@example.com", domain.StatusPending)

	require.NoError(t, f.membership.Reject(ctx, user.ID))

	_, err := f.store.Users().GetByID(ctx, user.ID)
	assert.True(t, repositories.IsNotFound(err))

	// The record is gone, so a second reject is NotFound
	assert.ErrorIs(t, f.membership.Reject(ctx, user.ID), domain.ErrNotFound)

	approved := f.addUser(t, "approved@example.com", domain.StatusApproved)
	assert.ErrorIs(t, f.membership.Reject(ctx, approved.ID), domain.ErrNotFound)
	assert.Equal(t, domain.StatusApproved, f.reload(t, approved.ID).Status)
}

func TestMembershipListPending(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "a@example.com", domain.StatusPending)
	f.addUser(t, "b@example.com", domain.StatusApproved)
	f.addUser(t, "c@example.com", domain.StatusPending)

	pending, err := f.membership.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a@example.com", pending[0].Email)
	assert.Equal(t, "c@example.com", pending[1].Email)
}

func TestPaymentVerificationActivatesMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "member@example.com", domain.StatusApproved)

	result, err := f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)
	assert.Equal(t, "SAB-0001", result.SabhasadID)
	assert.Equal(t, domain.StatusMember, result.Status)

	got := f.reload(t, user.ID)
	assert.Equal(t, domain.StatusMember, got.Status)
	require.NotNil(t, got.SabhasadID)
	assert.Equal(t, "SAB-0001", *got.SabhasadID)
	assert.Equal(t, int64(1), f.countPayments(t, user.ID, domain.PurposeMembershipFee))
	assert.Equal(t, []string{messaging.KeyMemberActivated, messaging.KeyPaymentRecorded}, f.events.Keys())
}

func TestTamperedSignatureRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "tamper@example.com", domain.StatusApproved)

	_, err := f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_1", "forged"))
	assert.ErrorIs(t, err, domain.ErrPaymentVerificationFailed)
	assert.ErrorIs(t, err, domain.ErrValidation)

	got := f.reload(t, user.ID)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Nil(t, got.SabhasadID)
	assert.Zero(t, f.countPayments(t, user.ID, ""))
	assert.Empty(t, f.events.Keys())
}

func TestSecondMembershipPaymentIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "twice@example.com", domain.StatusApproved)

	_, err := f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)

	_, err = f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_2", validSignature))
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got := f.reload(t, user.ID)
	assert.Equal(t, "SAB-0001", *got.SabhasadID)
	assert.Equal(t, int64(1), f.countPayments(t, user.ID, domain.PurposeMembershipFee))
}

func TestMembershipPaymentRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "pending@example.com", domain.StatusPending)

	_, err := f.payments.CreateMembershipOrder(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	_, err = f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_1", validSignature))
	assert.ErrorIs(t, err, domain.ErrNotApproved)
	assert.Zero(t, f.countPayments(t, user.ID, ""))
}

func TestSabhasadIDsAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	want := []string{"SAB-0001", "SAB-0002", "SAB-0003"}
	for i, id := range want {
		user := f.addUser(t, string(rune('a'+i))+"@example.com", domain.StatusApproved)
		result, err := f.payments.VerifyMembership(ctx, user.ID, membershipPayment("pay_"+id, validSignature))
		require.NoError(t, err)
		assert.Equal(t, id, result.SabhasadID)
	}
}

func TestSabhasadCollisionRetries(t *testing.T) {
	misses := 1
	store := staleStore{Store: repositories.NewStore(testdb.New(t)), misses: &misses}
	f := newFixtureWithStore(t, store)
	ctx := context.Background()

	first := f.addUser(t, "first@example.com", domain.StatusApproved)
	second := f.addUser(t, "second@example.com", domain.StatusApproved)

	misses = 0
	_, err := f.payments.VerifyMembership(ctx, first.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)

	// The allocator now misses SAB-0001 once and collides on it
	misses = 1
	result, err := f.payments.VerifyMembership(ctx, second.ID, membershipPayment("pay_2", validSignature))
	require.NoError(t, err)
	assert.Equal(t, "SAB-0002", result.SabhasadID)
	assert.Equal(t, int64(1), f.countPayments(t, second.ID, domain.PurposeMembershipFee))
}

func TestDuplicateTransactionRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addUser(t, "first@example.com", domain.StatusApproved)
	second := f.addUser(t, "second@example.com", domain.StatusApproved)

	_, err := f.payments.VerifyMembership(ctx, first.ID, membershipPayment("pay_same", validSignature))
	require.NoError(t, err)

	// Replaying a gateway payment id must not promote anyone
	_, err = f.payments.VerifyMembership(ctx, second.ID, membershipPayment("pay_same", validSignature))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)
	assert.Nil(t, f.reload(t, second.ID).SabhasadID)
}

// Every user with a sabhasad ID is a member, and every member has one
func TestSabhasadIDSetIffMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.addUser(t, "p@example.com", domain.StatusPending)
	approved := f.addUser(t, "a@example.com", domain.StatusApproved)
	paid := f.addUser(t, "m@example.com", domain.StatusApproved)
	_, err := f.membership.Approve(ctx, pending.ID, "ok")
	require.NoError(t, err)
	_, err = f.payments.VerifyMembership(ctx, paid.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)
	_, err = f.payments.VerifyMembership(ctx, approved.ID, membershipPayment("pay_2", "bad"))
	require.Error(t, err)

	users, _, err := f.store.Users().List(ctx, repositories.UserFilter{}, 0, -1)
	require.NoError(t, err)
	for _, u := range users {
		assert.Equal(t, u.Status == domain.StatusMember, u.SabhasadID != nil, "user %s", u.Email)
	}
}

func TestPublishFailureDoesNotFailActivation(t *testing.T) {
	f := newFixture(t)
	f.membership.events = failingPublisher{}
	user := f.addUser(t, "x@example.com", domain.StatusApproved)

	_, err := f.payments.VerifyMembership(context.Background(), user.ID, membershipPayment("pay_1", validSignature))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMember, f.reload(t, user.ID).Status)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, interface{}) error {
	return errors.New("broker down")
}
