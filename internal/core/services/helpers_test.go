package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/otpstore"
	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/config"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/metrics"
	"village-sabha/internal/pkg/testdb"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// validSignature is the only signature fakeGateway accepts
const validSignature = "valid-signature"

// fakeGateway stands in for the payment gateway
type fakeGateway struct {
	mu          sync.Mutex
	orders      []fakeOrder
	orderAmount int64
	failCreate  error
}

type fakeOrder struct {
	Channel     domain.Channel
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

func (g *fakeGateway) CreateOrder(_ context.Context, channel domain.Channel, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate != nil {
		return nil, g.failCreate
	}
	g.orders = append(g.orders, fakeOrder{channel, amountMinor, currency, receipt, notes})
	return &domain.Order{
		ID:          fmt.Sprintf("order_%d", len(g.orders)),
		AmountMinor: amountMinor,
		Currency:    currency,
		KeyID:       g.KeyID(channel),
		Receipt:     receipt,
	}, nil
}

func (g *fakeGateway) VerifySignature(_ domain.Channel, _, _, signature string) bool {
	return signature == validSignature
}

func (g *fakeGateway) FetchOrderAmount(context.Context, domain.Channel, string) (int64, error) {
	return g.orderAmount, nil
}

func (g *fakeGateway) KeyID(channel domain.Channel) string {
	return "rzp_test_" + string(channel)
}

func (g *fakeGateway) lastOrder() fakeOrder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orders[len(g.orders)-1]
}

// fixture wires every service against one in-memory database
type fixture struct {
	store      repositories.Store
	cfg        *config.Config
	gateway    *fakeGateway
	events     *messaging.Recorder
	console    *bytes.Buffer
	otpStore   *otpstore.MemoryStore
	creds      *CredentialService
	otp        *OTPService
	auth       *AuthService
	membership *MembershipService
	payments   *PaymentService
	users      *UserService
	villages   *VillageService
	donations  *EventService
	family     *FamilyService
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: "test-secret", Issuer: "village-sabha", SessionMinutes: 30},
		OTP:     config.OTPConfig{TTL: 5 * time.Minute, Backend: "memory", SweepSchedule: "@every 1m"},
		Membership: config.MembershipConfig{
			Fee:            500,
			Currency:       "INR",
			SabhasadPrefix: "SAB",
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repositories.NewStore(testdb.New(t)))
}

func newFixtureWithStore(t *testing.T, store repositories.Store) *fixture {
	t.Helper()

	f := &fixture{
		store:    store,
		cfg:      testConfig(),
		gateway:  &fakeGateway{},
		events:   &messaging.Recorder{},
		console:  &bytes.Buffer{},
		otpStore: otpstore.NewMemoryStore(),
	}
	m := metrics.New(nil)

	f.creds = NewCredentialService(f.cfg.JWT.Secret, f.cfg.JWT.Issuer, f.cfg.JWT.SessionTTL()).WithCost(bcrypt.MinCost)
	notifier := NewNotificationService(nil).WithConsole(f.console)
	f.otp = NewOTPService(f.otpStore, notifier, f.cfg.OTP.TTL, m)
	f.auth = NewAuthService(store, f.creds, f.otp)
	f.membership = NewMembershipService(store, NewSabhasadAllocator(f.cfg.Membership.SabhasadPrefix), f.events, m)
	f.payments = NewPaymentService(store, f.gateway, f.membership, f.events, m, f.cfg)
	f.users = NewUserService(store)
	f.villages = NewVillageService(store)
	f.donations = NewEventService(store)
	f.family = NewFamilyService(store)
	return f
}

// addUser inserts a user directly in the given status
func (f *fixture) addUser(t *testing.T, email string, status domain.Status) *models.User {
	t.Helper()
	hash, err := f.creds.Hash("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "User " + email,
		Role:         domain.RoleUser,
		Status:       status,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) addAdmin(t *testing.T, email string) *models.User {
	t.Helper()
	user := f.addUser(t, email, domain.StatusApproved)
	user.Role = domain.RoleAdmin
	require.NoError(t, f.store.Users().Update(context.Background(), user))
	return user
}

func (f *fixture) addVillage(t *testing.T, name string) *models.Village {
	t.Helper()
	village := &models.Village{Name: name, District: "Mahesana"}
	require.NoError(t, f.store.Villages().Create(context.Background(), village))
	return village
}

func (f *fixture) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	user, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (f *fixture) countPayments(t *testing.T, userID uint, purpose domain.Purpose) int64 {
	t.Helper()
	n, err := f.store.Payments().CountByUser(context.Background(), userID, purpose)
	require.NoError(t, err)
	return n
}

// membershipPayment is a verify request for the membership fee
func membershipPayment(paymentID, signature string) *VerifyPaymentInput {
	return &VerifyPaymentInput{
		PaymentID: paymentID,
		OrderID:   "order_" + paymentID,
		Signature: signature,
		Amount:    500,
	}
}

// staleStore hides existing sabhasad IDs from the allocator for the
// first misses lookups, forcing a collision on the unique index
type staleStore struct {
	repositories.Store
	misses *int
}

func (s staleStore) Users() repositories.UserRepository {
	return staleUsers{UserRepository: s.Store.Users(), misses: s.misses}
}

func (s staleStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(staleStore{Store: tx, misses: s.misses})
	})
}

type staleUsers struct {
	repositories.UserRepository
	misses *int
}

func (u staleUsers) SabhasadIDs(ctx context.Context, prefix string, limit int) ([]string, error) {
	if *u.misses > 0 {
		*u.misses--
		return nil, nil
	}
	return u.UserRepository.SabhasadIDs(ctx, prefix, limit)
}
