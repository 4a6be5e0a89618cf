package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"village-sabha/internal/adapters/http/middleware"
	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/otpstore"
	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/config"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/metrics"
	"village-sabha/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const goodSignature = "good"

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, channel domain.Channel, amountMinor int64, currency, receipt string, _ map[string]string) (*domain.Order, error) {
	return &domain.Order{ID: "order_" + receipt, AmountMinor: amountMinor, Currency: currency, KeyID: "rzp_" + string(channel), Receipt: receipt}, nil
}

func (stubGateway) VerifySignature(_ domain.Channel, _, _, signature string) bool {
	return signature == goodSignature
}

func (stubGateway) FetchOrderAmount(context.Context, domain.Channel, string) (int64, error) {
	return 0, nil
}

func (stubGateway) KeyID(channel domain.Channel) string { return "rzp_" + string(channel) }

type testApp struct {
	app   *fiber.App
	deps  *Dependencies
	store repositories.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testdb.New(t)
	store := repositories.NewStore(db)
	cfg := &config.Config{
		AppMode:    "dev",
		JWT:        config.JWTConfig{Secret: "test-secret", Issuer: "village-sabha", SessionMinutes: 30},
		Cookie:     config.CookieConfig{SameSite: "lax"},
		OTP:        config.OTPConfig{TTL: 5 * time.Minute, Backend: "memory"},
		Membership: config.MembershipConfig{Fee: 500, Currency: "INR", SabhasadPrefix: "SAB"},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	events := &messaging.Recorder{}
	creds := services.NewCredentialService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionTTL()).WithCost(bcrypt.MinCost)
	notifier := services.NewNotificationService(nil).WithConsole(io.Discard)
	otp := services.NewOTPService(otpstore.NewMemoryStore(), notifier, cfg.OTP.TTL, m)
	membership := services.NewMembershipService(store, services.NewSabhasadAllocator("SAB"), events, m)

	deps := &Dependencies{
		Config:      cfg,
		DB:          db,
		Gatherer:    reg,
		Credentials: creds,
		Auth:        services.NewAuthService(store, creds, otp),
		Users:       services.NewUserService(store),
		Membership:  membership,
		Payments:    services.NewPaymentService(store, stubGateway{}, membership, events, m, cfg),
		Villages:    services.NewVillageService(store),
		Events:      services.NewEventService(store),
		Family:      services.NewFamilyService(store),
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, deps)
	return &testApp{app: app, deps: deps, store: store}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, apiResponse, *http.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out, resp
}

// addUser inserts a user and returns a session token for it
func (a *testApp) addUser(t *testing.T, email string, role domain.Role, status domain.Status) (*models.User, string) {
	t.Helper()
	hash, err := a.deps.Credentials.Hash("password123")
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: hash, FullName: email, Role: role, Status: status}
	require.NoError(t, a.store.Users().Create(context.Background(), user))

	token, err := a.deps.Credentials.IssueSession(user)
	require.NoError(t, err)
	return user, token
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestApp(t)

	status, body, _ := a.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"email":        "new@example.com",
		"password":     "password123",
		"full_name":    "New User",
		"phone_number": "9000000000",
	})
	require.Equal(t, http.StatusCreated, status, body.Error)

	status, body, _ = a.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"email": "new@example.com", "password": "password123", "full_name": "Again",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.CodeDuplicateEmail, body.Code)

	status, body, resp := a.do(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username": "9000000000", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, body.Error)
	var auth services.AuthResponse
	require.NoError(t, json.Unmarshal(body.Data, &auth))
	assert.Equal(t, "bearer", auth.TokenType)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	status, body, _ = a.do(t, http.MethodGet, "/api/v1/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"status":"pending"`)

	status, body, _ = a.do(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{
		"username": "new@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, domain.CodeInvalidCredentials, body.Code)
}

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)

	status, _, _ := a.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body, _ := a.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, domain.CodeTokenInvalid, body.Code)

	// Tokens of deleted users stop working
	user, token := a.addUser(t, "gone@example.com", domain.RoleUser, domain.StatusPending)
	ok, err := a.store.Users().DeletePending(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	status, _, _ = a.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMembershipFlow(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.addAdmin(t)
	user, userToken := a.addUser(t, "villager@example.com", domain.RoleUser, domain.StatusPending)

	// Pending users cannot pay or browse the directory
	status, _, _ := a.do(t, http.MethodPost, "/api/v1/payments/membership/create-order", userToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _, _ = a.do(t, http.MethodGet, "/api/v1/members", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Only admins approve
	status, _, _ = a.do(t, http.MethodPut, "/api/v1/members/1/approve", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body, _ := a.do(t, http.MethodPut, pathf("/api/v1/members/%d/approve", user.ID), adminToken, fiber.Map{"comment": "Welcome"})
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body, _ = a.do(t, http.MethodPost, "/api/v1/payments/membership/create-order", userToken, nil)
	require.Equal(t, http.StatusOK, status, body.Error)
	var order services.OrderResponse
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Equal(t, 500.0, order.Amount)

	verify := fiber.Map{
		"razorpay_order_id":   order.OrderID,
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "forged",
		"amount":              500,
	}
	status, body, _ = a.do(t, http.MethodPost, "/api/v1/payments/membership/verify", userToken, verify)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.CodePaymentVerificationFailed, body.Code)

	verify["razorpay_signature"] = goodSignature
	status, body, _ = a.do(t, http.MethodPost, "/api/v1/payments/membership/verify", userToken, verify)
	require.Equal(t, http.StatusOK, status, body.Error)
	var result services.MembershipResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, "SAB-0001", result.SabhasadID)

	verify["razorpay_payment_id"] = "pay_456"
	status, body, _ = a.do(t, http.MethodPost, "/api/v1/payments/membership/verify", userToken, verify)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, domain.CodeAlreadyMember, body.Code)

	// The member can now log in with the sabhasad ID
	status, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/token", "", fiber.Map{"username": "SAB-0001", "password": "password123"})
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = a.do(t, http.MethodGet, "/api/v1/payments/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body, _ = a.do(t, http.MethodGet, "/api/v1/payments/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"total_collection":500`)
}

func TestRejectRemovesApplication(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.addAdmin(t)
	user, _ := a.addUser(t, "reject@example.com", domain.RoleUser, domain.StatusPending)

	status, _, _ := a.do(t, http.MethodPut, pathf("/api/v1/members/%d/reject", user.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := a.do(t, http.MethodPut, pathf("/api/v1/members/%d/reject", user.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.KindNotFound), body.Code)
}

func TestVillages(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.addAdmin(t)
	_, userToken := a.addUser(t, "user@example.com", domain.RoleUser, domain.StatusApproved)

	status, _, _ := a.do(t, http.MethodPost, "/api/v1/villages", userToken, fiber.Map{"name": "Vihar"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body, _ := a.do(t, http.MethodPost, "/api/v1/villages", adminToken, fiber.Map{"name": "Vihar", "district": "Mahesana"})
	require.Equal(t, http.StatusCreated, status, body.Error)

	status, body, resp := a.do(t, http.MethodGet, "/api/v1/villages", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"member_count":0`)
	assert.Equal(t, "public, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestEventDonation(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.addAdmin(t)
	_, userToken := a.addUser(t, "donor@example.com", domain.RoleUser, domain.StatusPending)

	status, body, _ := a.do(t, http.MethodPost, "/api/v1/events", adminToken, fiber.Map{"title": "Temple", "goal": 10000})
	require.Equal(t, http.StatusCreated, status, body.Error)
	var event models.DonationEvent
	require.NoError(t, json.Unmarshal(body.Data, &event))

	status, body, _ = a.do(t, http.MethodPost, pathf("/api/v1/events/%d/donate", event.ID), userToken, fiber.Map{"amount": 250})
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Contains(t, string(body.Data), `"event_title":"Temple"`)

	status, body, _ = a.do(t, http.MethodPost, pathf("/api/v1/events/%d/verify-donation", event.ID), userToken, fiber.Map{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_don",
		"razorpay_signature":  goodSignature,
		"amount":              250,
	})
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Contains(t, string(body.Data), `"new_total":250`)

	status, _, _ = a.do(t, http.MethodPost, "/api/v1/events/999/donate", userToken, fiber.Map{"amount": 250})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFamilyRoutes(t *testing.T) {
	a := newTestApp(t)
	_, token := a.addUser(t, "family@example.com", domain.RoleUser, domain.StatusMember)
	_, otherToken := a.addUser(t, "other@example.com", domain.RoleUser, domain.StatusMember)

	status, body, _ := a.do(t, http.MethodPost, "/api/v1/family", token, fiber.Map{"name": "Father", "relation": "Father"})
	require.Equal(t, http.StatusCreated, status, body.Error)
	var member models.FamilyMember
	require.NoError(t, json.Unmarshal(body.Data, &member))

	status, body, _ = a.do(t, http.MethodGet, "/api/v1/family/tree", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"relation":"Self"`)

	status, _, _ = a.do(t, http.MethodDelete, pathf("/api/v1/family/%d", member.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _, _ = a.do(t, http.MethodDelete, pathf("/api/v1/family/%d", member.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func (a *testApp) addAdmin(t *testing.T) (*models.User, string) {
	return a.addUser(t, "admin@example.com", domain.RoleAdmin, domain.StatusApproved)
}

func pathf(format string, id uint) string {
	return fmt.Sprintf(format, id)
}
