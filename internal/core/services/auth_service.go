package services

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/password"
)

// resetKeyPrefix separates password reset codes from login codes
const resetKeyPrefix = "reset_"

// AuthService handles authentication business logic
type AuthService struct {
	store repositories.Store
	creds *CredentialService
	otp   *OTPService
}

// NewAuthService creates a new auth service
func NewAuthService(
	store repositories.Store,
	creds *CredentialService,
	otp *OTPService,
) *AuthService {
	return &AuthService{
		store: store,
		creds: creds,
		otp:   otp,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone_number"`
	VillageID  *uint  `json:"village_id"`
	Profession string `json:"profession"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	ExpiresIn   int                  `json:"expires_in"`
}

// DuplicateCheck reports which identifiers are already registered
type DuplicateCheck struct {
	EmailExists bool `json:"email_exists"`
	PhoneExists bool `json:"phone_exists"`
}

// OTPRequestResult tells the caller how the code was delivered
type OTPRequestResult struct {
	Message  string          `json:"message"`
	Delivery domain.Delivery `json:"delivery"`
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register registers a new user in pending status
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	users := s.store.Users()

	// 1. Validate input
	email := NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validation("", "a valid email is required")
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.Validation("", "password must be at least 8 characters")
	}
	phone := strings.TrimSpace(input.Phone)

	// 2. Check duplicates
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}
	if phone != "" {
		exists, err = users.ExistsByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicatePhone
		}
	}

	// 3. Check village
	if input.VillageID != nil && *input.VillageID != 0 {
		if _, err := s.store.Villages().GetByID(ctx, *input.VillageID); err != nil {
			if repositories.IsNotFound(err) {
				return nil, domain.ErrVillageNotFound
			}
			return nil, err
		}
	} else {
		input.VillageID = nil
	}

	// 4. Hash password
	hashedPassword, err := s.creds.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 5. Create user
	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(input.FullName),
		Profession:   strings.TrimSpace(input.Profession),
		VillageID:    input.VillageID,
		Role:         domain.RoleUser,
		Status:       domain.StatusPending,
	}
	if phone != "" {
		user.Phone = &phone
	}

	if err := users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if repositories.IsDuplicateKey(err) {
			return nil, domain.Validation("", "email or phone number already registered")
		}
		return nil, err
	}

	log.Printf("✅ User registered: %s (pending)", user.Email)
	return user.ToResponse(), nil
}

// CheckDuplicates reports whether email or phone are taken
func (s *AuthService) CheckDuplicates(ctx context.Context, email, phone string) (*DuplicateCheck, error) {
	result := &DuplicateCheck{}
	var err error

	if email = NormalizeEmail(email); email != "" {
		if result.EmailExists, err = s.store.Users().ExistsByEmail(ctx, email); err != nil {
			return nil, err
		}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		if result.PhoneExists, err = s.store.Users().ExistsByPhone(ctx, phone); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// EmailExists reports whether email is registered
func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.store.Users().ExistsByEmail(ctx, NormalizeEmail(email))
}

// Login authenticates by email, phone or sabhasad ID and password
func (s *AuthService) Login(ctx context.Context, identifier, plain string) (*AuthResponse, error) {
	// 1. Find user by identifier
	user, err := s.store.Users().GetByIdentifier(ctx, normalizeIdentifier(identifier), true)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !s.creds.Verify(plain, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	log.Printf("✅ User logged in: %s", user.Email)
	return s.session(user)
}

// RequestOTP sends a login code to an existing user's email or phone
func (s *AuthService) RequestOTP(ctx context.Context, identifier string) (*OTPRequestResult, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, domain.Validation("", "identifier is required")
	}

	if _, err := s.store.Users().GetByIdentifier(ctx, identifier, false); err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.NotFound("user not found, please register first")
		}
		return nil, err
	}

	return s.sendOTP(ctx, identifier, identifier)
}

// VerifyOTP consumes a login code and issues a session
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string) (*AuthResponse, error) {
	identifier = normalizeIdentifier(identifier)
	if err := s.otp.Verify(ctx, identifier, strings.TrimSpace(code)); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByIdentifier(ctx, identifier, false)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	log.Printf("✅ User logged in with OTP: %s", user.Email)
	return s.session(user)
}

// RequestAdminOTP sends a login code to an admin's email
func (s *AuthService) RequestAdminOTP(ctx context.Context, email string) (*OTPRequestResult, error) {
	email = NormalizeEmail(email)
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}

	return s.sendOTP(ctx, email, email)
}

// VerifyAdminOTP consumes an admin login code. The role is checked again
// since it may have changed after the code was issued.
func (s *AuthService) VerifyAdminOTP(ctx context.Context, email, code string) (*AuthResponse, error) {
	email = NormalizeEmail(email)
	if err := s.otp.Verify(ctx, email, strings.TrimSpace(code)); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrAdminRequired
		}
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}

	log.Printf("✅ Admin logged in with OTP: %s", user.Email)
	return s.session(user)
}

// RequestPasswordReset sends a reset code to a registered email
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*OTPRequestResult, error) {
	email = NormalizeEmail(email)
	exists, err := s.store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("email not registered, please register first")
	}

	return s.sendOTP(ctx, resetKeyPrefix+email, email)
}

// ResetPassword consumes a reset code and replaces the password
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if !password.ValidatePassword(newPassword) {
		return domain.Validation("", "password must be at least 8 characters")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.otp.Verify(ctx, resetKeyPrefix+email, strings.TrimSpace(code)); err != nil {
		return err
	}

	hash, err := s.creds.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	log.Printf("✅ Password reset: %s", email)
	return nil
}

// Me returns the user behind a session
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sendOTP(ctx context.Context, key, address string) (*OTPRequestResult, error) {
	delivery, err := s.otp.Send(ctx, key, address)
	if err != nil {
		return nil, err
	}

	msg := "OTP sent to your email. Please check your inbox."
	if delivery == domain.DeliveryFallback {
		msg = "OTP generated. Check the server console (email not configured)."
	}
	return &OTPRequestResult{Message: msg, Delivery: delivery}, nil
}

func (s *AuthService) session(user *models.User) (*AuthResponse, error) {
	token, err := s.creds.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.creds.SessionTTL().Seconds()),
	}, nil
}

// normalizeIdentifier lowercases emails and trims everything else
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
