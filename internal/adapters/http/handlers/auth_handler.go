package handlers

import (
	"strings"
	"time"

	"village-sabha/internal/config"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// LoginRequest represents login request body. Username accepts an
// email, phone number or sabhasad ID.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// CheckDuplicatesRequest represents duplicate check request body
type CheckDuplicatesRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

// EmailRequest carries a single email
type EmailRequest struct {
	Email string `json:"email"`
}

// OTPRequest represents an OTP request body
type OTPRequest struct {
	Identifier string `json:"identifier"`
}

// VerifyOTPRequest represents an OTP verification body
type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	OTP        string `json:"otp"`
}

// ResetPasswordRequest represents a password reset body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// Register handles user registration
// @Summary Register new user
// @Description Register a new user. The account starts in pending status.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return response.BadRequest(c, "Full name is required")
	}

	user, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err, "Failed to register user")
	}

	return response.Created(c, "Registration successful, awaiting approval", user)
}

// Login handles password login
// @Summary Login user
// @Description Authenticate by email, phone or sabhasad ID and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/token [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Username) == "" {
		return response.BadRequest(c, "Username is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return response.FromError(c, err, "Failed to login")
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Success(c, "Login successful", result)
}

// Logout clears the session cookie
// @Summary Logout user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearAuthCookie(c)
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	return response.Success(c, "User retrieved successfully", user.ToResponse())
}

// CheckDuplicates reports whether an email or phone is registered
// @Summary Check duplicates
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body CheckDuplicatesRequest true "Email and phone"
// @Success 200 {object} response.Response
// @Router /auth/check-duplicates [post]
func (h *AuthHandler) CheckDuplicates(c *fiber.Ctx) error {
	var req CheckDuplicatesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.CheckDuplicates(c.UserContext(), req.Email, req.Phone)
	if err != nil {
		return response.FromError(c, err, "Failed to check duplicates")
	}
	return response.Success(c, "", result)
}

// CheckEmail reports whether an email is registered
// @Summary Check email
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Router /auth/check-email [post]
func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	exists, err := h.authService.EmailExists(c.UserContext(), req.Email)
	if err != nil {
		return response.FromError(c, err, "Failed to check email")
	}
	return response.Success(c, "", fiber.Map{"exists": exists})
}

// RequestOTP sends a login code
// @Summary Request login OTP
// @Description Send a one-time code to a registered email or phone. Without mail the code is printed on the server console.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body OTPRequest true "Email or phone"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/request-otp [post]
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Identifier) == "" {
		return response.BadRequest(c, "Identifier is required")
	}

	result, err := h.authService.RequestOTP(c.UserContext(), req.Identifier)
	if err != nil {
		return response.FromError(c, err, "Failed to send OTP")
	}
	return response.Success(c, result.Message, result)
}

// VerifyOTP exchanges a login code for a session
// @Summary Verify login OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Identifier and code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.OTP) == "" {
		return response.BadRequest(c, "Identifier and OTP are required")
	}

	result, err := h.authService.VerifyOTP(c.UserContext(), req.Identifier, req.OTP)
	if err != nil {
		return response.FromError(c, err, "Failed to verify OTP")
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Success(c, "Login successful", result)
}

// RequestAdminOTP sends an admin login code
// @Summary Request admin OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Admin email"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/admin/request-otp [post]
func (h *AuthHandler) RequestAdminOTP(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}

	result, err := h.authService.RequestAdminOTP(c.UserContext(), req.Email)
	if err != nil {
		return response.FromError(c, err, "Failed to send OTP")
	}
	return response.Success(c, result.Message, result)
}

// VerifyAdminOTP exchanges an admin login code for a session
// @Summary Verify admin OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Email and code"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/admin/verify-otp [post]
func (h *AuthHandler) VerifyAdminOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		return response.BadRequest(c, "Email and OTP are required")
	}

	result, err := h.authService.VerifyAdminOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return response.FromError(c, err, "Failed to verify OTP")
	}

	h.setAuthCookie(c, result.AccessToken)
	return response.Success(c, "Admin login successful", result)
}

// ForgotPassword sends a password reset code
// @Summary Request password reset OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Registered email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/forgot-password/request-otp [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}

	result, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return response.FromError(c, err, "Failed to send OTP")
	}
	return response.Success(c, result.Message, result)
}

// ResetPassword sets a new password after verifying the reset code
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/forgot-password/reset [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		return response.BadRequest(c, "Email and OTP are required")
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.OTP, req.NewPassword); err != nil {
		return response.FromError(c, err, "Failed to reset password")
	}
	return response.Success(c, "Password reset successfully. You can now login with your new password.", nil)
}

// setAuthCookie sets the session cookie
func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.cfg.JWT.SessionTTL().Seconds()),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookie clears the session cookie
func (h *AuthHandler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
