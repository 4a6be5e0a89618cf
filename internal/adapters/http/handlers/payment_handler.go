package handlers

import (
	"village-sabha/internal/core/domain"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/pagination"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles gateway orders and payment verification
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ============================================================
// Membership fee
// ============================================================

// MembershipFee returns the membership fee
// @Summary Membership fee
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Response
// @Router /payments/membership/fee [get]
func (h *PaymentHandler) MembershipFee(c *fiber.Ctx) error {
	return response.Success(c, "", h.paymentService.Fee())
}

// CreateMembershipOrder opens a gateway order for the membership fee
// @Summary Create membership order
// @Description Only approved users without a sabhasad ID can pay the fee
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /payments/membership/create-order [post]
func (h *PaymentHandler) CreateMembershipOrder(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	order, err := h.paymentService.CreateMembershipOrder(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err, "Failed to create payment order")
	}
	return response.Success(c, "Order created", order)
}

// VerifyMembership verifies the fee payment and activates membership
// @Summary Verify membership payment
// @Description Verifies the gateway signature, records the payment and assigns a sabhasad ID
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VerifyPaymentInput true "Gateway callback"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /payments/membership/verify [post]
func (h *PaymentHandler) VerifyMembership(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	input, ok := parseVerify(c)
	if !ok {
		return response.BadRequest(c, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}

	result, err := h.paymentService.VerifyMembership(c.UserContext(), user.ID, input)
	if err != nil {
		return response.FromError(c, err, "Failed to verify payment")
	}
	return response.Success(c, result.Message, result)
}

// ============================================================
// General payments and special welfare fund
// ============================================================

// CreateOrder opens a gateway order for a general payment
// @Summary Create payment order
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrderInput true "Amount"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /payments/create-order [post]
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	return h.createOrder(c, domain.PurposeGeneral)
}

// Verify verifies and records a general payment
// @Summary Verify payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VerifyPaymentInput true "Gateway callback"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /payments/verify [post]
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	return h.verify(c, domain.PurposeGeneral)
}

// CreateSpecialFundOrder opens an order on the special welfare fund account
// @Summary Create special welfare fund order
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrderInput true "Amount"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /payments/special-fund/create-order [post]
func (h *PaymentHandler) CreateSpecialFundOrder(c *fiber.Ctx) error {
	return h.createOrder(c, domain.PurposeSpecialFund)
}

// VerifySpecialFund verifies and records a special welfare fund payment
// @Summary Verify special welfare fund payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VerifyPaymentInput true "Gateway callback"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /payments/special-fund/verify [post]
func (h *PaymentHandler) VerifySpecialFund(c *fiber.Ctx) error {
	return h.verify(c, domain.PurposeSpecialFund)
}

func (h *PaymentHandler) createOrder(c *fiber.Ctx, purpose domain.Purpose) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	order, err := h.paymentService.CreateOrder(c.UserContext(), user.ID, purpose, &input)
	if err != nil {
		return response.FromError(c, err, "Failed to create payment order")
	}
	return response.Success(c, "Order created", order)
}

func (h *PaymentHandler) verify(c *fiber.Ctx, purpose domain.Purpose) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	input, ok := parseVerify(c)
	if !ok {
		return response.BadRequest(c, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}

	payment, err := h.paymentService.VerifyPayment(c.UserContext(), user.ID, purpose, input)
	if err != nil {
		return response.FromError(c, err, "Failed to verify payment")
	}
	return response.Success(c, "Payment recorded", payment)
}

// parseVerify reads a gateway callback body
func parseVerify(c *fiber.Ctx) (*services.VerifyPaymentInput, bool) {
	var input services.VerifyPaymentInput
	if err := c.BodyParser(&input); err != nil {
		return nil, false
	}
	if input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, false
	}
	return &input, true
}

// ============================================================
// Reporting
// ============================================================

// History lists the caller's payments; admins see all payments
// @Summary Payment history
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset (admin listing)"
// @Param limit query int false "Items per page (admin listing)" default(20)
// @Success 200 {object} response.Response
// @Router /payments/history [get]
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	result, err := h.paymentService.History(c.UserContext(), user.ID, user.IsAdmin(), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err, "Failed to get payment history")
	}
	return response.Success(c, "Payment history retrieved successfully", result)
}

// Stats aggregates the ledger (Admin only)
// @Summary Payment stats
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /payments/stats [get]
func (h *PaymentHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.paymentService.Stats(c.UserContext())
	if err != nil {
		return response.FromError(c, err, "Failed to get payment stats")
	}
	return response.Success(c, "", stats)
}
