package handlers

import (
	"village-sabha/internal/core/domain"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EventHandler handles donation events and donations to them
type EventHandler struct {
	eventService   *services.EventService
	paymentService *services.PaymentService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService, paymentService *services.PaymentService) *EventHandler {
	return &EventHandler{
		eventService:   eventService,
		paymentService: paymentService,
	}
}

// DonationOrderResponse is an order for an event donation
type DonationOrderResponse struct {
	*services.OrderResponse
	EventTitle string `json:"event_title"`
}

// DonationResult is returned after a verified donation
type DonationResult struct {
	Message       string  `json:"message"`
	Amount        float64 `json:"amount"`
	EventTitle    string  `json:"event_title"`
	NewTotal      float64 `json:"new_total"`
	TransactionID string  `json:"transaction_id"`
}

// List lists donation events
// @Summary List donation events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Response
// @Router /events [get]
func (h *EventHandler) List(c *fiber.Ctx) error {
	events, err := h.eventService.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err, "Failed to list events")
	}
	return response.Success(c, "Events retrieved successfully", events)
}

// Create creates a donation event (Admin only)
// @Summary Create donation event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEventInput true "Event"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /events [post]
func (h *EventHandler) Create(c *fiber.Ctx) error {
	var input services.CreateEventInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	event, err := h.eventService.Create(c.UserContext(), &input)
	if err != nil {
		return response.FromError(c, err, "Failed to create event")
	}
	return response.Created(c, "Event created successfully", event)
}

// Donate opens a gateway order for a donation to an event
// @Summary Donate to event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param body body services.CreateOrderInput true "Amount"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /events/{id}/donate [post]
func (h *EventHandler) Donate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	eventID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid event ID")
	}

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.EventID = eventID

	event, err := h.eventService.Get(c.UserContext(), eventID)
	if err != nil {
		return response.FromError(c, err, "Failed to get event")
	}

	order, err := h.paymentService.CreateOrder(c.UserContext(), user.ID, domain.PurposeEventDonation, &input)
	if err != nil {
		return response.FromError(c, err, "Failed to create donation order")
	}
	return response.Success(c, "Order created", DonationOrderResponse{OrderResponse: order, EventTitle: event.Title})
}

// VerifyDonation verifies a donation and adds it to the event total
// @Summary Verify event donation
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param body body services.VerifyPaymentInput true "Gateway callback"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /events/{id}/verify-donation [post]
func (h *EventHandler) VerifyDonation(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	eventID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid event ID")
	}

	input, ok := parseVerify(c)
	if !ok {
		return response.BadRequest(c, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	input.EventID = eventID

	payment, err := h.paymentService.VerifyPayment(c.UserContext(), user.ID, domain.PurposeEventDonation, input)
	if err != nil {
		return response.FromError(c, err, "Failed to verify donation")
	}

	event, err := h.eventService.Get(c.UserContext(), eventID)
	if err != nil {
		return response.FromError(c, err, "Failed to get event")
	}

	return response.Success(c, "Donation successful", DonationResult{
		Message:       "Thank you for your donation!",
		Amount:        payment.Amount,
		EventTitle:    event.Title,
		NewTotal:      event.Raised,
		TransactionID: payment.TransactionRef,
	})
}
