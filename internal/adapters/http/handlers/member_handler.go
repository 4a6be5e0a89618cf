package handlers

import (
	"strconv"
	"strings"
	"time"

	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/pagination"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles the member directory and membership workflow
type MemberHandler struct {
	userService       *services.UserService
	membershipService *services.MembershipService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(userService *services.UserService, membershipService *services.MembershipService) *MemberHandler {
	return &MemberHandler{
		userService:       userService,
		membershipService: membershipService,
	}
}

// ApplyRequest represents a membership application body
type ApplyRequest struct {
	VillageID   uint   `json:"village_id"`
	Address     string `json:"address"`
	Profession  string `json:"profession"`
	DateOfBirth string `json:"date_of_birth" example:"1990-01-31"`
}

// ApproveRequest represents an approval body
type ApproveRequest struct {
	Comment string `json:"comment"`
}

// List lists approved users and members
// @Summary List members
// @Description Approved users and members, optionally filtered by village
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param village_id query int false "Village ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	input := &services.ListMembersInput{Params: pagination.GetParams(c)}
	if v := c.Query("village_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid village ID")
		}
		villageID := uint(id)
		input.VillageID = &villageID
	}

	result, err := h.userService.ListMembers(c.UserContext(), user, input)
	if err != nil {
		return response.FromError(c, err, "Failed to list members")
	}
	return response.Success(c, "Members retrieved successfully", result)
}

// Pending lists applications awaiting a decision (Admin only)
// @Summary List pending applications
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /members/pending [get]
func (h *MemberHandler) Pending(c *fiber.Ctx) error {
	users, err := h.membershipService.ListPending(c.UserContext())
	if err != nil {
		return response.FromError(c, err, "Failed to list pending applications")
	}
	return response.Success(c, "Pending applications retrieved successfully", users)
}

// Get returns one member profile
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.userService.GetMember(c.UserContext(), user, id)
	if err != nil {
		return response.FromError(c, err, "Failed to get member")
	}
	return response.Success(c, "Member retrieved successfully", member)
}

// Apply submits the caller's membership application
// @Summary Apply for membership
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ApplyRequest true "Application"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members/apply [put]
func (h *MemberHandler) Apply(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.VillageID == 0 {
		return response.BadRequest(c, "Village is required")
	}

	input := &services.ApplyInput{
		VillageID:  req.VillageID,
		Address:    req.Address,
		Profession: req.Profession,
	}
	if dob := strings.TrimSpace(req.DateOfBirth); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			return response.BadRequest(c, "Date of birth must be YYYY-MM-DD")
		}
		input.DateOfBirth = &parsed
	}

	result, err := h.membershipService.Apply(c.UserContext(), user.ID, input)
	if err != nil {
		return response.FromError(c, err, "Failed to submit application")
	}
	return response.Success(c, "Application submitted successfully", result)
}

// Approve approves a pending application (Admin only)
// @Summary Approve application
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ApproveRequest false "Admin comment"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members/{id}/approve [put]
func (h *MemberHandler) Approve(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req ApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	if req.Comment == "" {
		req.Comment = c.Query("comment")
	}

	result, err := h.membershipService.Approve(c.UserContext(), id, req.Comment)
	if err != nil {
		return response.FromError(c, err, "Failed to approve application")
	}
	return response.Success(c, "Application approved", result)
}

// Reject rejects and deletes a pending application (Admin only)
// @Summary Reject application
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/reject [put]
func (h *MemberHandler) Reject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	if err := h.membershipService.Reject(c.UserContext(), id); err != nil {
		return response.FromError(c, err, "Failed to reject application")
	}
	return response.Success(c, "Application rejected and removed", nil)
}
