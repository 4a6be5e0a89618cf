package handlers

import (
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FamilyHandler handles family tree endpoints
type FamilyHandler struct {
	familyService *services.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *services.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

// List lists the caller's family members
// @Summary List family members
// @Tags Family
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /family [get]
func (h *FamilyHandler) List(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	members, err := h.familyService.List(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err, "Failed to list family members")
	}
	return response.Success(c, "Family members retrieved successfully", members)
}

// Tree returns the caller's family tree
// @Summary Family tree
// @Tags Family
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /family/tree [get]
func (h *FamilyHandler) Tree(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tree, err := h.familyService.Tree(c.UserContext(), user.ID)
	if err != nil {
		return response.FromError(c, err, "Failed to build family tree")
	}
	return response.Success(c, "", tree)
}

// TreeOf returns a member's family tree
// @Summary Member family tree
// @Tags Family
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /family/tree/{user_id} [get]
func (h *FamilyHandler) TreeOf(c *fiber.Ctx) error {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	tree, err := h.familyService.TreeOf(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err, "Failed to build family tree")
	}
	return response.Success(c, "", tree)
}

// Create adds a family member
// @Summary Add family member
// @Tags Family
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.FamilyMemberInput true "Family member"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /family [post]
func (h *FamilyHandler) Create(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.FamilyMemberInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.familyService.Create(c.UserContext(), user.ID, &input)
	if err != nil {
		return response.FromError(c, err, "Failed to add family member")
	}
	return response.Created(c, "Family member added successfully", member)
}

// Update replaces a family member
// @Summary Update family member
// @Tags Family
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Family member ID"
// @Param body body services.FamilyMemberInput true "Family member"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /family/{id} [put]
func (h *FamilyHandler) Update(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid family member ID")
	}

	var input services.FamilyMemberInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.familyService.Update(c.UserContext(), user.ID, id, &input)
	if err != nil {
		return response.FromError(c, err, "Failed to update family member")
	}
	return response.Success(c, "Family member updated successfully", member)
}

// Delete removes a family member. Its children move up to the root.
// @Summary Delete family member
// @Tags Family
// @Security BearerAuth
// @Param id path int true "Family member ID"
// @Success 204
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /family/{id} [delete]
func (h *FamilyHandler) Delete(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid family member ID")
	}

	if err := h.familyService.Delete(c.UserContext(), user, id); err != nil {
		return response.FromError(c, err, "Failed to delete family member")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
