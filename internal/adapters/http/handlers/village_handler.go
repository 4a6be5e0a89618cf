package handlers

import (
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/pagination"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VillageHandler handles village endpoints
type VillageHandler struct {
	villageService *services.VillageService
}

// NewVillageHandler creates a new village handler
func NewVillageHandler(villageService *services.VillageService) *VillageHandler {
	return &VillageHandler{villageService: villageService}
}

// List lists villages with member counts
// @Summary List villages
// @Tags Villages
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /villages [get]
func (h *VillageHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	villages, err := h.villageService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err, "Failed to list villages")
	}
	return response.Success(c, "Villages retrieved successfully", villages)
}

// Create creates a village (Admin only)
// @Summary Create village
// @Tags Villages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VillageInput true "Village"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /villages [post]
func (h *VillageHandler) Create(c *fiber.Ctx) error {
	var input services.VillageInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	village, err := h.villageService.Create(c.UserContext(), &input)
	if err != nil {
		return response.FromError(c, err, "Failed to create village")
	}
	return response.Created(c, "Village created successfully", village)
}

// Update updates a village (Admin only)
// @Summary Update village
// @Tags Villages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Village ID"
// @Param body body services.VillageInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /villages/{id} [put]
func (h *VillageHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid village ID")
	}

	var input services.VillageInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	village, err := h.villageService.Update(c.UserContext(), id, &input)
	if err != nil {
		return response.FromError(c, err, "Failed to update village")
	}
	return response.Success(c, "Village updated successfully", village)
}

// Delete deletes an unused village (Admin only)
// @Summary Delete village
// @Tags Villages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Village ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /villages/{id} [delete]
func (h *VillageHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid village ID")
	}

	if err := h.villageService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, "Failed to delete village")
	}
	return response.Success(c, "Village deleted successfully", nil)
}
