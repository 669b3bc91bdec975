package server

import (
	"fixpoint/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /api/admin/dashboard
func (s *Server) Dashboard(c *fiber.Ctx) error {
	stats, err := s.siteService.DashboardStats(c.UserContext())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// ListSettings handles GET /api/admin/settings
func (s *Server) ListSettings(c *fiber.Ctx) error {
	settings, err := s.siteService.ListSettings(c.UserContext())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

// GetSetting handles GET /api/admin/settings/:key
func (s *Server) GetSetting(c *fiber.Ctx) error {
	setting, err := s.siteService.GetSetting(c.UserContext(), c.Params("key"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(setting)
}

// PutSetting handles PUT /api/admin/settings/:key
func (s *Server) PutSetting(c *fiber.Ctx) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	setting, err := s.siteService.PutSetting(c.UserContext(), c.Params("key"), req.Value)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(setting)
}
