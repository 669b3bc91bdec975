package server

import (
	"fixpoint/internal/models"
	"fixpoint/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListServices handles GET /api/services
func (s *Server) ListServices(c *fiber.Ctx) error {
	services, err := s.catalogService.List(c.UserContext(), s.roleFromToken(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(services)
}

// CreateService handles POST /api/admin/services
func (s *Server) CreateService(c *fiber.Ctx) error {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Active      bool    `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	svc, err := s.catalogService.Create(c.UserContext(), service.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

// UpdateService handles PUT /api/admin/services/:id
func (s *Server) UpdateService(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Active      bool    `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	svc, err := s.catalogService.Update(c.UserContext(), id, service.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(svc)
}

// DeleteService handles DELETE /api/admin/services/:id
func (s *Server) DeleteService(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Service deleted"})
}
