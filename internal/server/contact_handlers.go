package server

import (
	"fixpoint/internal/models"
	"fixpoint/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitContactMessage handles POST /api/contact
func (s *Server) SubmitContactMessage(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.contactService.Submit(c.UserContext(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      msg.ID,
		"message": "Thanks, we'll get back to you soon",
	})
}

// ListContactMessages handles GET /api/admin/contact
func (s *Server) ListContactMessages(c *fiber.Ctx) error {
	p := parsePagination(c)
	unreadOnly := c.QueryBool("unread", false)

	msgs, total, err := s.contactService.List(c.UserContext(), unreadOnly, p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(paginated(msgs, total, p))
}

// MarkContactMessageRead handles POST /api/admin/contact/:id/read
func (s *Server) MarkContactMessageRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.contactService.MarkRead(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Marked as read"})
}

// DeleteContactMessage handles DELETE /api/admin/contact/:id
func (s *Server) DeleteContactMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.contactService.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Message deleted"})
}
