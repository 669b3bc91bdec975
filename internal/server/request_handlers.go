package server

import (
	"fixpoint/internal/models"
	"fixpoint/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateRequest handles POST /api/service-requests
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	var req struct {
		DeviceType string `json:"device_type"`
		Brand      string `json:"brand"`
		Model      string `json:"model"`
		Problem    string `json:"problem"`
		Address    string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.requestService.CreateRegistered(c.UserContext(), service.CreateRegisteredInput{
		UserID:     callerID(c),
		DeviceType: req.DeviceType,
		Brand:      req.Brand,
		Model:      req.Model,
		Problem:    req.Problem,
		Address:    req.Address,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// CreateAnonymousRequest handles POST /api/service-requests/anonymous
func (s *Server) CreateAnonymousRequest(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Address    string `json:"address"`
		DeviceType string `json:"device_type"`
		Brand      string `json:"brand"`
		Model      string `json:"model"`
		Problem    string `json:"problem"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// The route is public, but a caller with a valid session must use the
	// registered flow.
	uid, _ := s.optionalUserID(c)

	created, err := s.requestService.CreateAnonymous(c.UserContext(), uid, service.CreateAnonymousInput{
		ContactName:    req.Name,
		ContactEmail:   req.Email,
		ContactPhone:   req.Phone,
		ContactAddress: req.Address,
		DeviceType:     req.DeviceType,
		Brand:          req.Brand,
		Model:          req.Model,
		Problem:        req.Problem,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tracking_code": created.TrackingCode,
	})
}

// TrackRequest handles GET /api/service-requests/track?code=
func (s *Server) TrackRequest(c *fiber.Ctx) error {
	view, err := s.requestService.TrackByCode(c.UserContext(), c.Query("code"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// ListRequests handles GET /api/service-requests
func (s *Server) ListRequests(c *fiber.Ctx) error {
	p := parsePagination(c)

	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		st := models.RequestStatus(raw)
		if !st.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown status: "+raw))
		}
		status = &st
	}

	requests, total, err := s.requestService.List(c.UserContext(), service.ListRequestsInput{
		CallerID:   callerID(c),
		CallerRole: callerRole(c),
		Status:     status,
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(paginated(requests, total, p))
}

// GetRequest handles GET /api/service-requests/:id
func (s *Server) GetRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	req, err := s.requestService.GetByID(c.UserContext(), callerID(c), callerRole(c), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

// UpdateRequestStatus handles PATCH /api/service-requests/:id
func (s *Server) UpdateRequestStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.requestService.UpdateStatus(c.UserContext(), id,
		models.RequestStatus(req.Status), req.Note)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}
