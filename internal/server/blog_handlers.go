package server

import (
	"fixpoint/internal/models"
	"fixpoint/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/blog/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	p := parsePagination(c)

	// Unpublished drafts stay hidden unless an admin session is present.
	role := s.roleFromToken(c)

	posts, total, err := s.blogService.ListPosts(c.UserContext(), role, p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(paginated(posts, total, p))
}

// GetPostBySlug handles GET /api/blog/posts/:slug
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.blogService.GetPostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondErr(c, err)
	}
	if !post.Published && s.roleFromToken(c) != models.RoleAdmin {
		return respondErr(c, models.NewNotFoundError("Blog post", c.Params("slug")))
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// ListCategories handles GET /api/blog/categories
func (s *Server) ListCategories(c *fiber.Ctx) error {
	cats, err := s.blogService.ListCategories(c.UserContext())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(cats)
}

// CreatePost handles POST /api/admin/blog/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		CategoryID *uint  `json:"category_id"`
		Published  bool   `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.blogService.CreatePost(c.UserContext(), callerID(c), service.PostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Published:  req.Published,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/admin/blog/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		CategoryID *uint  `json:"category_id"`
		Published  bool   `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.blogService.UpdatePost(c.UserContext(), id, service.PostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Published:  req.Published,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// DeletePost handles DELETE /api/admin/blog/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.blogService.DeletePost(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted"})
}

// CreateCategory handles POST /api/admin/blog/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	cat, err := s.blogService.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// DeleteCategory handles DELETE /api/admin/blog/categories/:id
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.blogService.DeleteCategory(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Category deleted"})
}
