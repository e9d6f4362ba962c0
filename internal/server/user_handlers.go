package server

import (
	"ideaboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewForbiddenError("User identity required"))
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(userSummary(*user))
}

// GetUserStats handles GET /api/users/:id/stats. Users may only read their
// own quota consumption.
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if id != currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only view your own stats"))
	}

	stats, err := s.ideaService.UserStats(c.Context(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}
