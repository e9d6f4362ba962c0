package server

import (
	"ideaboard/internal/models"
	"ideaboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSubjects handles GET /api/subjects
func (s *Server) GetSubjects(c *fiber.Ctx) error {
	subjects, err := s.subjectRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	names := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		names = append(names, sub.Name)
	}
	return c.JSON(names)
}

// GetIdeas handles GET /api/ideas
func (s *Server) GetIdeas(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	ideas, err := s.ideaService.ListIdeas(c.Context(), service.ListIdeasInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: currentUserID(c),
		Subject:       c.Query("subject"),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(ideas)
}

// GetIdea handles GET /api/ideas/:id
func (s *Server) GetIdea(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	idea, err := s.ideaService.GetIdea(c.Context(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(idea)
}

// CreateIdea handles POST /api/ideas
func (s *Server) CreateIdea(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Subject     string `json:"subject"`
		Anonymous   bool   `json:"anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	idea, err := s.ideaService.CreateIdea(c.Context(), service.CreateIdeaInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBoardEvent(EventIdeaCreated, map[string]interface{}{
		"card": maskedCard(idea),
	})

	return c.Status(fiber.StatusCreated).JSON(idea)
}

// UpdateIdea handles PUT /api/ideas/:id
func (s *Server) UpdateIdea(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Subject     *string `json:"subject"`
		Anonymous   *bool   `json:"anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// The previous subject travels in the event so clients can move the
	// card between buckets without a full refetch.
	before, err := s.ideaService.GetIdea(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	previousSubject := before.Subject

	idea, err := s.ideaService.UpdateIdea(c.Context(), service.UpdateIdeaInput{
		UserID:      userID,
		IdeaID:      id,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	updatedFields := map[string]interface{}{}
	if req.Title != nil {
		updatedFields["title"] = idea.Title
	}
	if req.Description != nil {
		updatedFields["description"] = idea.Description
	}
	if req.Subject != nil {
		updatedFields["subject"] = idea.Subject
	}
	if req.Anonymous != nil {
		updatedFields["anonymous"] = idea.Anonymous
	}

	s.publishBoardEvent(EventIdeaEdited, map[string]interface{}{
		"ideaId":          idea.ID,
		"updatedFields":   updatedFields,
		"previousSubject": previousSubject,
	})

	return c.JSON(idea)
}

// ChangeIdeaStatus handles PATCH /api/ideas/:id/status
func (s *Server) ChangeIdeaStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	var req struct {
		NewStatus string `json:"newStatus"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	idea, err := s.ideaService.ChangeStatus(c.Context(), service.ChangeStatusInput{
		UserID: userID,
		IdeaID: id,
		Status: req.NewStatus,
		Reason: req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBoardEvent(EventStatusChanged, map[string]interface{}{
		"idea": maskedCard(idea),
	})

	return c.JSON(idea)
}

// LikeIdea handles POST /api/ideas/:id/like
func (s *Server) LikeIdea(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	idea, err := s.ideaService.LikeIdea(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBoardEvent(EventIdeaLikeChanged, map[string]interface{}{
		"ideaId":     idea.ID,
		"likesCount": idea.LikesCount,
		"userId":     userID,
		"isLiked":    true,
	})

	return c.JSON(fiber.Map{"likeCount": idea.LikesCount})
}

// UnlikeIdea handles DELETE /api/ideas/:id/like
func (s *Server) UnlikeIdea(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	idea, err := s.ideaService.UnlikeIdea(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBoardEvent(EventIdeaLikeChanged, map[string]interface{}{
		"ideaId":     idea.ID,
		"likesCount": idea.LikesCount,
		"userId":     userID,
		"isLiked":    false,
	})

	return c.JSON(fiber.Map{"likeCount": idea.LikesCount})
}
