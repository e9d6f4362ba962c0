// Package service contains the business rules for the idea board.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ideaboard/internal/models"
	"ideaboard/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LikeQuota is the daily like allowance ledger the service enforces likes
// against. Satisfied by *quota.Ledger.
type LikeQuota interface {
	Consume(ctx context.Context, userID uint) (bool, error)
	Refund(ctx context.Context, userID uint) error
	Used(ctx context.Context, userID uint) (int, error)
	Limit() int
}

type IdeaService struct {
	ideaRepo    repository.IdeaRepository
	subjectRepo repository.SubjectRepository
	userRepo    repository.UserRepository
	quota       LikeQuota
}

type CreateIdeaInput struct {
	UserID      uint
	Title       string
	Description string
	Subject     string
	Anonymous   bool
}

type UpdateIdeaInput struct {
	UserID      uint
	IdeaID      uint
	Title       *string
	Description *string
	Subject     *string
	Anonymous   *bool
}

type ChangeStatusInput struct {
	UserID uint
	IdeaID uint
	Status string
	Reason string
}

type ListIdeasInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Subject       string
}

func NewIdeaService(
	ideaRepo repository.IdeaRepository,
	subjectRepo repository.SubjectRepository,
	userRepo repository.UserRepository,
	quota LikeQuota,
) *IdeaService {
	return &IdeaService{
		ideaRepo:    ideaRepo,
		subjectRepo: subjectRepo,
		userRepo:    userRepo,
		quota:       quota,
	}
}

func (s *IdeaService) validateContent(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len([]rune(title)) > models.MaxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", models.MaxTitleLen))
	}
	if strings.TrimSpace(description) == "" {
		return models.NewValidationError("Description is required")
	}
	if len([]rune(description)) > models.MaxDescriptionLen {
		return models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", models.MaxDescriptionLen))
	}
	return nil
}

func (s *IdeaService) validateSubject(ctx context.Context, subject string) error {
	if strings.TrimSpace(subject) == "" {
		return models.NewValidationError("Subject is required")
	}
	known, err := s.subjectRepo.Exists(ctx, subject)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !known {
		return models.NewValidationError("Unknown subject: " + subject)
	}
	return nil
}

func (s *IdeaService) CreateIdea(ctx context.Context, in CreateIdeaInput) (*models.Idea, error) {
	if err := s.validateContent(in.Title, in.Description); err != nil {
		return nil, err
	}
	if err := s.validateSubject(ctx, in.Subject); err != nil {
		return nil, err
	}

	idea := &models.Idea{
		PublicID:    uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Subject:     in.Subject,
		Status:      models.StatusUnderReview,
		Anonymous:   in.Anonymous,
		UserID:      in.UserID,
	}
	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.ideaRepo.GetByID(ctx, idea.ID, in.UserID)
}

func (s *IdeaService) GetIdea(ctx context.Context, id uint, currentUserID uint) (*models.Idea, error) {
	idea, err := s.ideaRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Idea", id)
		}
		return nil, models.NewInternalError(err)
	}
	s.maskAnonymous(ctx, []*models.Idea{idea}, currentUserID)
	return idea, nil
}

func (s *IdeaService) ListIdeas(ctx context.Context, in ListIdeasInput) ([]*models.Idea, error) {
	if in.Limit <= 0 {
		in.Limit = 50
	}
	if in.Limit > 200 {
		in.Limit = 200
	}
	ideas, err := s.ideaRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID, in.Subject)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.maskAnonymous(ctx, ideas, in.CurrentUserID)
	return ideas, nil
}

// maskAnonymous hides the creator of anonymous ideas from viewers who are
// neither the creator nor privileged. Managers see through the flag.
func (s *IdeaService) maskAnonymous(ctx context.Context, ideas []*models.Idea, viewerID uint) {
	needed := false
	for _, idea := range ideas {
		if idea.Anonymous && idea.UserID != viewerID {
			needed = true
			break
		}
	}
	if !needed {
		return
	}

	if viewer, err := s.userRepo.GetByID(ctx, viewerID); err == nil && viewer.Privileged() {
		return
	}

	for _, idea := range ideas {
		if idea.Anonymous && idea.UserID != viewerID {
			idea.UserID = 0
			idea.User = models.User{Username: "Anonymous"}
		}
	}
}

func (s *IdeaService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.subjectRepo.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subjects, nil
}

// UpdateIdea edits content fields. Only the creator may edit, and only
// the provided fields change.
func (s *IdeaService) UpdateIdea(ctx context.Context, in UpdateIdeaInput) (*models.Idea, error) {
	idea, err := s.GetIdea(ctx, in.IdeaID, in.UserID)
	if err != nil {
		return nil, err
	}

	if idea.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the creator can edit an idea")
	}

	if in.Title != nil {
		idea.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		idea.Description = *in.Description
	}
	if err := s.validateContent(idea.Title, idea.Description); err != nil {
		return nil, err
	}
	if in.Subject != nil {
		if err := s.validateSubject(ctx, *in.Subject); err != nil {
			return nil, err
		}
		idea.Subject = *in.Subject
	}
	if in.Anonymous != nil {
		idea.Anonymous = *in.Anonymous
	}

	if err := s.ideaRepo.Update(ctx, idea); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetIdea(ctx, in.IdeaID, in.UserID)
}

// ChangeStatus moves an idea through its workflow. Restricted to managers
// and admins. Approved is terminal and every transition is recorded.
func (s *IdeaService) ChangeStatus(ctx context.Context, in ChangeStatusInput) (*models.Idea, error) {
	actor, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() {
		return nil, models.NewForbiddenError("Only managers can change idea status")
	}

	if !models.ValidStatus(in.Status) {
		return nil, models.NewValidationError("Unknown status: " + in.Status)
	}

	idea, err := s.GetIdea(ctx, in.IdeaID, in.UserID)
	if err != nil {
		return nil, err
	}
	if idea.Terminal() {
		return nil, models.NewConflictError("Idea status is final and cannot change")
	}
	if idea.Status == in.Status {
		return nil, models.NewConflictError("Idea is already in status " + in.Status)
	}

	change := &models.StatusChange{ChangedBy: in.UserID, Reason: in.Reason}
	if err := s.ideaRepo.UpdateStatus(ctx, in.IdeaID, in.Status, change); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetIdea(ctx, in.IdeaID, in.UserID)
}

// LikeIdea records a like, enforcing the self-like rule, the idea's
// likeable state, and the daily quota. The quota unit is returned if the
// insert fails afterwards.
func (s *IdeaService) LikeIdea(ctx context.Context, userID, ideaID uint) (*models.Idea, error) {
	idea, err := s.GetIdea(ctx, ideaID, userID)
	if err != nil {
		return nil, err
	}

	if idea.UserID == userID {
		return nil, models.NewSelfActionError("You cannot like your own idea")
	}
	if !idea.Likeable() {
		return nil, models.NewConflictError("Likes are closed for ideas not under review")
	}
	if idea.Liked {
		// Idempotent: no quota spent, current state returned.
		return idea, nil
	}

	ok, err := s.quota.Consume(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewQuotaExceededError(fmt.Sprintf("Daily like limit of %d reached", s.quota.Limit()))
	}

	if err := s.ideaRepo.Like(ctx, userID, ideaID); err != nil {
		_ = s.quota.Refund(ctx, userID)
		return nil, models.NewInternalError(err)
	}

	return s.GetIdea(ctx, ideaID, userID)
}

// UnlikeIdea withdraws a like and returns the quota unit for same-day
// withdrawals.
func (s *IdeaService) UnlikeIdea(ctx context.Context, userID, ideaID uint) (*models.Idea, error) {
	idea, err := s.GetIdea(ctx, ideaID, userID)
	if err != nil {
		return nil, err
	}
	if !idea.Liked {
		return idea, nil
	}

	if err := s.ideaRepo.Unlike(ctx, userID, ideaID); err != nil {
		return nil, models.NewInternalError(err)
	}
	// Refund is best effort; the like itself is already gone.
	_ = s.quota.Refund(ctx, userID)

	return s.GetIdea(ctx, ideaID, userID)
}

// UserStats reports the caller's quota consumption for today.
func (s *IdeaService) UserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	used, err := s.quota.Used(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.UserStats{DailyLikesUsed: used}, nil
}
