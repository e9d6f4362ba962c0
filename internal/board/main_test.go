package board

import (
	"context"
	"time"

	"ideaboard/internal/models"
)

// remoteStub implements RemoteStore with overridable function fields, so
// each test wires only the calls it expects.
type remoteStub struct {
	fetchIdeasFn    func(ctx context.Context) ([]*models.Idea, error)
	fetchSubjectsFn func(ctx context.Context) ([]string, error)
	createIdeaFn    func(ctx context.Context, in CreateInput) (*models.Idea, error)
	updateIdeaFn    func(ctx context.Context, ideaID uint, fields EditFields) (*models.Idea, error)
	likeFn          func(ctx context.Context, ideaID uint) (int, error)
	unlikeFn        func(ctx context.Context, ideaID uint) (int, error)
	changeStatusFn  func(ctx context.Context, ideaID uint, newStatus, reason string) (*models.Idea, error)
	fetchStatsFn    func(ctx context.Context, userID uint) (*models.UserStats, error)

	likeCalls  int
	statsCalls int
}

func (s *remoteStub) FetchIdeas(ctx context.Context) ([]*models.Idea, error) {
	if s.fetchIdeasFn != nil {
		return s.fetchIdeasFn(ctx)
	}
	return nil, nil
}

func (s *remoteStub) FetchSubjects(ctx context.Context) ([]string, error) {
	if s.fetchSubjectsFn != nil {
		return s.fetchSubjectsFn(ctx)
	}
	return nil, nil
}

func (s *remoteStub) CreateIdea(ctx context.Context, in CreateInput) (*models.Idea, error) {
	if s.createIdeaFn != nil {
		return s.createIdeaFn(ctx, in)
	}
	return nil, nil
}

func (s *remoteStub) UpdateIdea(ctx context.Context, ideaID uint, fields EditFields) (*models.Idea, error) {
	if s.updateIdeaFn != nil {
		return s.updateIdeaFn(ctx, ideaID, fields)
	}
	return nil, nil
}

func (s *remoteStub) Like(ctx context.Context, ideaID uint) (int, error) {
	s.likeCalls++
	if s.likeFn != nil {
		return s.likeFn(ctx, ideaID)
	}
	return 0, nil
}

func (s *remoteStub) Unlike(ctx context.Context, ideaID uint) (int, error) {
	if s.unlikeFn != nil {
		return s.unlikeFn(ctx, ideaID)
	}
	return 0, nil
}

func (s *remoteStub) ChangeStatus(ctx context.Context, ideaID uint, newStatus, reason string) (*models.Idea, error) {
	if s.changeStatusFn != nil {
		return s.changeStatusFn(ctx, ideaID, newStatus, reason)
	}
	return nil, nil
}

func (s *remoteStub) FetchStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	s.statsCalls++
	if s.fetchStatsFn != nil {
		return s.fetchStatsFn(ctx, userID)
	}
	return &models.UserStats{}, nil
}

func testIdea(id uint, subject string, likes int, createdAt time.Time) *models.Idea {
	return &models.Idea{
		ID:          id,
		Title:       "Idea",
		Description: "Description",
		Subject:     subject,
		Status:      models.StatusUnderReview,
		UserID:      99,
		LikesCount:  likes,
		CreatedAt:   createdAt,
	}
}
