// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"ideaboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdeaRepository defines the interface for idea data operations
type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Idea, error)
	GetByPublicID(ctx context.Context, publicID string, currentUserID uint) (*models.Idea, error)
	List(ctx context.Context, limit, offset int, currentUserID uint, subject string) ([]*models.Idea, error)
	Update(ctx context.Context, idea *models.Idea) error
	UpdateStatus(ctx context.Context, id uint, status string, change *models.StatusChange) error
	IsLiked(ctx context.Context, userID, ideaID uint) (bool, error)
	Like(ctx context.Context, userID, ideaID uint) error
	Unlike(ctx context.Context, userID, ideaID uint) error
	LikedBy(ctx context.Context, ideaID uint) ([]uint, error)
	LikesCount(ctx context.Context, ideaID uint) (int, error)
}

// ideaRepository implements IdeaRepository
type ideaRepository struct {
	db *gorm.DB
}

// NewIdeaRepository creates a new idea repository
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *ideaRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Idea, error) {
	var idea models.Idea
	err := r.applyIdeaDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&idea, id).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachLikers(ctx, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) GetByPublicID(ctx context.Context, publicID string, currentUserID uint) (*models.Idea, error) {
	var idea models.Idea
	err := r.applyIdeaDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("public_id = ?", publicID).
		First(&idea).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachLikers(ctx, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) List(ctx context.Context, limit, offset int, currentUserID uint, subject string) ([]*models.Idea, error) {
	var ideas []*models.Idea
	base := r.applyIdeaDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User")
	if subject != "" {
		base = base.Where("subject = ?", subject)
	}
	err := base.
		Order("likes_count DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ideas).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachLikersBatch(ctx, ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

// applyIdeaDetails adds subqueries to fetch the like count and the current
// user's liked flag in a single query.
func (r *ideaRepository) applyIdeaDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "ideas.*, " +
		"(SELECT COUNT(*) FROM idea_likes WHERE idea_likes.idea_id = ideas.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM idea_likes WHERE idea_likes.idea_id = ideas.id AND idea_likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as liked")
}

// attachLikers fills LikedBy for full single-idea payloads.
func (r *ideaRepository) attachLikers(ctx context.Context, idea *models.Idea) error {
	var userIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.IdeaLike{}).
		Where("idea_id = ?", idea.ID).
		Order("created_at ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return err
	}
	idea.LikedBy = userIDs
	return nil
}

// attachLikersBatch fills LikedBy for a page of ideas with one query.
func (r *ideaRepository) attachLikersBatch(ctx context.Context, ideas []*models.Idea) error {
	if len(ideas) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(ideas))
	byID := make(map[uint]*models.Idea, len(ideas))
	for _, idea := range ideas {
		ids = append(ids, idea.ID)
		byID[idea.ID] = idea
	}

	var likes []models.IdeaLike
	err := r.db.WithContext(ctx).
		Where("idea_id IN ?", ids).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return err
	}
	for _, like := range likes {
		if idea, ok := byID[like.IdeaID]; ok {
			idea.LikedBy = append(idea.LikedBy, like.UserID)
		}
	}
	return nil
}

func (r *ideaRepository) Update(ctx context.Context, idea *models.Idea) error {
	err := r.db.WithContext(ctx).
		Model(&models.Idea{}).
		Where("id = ?", idea.ID).
		Updates(map[string]interface{}{
			"title":       idea.Title,
			"description": idea.Description,
			"subject":     idea.Subject,
			"anonymous":   idea.Anonymous,
		}).Error
	return err
}

// UpdateStatus sets the idea's status and appends the history entry in one
// transaction so the history never disagrees with the current status.
func (r *ideaRepository) UpdateStatus(ctx context.Context, id uint, status string, change *models.StatusChange) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Idea{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return err
		}
		change.IdeaID = id
		change.Status = status
		return tx.Create(change).Error
	})
	return err
}

func (r *ideaRepository) IsLiked(ctx context.Context, userID, ideaID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.IdeaLike{}).
		Where("user_id = ? AND idea_id = ?", userID, ideaID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ideaRepository) Like(ctx context.Context, userID, ideaID uint) error {
	// ON CONFLICT DO NOTHING keeps concurrent double-clicks idempotent.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.IdeaLike{UserID: userID, IdeaID: ideaID}).Error
	return err
}

func (r *ideaRepository) Unlike(ctx context.Context, userID, ideaID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idea_id = ?", userID, ideaID).
		Delete(&models.IdeaLike{}).Error
	return err
}

func (r *ideaRepository) LikedBy(ctx context.Context, ideaID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.IdeaLike{}).
		Where("idea_id = ?", ideaID).
		Order("created_at ASC").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *ideaRepository) LikesCount(ctx context.Context, ideaID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IdeaLike{}).
		Where("idea_id = ?", ideaID).
		Count(&count).Error
	return int(count), err
}
