package repository

import (
	"context"

	"ideaboard/internal/cache"
	"ideaboard/internal/models"

	"gorm.io/gorm"
)

// SubjectRepository defines persistence operations for board subjects.
type SubjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Exists(ctx context.Context, name string) (bool, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository returns a new SubjectRepository implementation.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	err := cache.CacheAside(ctx, cache.SubjectsKey, &subjects, cache.SubjectsTTL, func() error {
		return r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	err := r.db.WithContext(ctx).Create(subject).Error
	if err == nil {
		cache.InvalidateSubjects(ctx)
	}
	return err
}

func (r *subjectRepository) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}
