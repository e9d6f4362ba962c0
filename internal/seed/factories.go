// Package seed populates the database with realistic demo data for local
// development and load testing.
package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ideaboard/internal/models"
)

// defaultSubjects are the board categories a fresh demo database starts with.
var defaultSubjects = []string{
	"Operations", "People", "Product", "Engineering", "Facilities",
}

var ideaTitleVerbs = []string{
	"Streamline", "Automate", "Rethink", "Simplify", "Open up", "Consolidate",
}

// Options controls seeder volume.
type Options struct {
	Users    int
	Ideas    int
	MaxLikes int
}

// DefaultOptions is a board big enough to exercise sorting and quotas.
func DefaultOptions() Options {
	return Options{Users: 25, Ideas: 60, MaxLikes: 8}
}

// Factory creates demo records.
type Factory struct {
	db *gorm.DB
}

// NewFactory wires a factory and seeds the generator for varied content.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db}
}

// ClearAll wipes every seeded table. Order matters for foreign keys.
func (f *Factory) ClearAll() error {
	for _, model := range []interface{}{
		&models.IdeaLike{}, &models.StatusChange{}, &models.Idea{},
		&models.Subject{}, &models.User{},
	} {
		if err := f.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// CreateUser builds one user; overrides tweak individual fields.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:     models.RoleMember,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSubjects inserts the category list, skipping names already present.
func (f *Factory) CreateSubjects(names []string) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0, len(names))
	for _, name := range names {
		subjects = append(subjects, models.Subject{Name: name})
	}
	err := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// CreateIdea builds one idea for the given user and subject.
func (f *Factory) CreateIdea(user *models.User, subject string, overrides ...func(*models.Idea)) (*models.Idea, error) {
	verb := ideaTitleVerbs[gofakeit.Number(0, len(ideaTitleVerbs)-1)]
	idea := &models.Idea{
		PublicID:    uuid.NewString(),
		Title:       truncate(fmt.Sprintf("%s %s", verb, gofakeit.BuzzWord()), models.MaxTitleLen),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		Subject:     subject,
		Status:      models.StatusUnderReview,
		Anonymous:   gofakeit.Number(0, 9) == 0,
		UserID:      user.ID,
	}
	for _, override := range overrides {
		override(idea)
	}
	if err := f.db.Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

// AddLike records a like, ignoring duplicates.
func (f *Factory) AddLike(userID, ideaID uint) error {
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.IdeaLike{UserID: userID, IdeaID: ideaID}).Error
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
