package repository

import (
	"testing"

	"ideaboard/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database per test so tests stay
// independent and parallel-safe.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Idea{},
		&models.IdeaLike{},
		&models.StatusChange{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Username: name, Role: models.RoleMember}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedIdea(t *testing.T, db *gorm.DB, userID uint, title string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		PublicID:    title + "-pid",
		Title:       title,
		Description: "a description",
		Subject:     "Operations",
		Status:      models.StatusUnderReview,
		UserID:      userID,
	}
	if err := db.Create(idea).Error; err != nil {
		t.Fatalf("failed to seed idea: %v", err)
	}
	return idea
}
