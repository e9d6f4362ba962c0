package seed

import (
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"ideaboard/internal/models"
)

// Run fills the database with subjects, users, ideas, and likes per opts.
// Likes ignore the daily quota on purpose: seeded history represents many
// days of activity, and the quota only constrains today's new likes.
func Run(db *gorm.DB, opts Options) error {
	f := NewFactory(db)

	subjects, err := f.CreateSubjects(defaultSubjects)
	if err != nil {
		return fmt.Errorf("creating subjects: %w", err)
	}
	log.Printf("Created %d subjects", len(subjects))

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		overrides := []func(*models.User){}
		// The first user is a manager so status transitions are demoable.
		if i == 0 {
			overrides = append(overrides, func(u *models.User) { u.Role = models.RoleManager })
		}
		user, err := f.CreateUser(overrides...)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	ideas := make([]*models.Idea, 0, opts.Ideas)
	for i := 0; i < opts.Ideas; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		subject := subjects[gofakeit.Number(0, len(subjects)-1)].Name
		idea, err := f.CreateIdea(author, subject)
		if err != nil {
			return fmt.Errorf("creating idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	log.Printf("Created %d ideas", len(ideas))

	likes := 0
	for _, idea := range ideas {
		for i := 0; i < gofakeit.Number(0, opts.MaxLikes); i++ {
			liker := users[gofakeit.Number(0, len(users)-1)]
			if liker.ID == idea.UserID {
				continue
			}
			if err := f.AddLike(liker.ID, idea.ID); err != nil {
				return fmt.Errorf("adding like: %w", err)
			}
			likes++
		}
	}
	log.Printf("Created %d likes", likes)

	return nil
}
