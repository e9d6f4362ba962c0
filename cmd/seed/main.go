// Command main runs the database seeder for the idea board.
package main

import (
	"flag"
	"log"

	"ideaboard/internal/config"
	"ideaboard/internal/database"
	"ideaboard/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numIdeas := flag.Int("ideas", 60, "Number of ideas to create")
	maxLikes := flag.Int("max-likes", 8, "Maximum likes per idea")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d ideas, clean=%v\n", *numUsers, *numIdeas, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		if err := seed.NewFactory(db).ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		log.Println("Cleared existing data")
	}

	err = seed.Run(db, seed.Options{
		Users:    *numUsers,
		Ideas:    *numIdeas,
		MaxLikes: *maxLikes,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
