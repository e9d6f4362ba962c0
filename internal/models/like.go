package models

import "time"

// IdeaLike records one user's like on one idea. The (user_id, idea_id) pair
// is unique; inserts race through ON CONFLICT DO NOTHING in the repository.
type IdeaLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_idea_likes_user_idea" json:"user_id"`
	IdeaID    uint      `gorm:"not null;uniqueIndex:idx_idea_likes_user_idea;index" json:"idea_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStats is the payload of GET /api/users/:id/stats.
type UserStats struct {
	DailyLikesUsed int `json:"daily_likes_used"`
}
