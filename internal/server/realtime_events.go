package server

import (
	"context"
	"encoding/json"
	"log"

	"ideaboard/internal/models"
	"ideaboard/internal/observability"
)

// Event type constants prevent typos in event names.
const (
	EventIdeaCreated     = "idea-created"
	EventIdeaEdited      = "idea-edited"
	EventIdeaLikeChanged = "idea-like-changed"
	EventStatusChanged   = "status-changed"
)

// publishBoardEvent fans an event out to local websocket clients and, through
// Redis, to clients connected to peer instances. Delivery is best effort;
// clients that miss an event recover on their next full fetch.
func (s *Server) publishBoardEvent(eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	observability.BoardEventsPublished.WithLabelValues(eventType).Inc()

	if s.notifier != nil && s.redis != nil {
		// The hub is subscribed to the same channel, so local clients get
		// the event through Redis along with every other instance.
		if err := s.notifier.PublishBoard(context.Background(), message); err != nil {
			log.Printf("failed to publish %s board event: %v", eventType, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
}

func userSummary(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	}
}

// maskedCard strips the creator from anonymous ideas before broadcast. The
// channel fans out to every client, so per-viewer exceptions cannot apply.
func maskedCard(idea *models.Idea) *models.Idea {
	if !idea.Anonymous {
		return idea
	}
	card := *idea
	card.UserID = 0
	card.User = models.User{Username: "Anonymous"}
	return &card
}
