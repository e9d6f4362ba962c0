package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ideaboard/internal/models"
)

// MutationState is the lifecycle of one optimistic mutation.
type MutationState string

const (
	MutationIdle       MutationState = "idle"
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
)

// CreateInput carries the fields for a new idea submission.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Anonymous   bool   `json:"anonymous"`
}

// EditFields carries a partial update; nil fields are left untouched.
type EditFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	Anonymous   *bool   `json:"anonymous,omitempty"`
}

// Mutator submits user actions to the remote store. Likes are optimistic:
// the projection and ledger are updated before the round trip and rolled
// back to an exact snapshot on failure. Edits and status changes are not
// optimistic; the board catches up through the event channel instead.
type Mutator struct {
	proj   *Projection
	rec    *Reconciler
	api    RemoteStore
	ledger *LikeLedger
	userID uint
	log    *slog.Logger

	mu       sync.Mutex
	inflight map[uint]bool
	states   map[uint]MutationState
}

// NewMutator wires a mutator for one user's session.
func NewMutator(proj *Projection, rec *Reconciler, api RemoteStore, ledger *LikeLedger, userID uint, log *slog.Logger) *Mutator {
	if log == nil {
		log = slog.Default()
	}
	return &Mutator{
		proj:     proj,
		rec:      rec,
		api:      api,
		ledger:   ledger,
		userID:   userID,
		log:      log,
		inflight: make(map[uint]bool),
		states:   make(map[uint]MutationState),
	}
}

// LikeState reports the lifecycle state of the most recent like mutation for
// an idea, so callers can render a pending control.
func (m *Mutator) LikeState(ideaID uint) MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[ideaID]; ok {
		return st
	}
	return MutationIdle
}

// likeSnapshot is the pre-mutation state restored on rollback.
type likeSnapshot struct {
	likesCount int
	wasLiked   bool
}

// Like registers the current user's like on an idea. The local quota and a
// single-flight check are resolved before any network call; on success the
// server's returned count overwrites the optimistic guess.
func (m *Mutator) Like(ctx context.Context, ideaID uint) (int, error) {
	m.mu.Lock()
	if m.inflight[ideaID] {
		m.mu.Unlock()
		return 0, models.NewConflictError("A like for this idea is already in flight")
	}

	idea, ok := m.proj.Get(ideaID)
	if !ok {
		m.mu.Unlock()
		return 0, models.NewNotFoundError("Idea", ideaID)
	}
	if idea.UserID == m.userID {
		m.mu.Unlock()
		return 0, models.NewSelfActionError("You cannot like your own idea")
	}

	if m.ledger.Remaining() == 0 {
		m.mu.Unlock()
		return 0, models.NewQuotaExceededError(
			fmt.Sprintf("Daily like limit of %d reached", m.ledger.Limit()))
	}

	m.inflight[ideaID] = true
	m.states[ideaID] = MutationPending
	m.mu.Unlock()

	snap := likeSnapshot{likesCount: idea.LikesCount, wasLiked: containsLiker(idea.LikedBy, m.userID)}

	m.proj.Update(ideaID, func(i *models.Idea) {
		i.LikedBy = addLiker(i.LikedBy, m.userID)
		i.LikesCount = snap.likesCount + 1
		i.Liked = true
	})
	m.ledger.DecrementOptimistically()

	likeCount, err := m.api.Like(ctx, ideaID)
	if err != nil {
		m.rollbackLike(ideaID, snap)
		return 0, err
	}

	m.proj.Update(ideaID, func(i *models.Idea) {
		i.LikesCount = likeCount
	})
	m.finish(ideaID, MutationCommitted)
	return likeCount, nil
}

// Unlike withdraws the current user's like, restoring one quota slot on
// success. It follows the same optimistic shape as Like.
func (m *Mutator) Unlike(ctx context.Context, ideaID uint) (int, error) {
	m.mu.Lock()
	if m.inflight[ideaID] {
		m.mu.Unlock()
		return 0, models.NewConflictError("A like for this idea is already in flight")
	}

	idea, ok := m.proj.Get(ideaID)
	if !ok {
		m.mu.Unlock()
		return 0, models.NewNotFoundError("Idea", ideaID)
	}
	if !containsLiker(idea.LikedBy, m.userID) {
		m.mu.Unlock()
		return idea.LikesCount, nil
	}

	m.inflight[ideaID] = true
	m.states[ideaID] = MutationPending
	m.mu.Unlock()

	snap := likeSnapshot{likesCount: idea.LikesCount, wasLiked: true}

	m.proj.Update(ideaID, func(i *models.Idea) {
		i.LikedBy = removeLiker(i.LikedBy, m.userID)
		i.LikesCount = snap.likesCount - 1
		i.Liked = false
	})

	likeCount, err := m.api.Unlike(ctx, ideaID)
	if err != nil {
		m.proj.Update(ideaID, func(i *models.Idea) {
			i.LikedBy = addLiker(i.LikedBy, m.userID)
			i.LikesCount = snap.likesCount
			i.Liked = true
		})
		m.finish(ideaID, MutationRolledBack)
		return 0, err
	}

	m.proj.Update(ideaID, func(i *models.Idea) {
		i.LikesCount = likeCount
	})
	m.ledger.Refund()
	m.finish(ideaID, MutationCommitted)
	return likeCount, nil
}

func (m *Mutator) rollbackLike(ideaID uint, snap likeSnapshot) {
	m.proj.Update(ideaID, func(i *models.Idea) {
		if !snap.wasLiked {
			i.LikedBy = removeLiker(i.LikedBy, m.userID)
		}
		i.LikesCount = snap.likesCount
		i.Liked = snap.wasLiked
	})
	m.ledger.Refund()
	m.finish(ideaID, MutationRolledBack)
}

func (m *Mutator) finish(ideaID uint, state MutationState) {
	m.mu.Lock()
	delete(m.inflight, ideaID)
	m.states[ideaID] = state
	m.mu.Unlock()
}

// Create validates and submits a new idea, then inserts the returned card
// early. The matching idea-created event is ignored as a duplicate.
func (m *Mutator) Create(ctx context.Context, in CreateInput) (*models.Idea, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateContent(in.Title, in.Description); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Subject) == "" {
		return nil, models.NewValidationError("Subject is required")
	}

	idea, err := m.api.CreateIdea(ctx, in)
	if err != nil {
		return nil, err
	}
	m.rec.ApplyCreated(*idea)
	return idea, nil
}

// Edit validates and submits a partial update. The board is not updated
// here; the idea-edited event carries the authoritative merge.
func (m *Mutator) Edit(ctx context.Context, ideaID uint, fields EditFields) (*models.Idea, error) {
	if fields.Title == nil && fields.Description == nil && fields.Subject == nil && fields.Anonymous == nil {
		return nil, models.NewValidationError("No fields to update")
	}
	if fields.Title != nil {
		trimmed := strings.TrimSpace(*fields.Title)
		fields.Title = &trimmed
	}
	title := ""
	if fields.Title != nil {
		title = *fields.Title
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
	}
	description := ""
	if fields.Description != nil {
		description = *fields.Description
		if description == "" {
			return nil, models.NewValidationError("Description is required")
		}
	}
	if err := validateLengths(title, description); err != nil {
		return nil, err
	}
	if fields.Subject != nil && strings.TrimSpace(*fields.Subject) == "" {
		return nil, models.NewValidationError("Subject is required")
	}

	if !m.proj.Contains(ideaID) {
		m.log.Debug("editing idea not present locally", "idea_id", ideaID)
	}
	return m.api.UpdateIdea(ctx, ideaID, fields)
}

// ChangeStatus submits a status transition and applies the returned
// authoritative copy immediately.
func (m *Mutator) ChangeStatus(ctx context.Context, ideaID uint, newStatus, reason string) (*models.Idea, error) {
	if !models.ValidStatus(newStatus) {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown status %q", newStatus))
	}

	idea, err := m.api.ChangeStatus(ctx, ideaID, newStatus, reason)
	if err != nil {
		return nil, err
	}
	m.rec.ApplyStatusChanged(*idea)
	return idea, nil
}

func validateContent(title, description string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if description == "" {
		return models.NewValidationError("Description is required")
	}
	return validateLengths(title, description)
}

func validateLengths(title, description string) error {
	if len([]rune(title)) > models.MaxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", models.MaxTitleLen))
	}
	if len([]rune(description)) > models.MaxDescriptionLen {
		return models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", models.MaxDescriptionLen))
	}
	return nil
}

func containsLiker(likedBy []uint, userID uint) bool {
	for _, id := range likedBy {
		if id == userID {
			return true
		}
	}
	return false
}
