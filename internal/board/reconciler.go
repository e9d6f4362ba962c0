package board

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ideaboard/internal/models"
)

// RemoteStore is the REST surface the board core talks to. Implemented by
// the remote package.
type RemoteStore interface {
	FetchIdeas(ctx context.Context) ([]*models.Idea, error)
	FetchSubjects(ctx context.Context) ([]string, error)
	CreateIdea(ctx context.Context, in CreateInput) (*models.Idea, error)
	UpdateIdea(ctx context.Context, ideaID uint, fields EditFields) (*models.Idea, error)
	Like(ctx context.Context, ideaID uint) (likeCount int, err error)
	Unlike(ctx context.Context, ideaID uint) (likeCount int, err error)
	ChangeStatus(ctx context.Context, ideaID uint, newStatus, reason string) (*models.Idea, error)
	FetchStats(ctx context.Context, userID uint) (*models.UserStats, error)
}

// Event type names as they travel on the event channel. The like event name
// drifted in older deployments, so both spellings are accepted on receive.
const (
	EventIdeaCreated        = "idea-created"
	EventIdeaEdited         = "idea-edited"
	EventIdeaLikeChanged    = "idea-like-changed"
	EventIdeaLikeChangedAlt = "like-changed"
	EventStatusChanged      = "status-changed"
)

// Event is the wire envelope delivered by the event channel.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createdPayload struct {
	Card models.Idea `json:"card"`
}

type editedPayload struct {
	IdeaID          uint                   `json:"ideaId"`
	UpdatedFields   map[string]interface{} `json:"updatedFields"`
	PreviousSubject string                 `json:"previousSubject"`
}

type likeChangedPayload struct {
	IdeaID     uint `json:"ideaId"`
	LikesCount int  `json:"likesCount"`
	UserID     uint `json:"userId"`
	IsLiked    bool `json:"isLiked"`
}

type statusChangedPayload struct {
	Idea models.Idea `json:"idea"`
}

// Reconciler keeps the projection consistent with the remote store. Every
// apply operation is defensive: events may arrive duplicated, out of order,
// or for ids this client has never seen, and none of that may crash it.
type Reconciler struct {
	proj *Projection
	api  RemoteStore
	log  *slog.Logger
}

// NewReconciler wires a reconciler to its projection and remote store.
func NewReconciler(proj *Projection, api RemoteStore, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{proj: proj, api: api, log: log}
}

// Initialize fetches the full idea set and the category list in parallel and
// swaps them into the projection in one step. If either call fails the
// projection is left untouched and a FetchError is returned, so callers
// never observe a half-loaded board.
func (r *Reconciler) Initialize(ctx context.Context) error {
	var (
		wg          sync.WaitGroup
		ideas       []*models.Idea
		subjects    []string
		ideasErr    error
		subjectsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ideas, ideasErr = r.api.FetchIdeas(ctx)
	}()
	go func() {
		defer wg.Done()
		subjects, subjectsErr = r.api.FetchSubjects(ctx)
	}()
	wg.Wait()

	if ideasErr != nil {
		return models.NewFetchError(ideasErr)
	}
	if subjectsErr != nil {
		return models.NewFetchError(subjectsErr)
	}

	r.proj.Replace(subjects, ideas)
	return nil
}

// ApplyCreated inserts a new idea into its subject bucket. Duplicate
// delivery of the same id is ignored.
func (r *Reconciler) ApplyCreated(idea models.Idea) {
	if !r.proj.Insert(idea) {
		r.log.Debug("ignoring duplicate idea-created event", "idea_id", idea.ID)
	}
}

// ApplyEdited shallow-merges updated fields onto the stored idea. The
// previousSubject hint is only that, a hint; the projection's own index
// finds the idea wherever it actually is. Unknown ids log and drop.
func (r *Reconciler) ApplyEdited(ideaID uint, updatedFields map[string]interface{}, previousSubject string) {
	ok := r.proj.Update(ideaID, func(idea *models.Idea) {
		mergeFields(idea, updatedFields)
	})
	if !ok {
		r.log.Warn("edit event for unknown idea, dropping",
			"idea_id", ideaID, "previous_subject", previousSubject)
	}
}

// ApplyLikeChanged sets the authoritative like count and adjusts the likedBy
// set, keeping likeCount equal to the set size.
func (r *Reconciler) ApplyLikeChanged(ideaID uint, likesCount int, userID uint, isLiked bool) {
	ok := r.proj.Update(ideaID, func(idea *models.Idea) {
		if isLiked {
			idea.LikedBy = addLiker(idea.LikedBy, userID)
		} else {
			idea.LikedBy = removeLiker(idea.LikedBy, userID)
		}
		idea.LikesCount = likesCount
	})
	if !ok {
		r.log.Warn("like event for unknown idea, dropping", "idea_id", ideaID)
	}
}

// ApplyStatusChanged replaces the stored idea with the authoritative copy
// pushed alongside the status transition.
func (r *Reconciler) ApplyStatusChanged(idea models.Idea) {
	if !r.proj.Put(idea) {
		r.log.Warn("status event for unknown idea, dropping", "idea_id", idea.ID)
	}
}

// ReloadSubjects refetches the category list and rebuilds bucket membership.
func (r *Reconciler) ReloadSubjects(ctx context.Context) error {
	subjects, err := r.api.FetchSubjects(ctx)
	if err != nil {
		return models.NewFetchError(err)
	}
	r.proj.ReplaceSubjects(subjects)
	return nil
}

// HandleEvent decodes an envelope from the event channel and dispatches it.
// Malformed events are logged and dropped.
func (r *Reconciler) HandleEvent(raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		r.log.Warn("malformed board event, dropping", "error", err)
		return
	}

	switch ev.Type {
	case EventIdeaCreated:
		var p createdPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			r.log.Warn("malformed idea-created payload, dropping", "error", err)
			return
		}
		r.ApplyCreated(p.Card)

	case EventIdeaEdited:
		var p editedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			r.log.Warn("malformed idea-edited payload, dropping", "error", err)
			return
		}
		r.ApplyEdited(p.IdeaID, p.UpdatedFields, p.PreviousSubject)

	case EventIdeaLikeChanged, EventIdeaLikeChangedAlt:
		var p likeChangedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			r.log.Warn("malformed like-changed payload, dropping", "error", err)
			return
		}
		r.ApplyLikeChanged(p.IdeaID, p.LikesCount, p.UserID, p.IsLiked)

	case EventStatusChanged:
		var p statusChangedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			r.log.Warn("malformed status-changed payload, dropping", "error", err)
			return
		}
		r.ApplyStatusChanged(p.Idea)

	default:
		r.log.Debug("unknown board event type, dropping", "type", ev.Type)
	}
}

// mergeFields applies the known editable fields from a wire map onto an idea.
func mergeFields(idea *models.Idea, fields map[string]interface{}) {
	if v, ok := fields["title"].(string); ok {
		idea.Title = v
	}
	if v, ok := fields["description"].(string); ok {
		idea.Description = v
	}
	if v, ok := fields["subject"].(string); ok {
		idea.Subject = v
	}
	if v, ok := fields["anonymous"].(bool); ok {
		idea.Anonymous = v
	}
	if v, ok := fields["status"].(string); ok {
		idea.Status = v
	}
}

func addLiker(likedBy []uint, userID uint) []uint {
	for _, id := range likedBy {
		if id == userID {
			return likedBy
		}
	}
	return append(likedBy, userID)
}

// removeLiker builds a new slice rather than shifting in place, so copies
// handed out earlier keep seeing the backing array they were cut from.
func removeLiker(likedBy []uint, userID uint) []uint {
	for i, id := range likedBy {
		if id == userID {
			out := make([]uint, 0, len(likedBy)-1)
			out = append(out, likedBy[:i]...)
			return append(out, likedBy[i+1:]...)
		}
	}
	return likedBy
}
