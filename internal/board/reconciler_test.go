package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaboard/internal/models"
)

func TestInitializePartitionsIdeasBySubject(t *testing.T) {
	t.Parallel()

	api := &remoteStub{
		fetchIdeasFn: func(ctx context.Context) ([]*models.Idea, error) {
			return []*models.Idea{
				testIdea(1, "HR", 2, time.Now()),
				testIdea(2, "IT", 5, time.Now()),
			}, nil
		},
		fetchSubjectsFn: func(ctx context.Context) ([]string, error) {
			return []string{"HR", "IT"}, nil
		},
	}
	proj := NewProjection()
	rec := NewReconciler(proj, api, nil)

	require.NoError(t, rec.Initialize(context.Background()))

	view := proj.SortedView()
	require.Len(t, view["HR"], 1)
	require.Len(t, view["IT"], 1)
	assert.Equal(t, uint(1), view["HR"][0].ID)
	assert.Equal(t, uint(2), view["IT"][0].ID)
}

func TestInitializeFailsWholesaleOnFetchError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		ideasErr    error
		subjectsErr error
	}{
		{name: "ideas fetch fails", ideasErr: errors.New("boom")},
		{name: "subjects fetch fails", subjectsErr: errors.New("boom")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			api := &remoteStub{
				fetchIdeasFn: func(ctx context.Context) ([]*models.Idea, error) {
					if tc.ideasErr != nil {
						return nil, tc.ideasErr
					}
					return []*models.Idea{testIdea(1, "HR", 0, time.Now())}, nil
				},
				fetchSubjectsFn: func(ctx context.Context) ([]string, error) {
					if tc.subjectsErr != nil {
						return nil, tc.subjectsErr
					}
					return []string{"HR"}, nil
				},
			}
			proj := NewProjection()
			rec := NewReconciler(proj, api, nil)

			err := rec.Initialize(context.Background())
			require.Error(t, err)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeFetchError, appErr.Code)
			assert.Equal(t, 0, proj.Len())
			assert.Empty(t, proj.Subjects())
		})
	}
}

func TestApplyCreatedIgnoresDuplicateDelivery(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, nil)
	rec := NewReconciler(proj, &remoteStub{}, nil)

	idea := testIdea(7, "HR", 0, time.Now())
	rec.ApplyCreated(*idea)
	rec.ApplyCreated(*idea)

	assert.Len(t, proj.SortedView()["HR"], 1)
}

func TestApplyCreatedBuildsMissingBucket(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, nil)
	rec := NewReconciler(proj, &remoteStub{}, nil)

	rec.ApplyCreated(*testIdea(1, "Facilities", 0, time.Now()))

	view := proj.SortedView()
	require.Len(t, view["Facilities"], 1)
}

func TestApplyEditedMovesIdeaBetweenBuckets(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	proj := NewProjection()
	proj.Replace([]string{"HR", "IT"}, []*models.Idea{
		testIdea(1, "HR", 2, base),
		testIdea(2, "IT", 5, base),
	})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	rec.ApplyEdited(1, map[string]interface{}{"subject": "IT"}, "HR")

	view := proj.SortedView()
	assert.Empty(t, view["HR"])
	require.Len(t, view["IT"], 2)
	assert.Equal(t, uint(2), view["IT"][0].ID)
	assert.Equal(t, uint(1), view["IT"][1].ID)
}

func TestApplyEditedShallowMergePreservesOtherFields(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	idea := testIdea(1, "HR", 4, time.Now())
	idea.Description = "original description"
	proj.Replace([]string{"HR"}, []*models.Idea{idea})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	rec.ApplyEdited(1, map[string]interface{}{"title": "New title"}, "HR")

	got, ok := proj.Get(1)
	require.True(t, ok)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "original description", got.Description)
	assert.Equal(t, 4, got.LikesCount)
	assert.Equal(t, "HR", got.Subject)
}

func TestApplyEditedUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{testIdea(1, "HR", 0, time.Now())})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	// The previousSubject hint is stale and the id never existed.
	rec.ApplyEdited(42, map[string]interface{}{"title": "x"}, "IT")

	assert.Equal(t, 1, proj.Len())
}

func TestApplyLikeChangedKeepsCountDerivedFromSet(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{testIdea(1, "HR", 0, time.Now())})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	steps := []struct {
		userID  uint
		isLiked bool
		count   int
	}{
		{userID: 10, isLiked: true, count: 1},
		{userID: 11, isLiked: true, count: 2},
		{userID: 10, isLiked: true, count: 2}, // duplicate delivery
		{userID: 10, isLiked: false, count: 1},
		{userID: 11, isLiked: false, count: 0},
		{userID: 11, isLiked: false, count: 0}, // duplicate delivery
	}

	for _, step := range steps {
		rec.ApplyLikeChanged(1, step.count, step.userID, step.isLiked)

		got, ok := proj.Get(1)
		require.True(t, ok)
		assert.Equal(t, step.count, got.LikesCount)
		assert.Len(t, got.LikedBy, got.LikesCount)
	}
}

func TestApplyLikeChangedLeavesEarlierViewsIntact(t *testing.T) {
	t.Parallel()

	seed := testIdea(1, "HR", 3, time.Now())
	seed.LikedBy = []uint{10, 20, 30}
	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{seed})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	held := proj.SortedView()["HR"][0]
	rec.ApplyLikeChanged(1, 2, 10, false)

	assert.Equal(t, []uint{10, 20, 30}, held.LikedBy)

	got, ok := proj.Get(1)
	require.True(t, ok)
	assert.Equal(t, []uint{20, 30}, got.LikedBy)
	assert.Equal(t, 2, got.LikesCount)
}

func TestApplyStatusChangedReplacesStoredCopy(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{testIdea(1, "HR", 3, time.Now())})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	authoritative := testIdea(1, "HR", 3, time.Now())
	authoritative.Status = models.StatusInProgress
	authoritative.History = []models.StatusChange{
		{IdeaID: 1, Status: models.StatusInProgress, ChangedBy: 2},
	}
	rec.ApplyStatusChanged(*authoritative)

	got, ok := proj.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.Len(t, got.History, 1)
}

func TestHandleEventDispatchesByType(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{testIdea(1, "HR", 0, time.Now())})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	rec.HandleEvent([]byte(`{"type":"idea-created","payload":{"card":{"id":2,"subject":"HR","title":"t","description":"d","status":"Under Review"}}}`))
	assert.True(t, proj.Contains(2))

	rec.HandleEvent([]byte(`{"type":"idea-edited","payload":{"ideaId":1,"updatedFields":{"title":"renamed"},"previousSubject":"HR"}}`))
	got, _ := proj.Get(1)
	assert.Equal(t, "renamed", got.Title)

	// Both spellings of the like event are accepted.
	rec.HandleEvent([]byte(`{"type":"idea-like-changed","payload":{"ideaId":1,"likesCount":1,"userId":9,"isLiked":true}}`))
	got, _ = proj.Get(1)
	assert.Equal(t, 1, got.LikesCount)

	rec.HandleEvent([]byte(`{"type":"like-changed","payload":{"ideaId":1,"likesCount":0,"userId":9,"isLiked":false}}`))
	got, _ = proj.Get(1)
	assert.Equal(t, 0, got.LikesCount)

	rec.HandleEvent([]byte(`{"type":"status-changed","payload":{"idea":{"id":1,"subject":"HR","status":"In Progress"}}}`))
	got, _ = proj.Get(1)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestHandleEventDropsMalformedInput(t *testing.T) {
	t.Parallel()

	proj := NewProjection()
	proj.Replace([]string{"HR"}, []*models.Idea{testIdea(1, "HR", 0, time.Now())})
	rec := NewReconciler(proj, &remoteStub{}, nil)

	rec.HandleEvent([]byte(`not json`))
	rec.HandleEvent([]byte(`{"type":"idea-created","payload":"not an object"}`))
	rec.HandleEvent([]byte(`{"type":"totally-unknown","payload":{}}`))

	assert.Equal(t, 1, proj.Len())
}
