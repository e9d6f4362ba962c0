package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ideaboard/internal/config"
	"ideaboard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app    *fiber.App
	server *Server
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Subject{}, &models.Idea{},
		&models.IdeaLike{}, &models.StatusChange{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{Port: "0", Env: "test", DailyLikeLimit: 3}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	require.NoError(t, db.Create(&models.Subject{Name: "Operations"}).Error)
	require.NoError(t, db.Create(&models.Subject{Name: "People"}).Error)

	return &testEnv{app: app, server: srv, db: db}
}

func (e *testEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createIdea(t *testing.T, userID uint, title string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		PublicID:    title + "-pid",
		Title:       title,
		Description: "a description",
		Subject:     "Operations",
		Status:      models.StatusUnderReview,
		UserID:      userID,
	}
	require.NoError(t, e.db.Create(idea).Error)
	return idea
}

func (e *testEnv) request(t *testing.T, method, path string, userID uint, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestCreateIdeaEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)

	resp := env.request(t, http.MethodPost, "/api/ideas", author.ID, map[string]any{
		"title":       "Faster reviews",
		"description": "Cut the review queue in half",
		"subject":     "Operations",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var idea models.Idea
	decodeBody(t, resp, &idea)
	assert.Equal(t, "Faster reviews", idea.Title)
	assert.Equal(t, models.StatusUnderReview, idea.Status)
	assert.NotEmpty(t, idea.PublicID)
}

func TestCreateIdeaValidationError(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)

	resp := env.request(t, http.MethodPost, "/api/ideas", author.ID, map[string]any{
		"title":       "",
		"description": "body",
		"subject":     "Operations",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeValidation, errResp.Code)
}

func TestCreateIdeaRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/ideas", 0, map[string]any{
		"title": "x", "description": "y", "subject": "Operations",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetIdeasReturnsProjection(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	viewer := env.createUser(t, "bob", models.RoleMember)
	idea := env.createIdea(t, author.ID, "Standing desks")

	likeResp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), viewer.ID, nil)
	require.Equal(t, http.StatusOK, likeResp.StatusCode)
	_ = likeResp.Body.Close()

	resp := env.request(t, http.MethodGet, "/api/ideas", viewer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ideas []models.Idea
	decodeBody(t, resp, &ideas)
	require.Len(t, ideas, 1)
	assert.Equal(t, 1, ideas[0].LikesCount)
	assert.True(t, ideas[0].Liked)
}

func TestLikeIdeaSelfAction(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	idea := env.createIdea(t, author.ID, "My own idea")

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), author.ID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeSelfAction, errResp.Code)
}

func TestLikeIdeaQuotaExceeded(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	liker := env.createUser(t, "bob", models.RoleMember)

	for i := 0; i < 3; i++ {
		idea := env.createIdea(t, author.ID, fmt.Sprintf("Idea %d", i))
		resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), liker.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	extra := env.createIdea(t, author.ID, "One too many")
	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", extra.ID), liker.ID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeQuotaExceeded, errResp.Code)
}

func TestLikeIdeaReturnsLikeCount(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	liker := env.createUser(t, "bob", models.RoleMember)
	idea := env.createIdea(t, author.ID, "Bike parking")

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), liker.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body["likeCount"])
}

func TestUnlikeRefundsQuota(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	liker := env.createUser(t, "bob", models.RoleMember)
	idea := env.createIdea(t, author.ID, "Quiet rooms")

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), liker.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/ideas/%d/like", idea.ID), liker.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	statsResp := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d/stats", liker.ID), liker.ID, nil)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var stats models.UserStats
	decodeBody(t, statsResp, &stats)
	assert.Equal(t, 0, stats.DailyLikesUsed)
}

func TestUpdateIdeaCreatorOnlyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	other := env.createUser(t, "bob", models.RoleMember)
	idea := env.createIdea(t, author.ID, "Original title")

	resp := env.request(t, http.MethodPut, fmt.Sprintf("/api/ideas/%d", idea.ID), other.ID, map[string]any{
		"title": "Hijacked",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestChangeStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	manager := env.createUser(t, "meg", models.RoleManager)
	idea := env.createIdea(t, author.ID, "Better onboarding")

	// Plain members cannot change status.
	resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/ideas/%d/status", idea.ID), author.ID, map[string]any{
		"newStatus": models.StatusInProgress,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPatch, fmt.Sprintf("/api/ideas/%d/status", idea.ID), manager.ID, map[string]any{
		"newStatus": models.StatusInProgress,
		"reason":    "picked up by platform team",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Idea
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.Len(t, updated.History, 1)
	assert.Equal(t, "picked up by platform team", updated.History[0].Reason)
}

func TestChangeStatusTerminalEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	manager := env.createUser(t, "meg", models.RoleManager)
	idea := env.createIdea(t, author.ID, "Already approved")
	require.NoError(t, env.db.Model(idea).Update("status", models.StatusApproved).Error)

	resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/ideas/%d/status", idea.ID), manager.ID, map[string]any{
		"newStatus": models.StatusArchived,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, models.CodeConflict, errResp.Code)
}

func TestLikeClosedOutsideUnderReview(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", models.RoleMember)
	liker := env.createUser(t, "bob", models.RoleMember)
	idea := env.createIdea(t, author.ID, "In progress already")
	require.NoError(t, env.db.Model(idea).Update("status", models.StatusInProgress).Error)

	resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/ideas/%d/like", idea.ID), liker.ID, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetSubjectsPublic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/subjects", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subjects []string
	decodeBody(t, resp, &subjects)
	assert.Equal(t, []string{"Operations", "People"}, subjects)
}

func TestGetUserStatsOwnOnly(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "alice", models.RoleMember)
	b := env.createUser(t, "bob", models.RoleMember)

	resp := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d/stats", b.ID), a.ID, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
