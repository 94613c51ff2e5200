package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/api/handlers"
	"github.com/openfleet/autoscaler/pkg/database/queries"
	"github.com/openfleet/autoscaler/pkg/models"
)

type stubActionStore struct {
	byTarget []*models.ScalingAction
	recent   []*models.ScalingAction
	stats    *queries.ActionStats
	err      error

	gotTarget string
	gotFrom   time.Time
	gotTo     time.Time
	gotLimit  int
}

func (s *stubActionStore) GetByTarget(_ context.Context, targetID string, from, to time.Time, limit int) ([]*models.ScalingAction, error) {
	s.gotTarget = targetID
	s.gotFrom = from
	s.gotTo = to
	s.gotLimit = limit
	return s.byTarget, s.err
}

func (s *stubActionStore) GetRecent(_ context.Context, limit int) ([]*models.ScalingAction, error) {
	s.gotLimit = limit
	return s.recent, s.err
}

func (s *stubActionStore) GetStats(_ context.Context, targetID string, from, to time.Time) (*queries.ActionStats, error) {
	s.gotTarget = targetID
	s.gotFrom = from
	s.gotTo = to
	return s.stats, s.err
}

func newActionsRouter(store *stubActionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewActionsHandler(store, 50, 500)

	router := gin.New()
	router.GET("/targets/:id/actions/archive", h.Archive)
	router.GET("/targets/:id/actions/stats", h.Stats)
	router.GET("/actions/recent", h.Recent)
	return router
}

func doActionsRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestActionsArchive(t *testing.T) {
	store := &stubActionStore{
		byTarget: []*models.ScalingAction{
			{
				ID:        "act-1",
				TargetID:  "web",
				Timestamp: time.Now(),
				Direction: models.DirectionUp,
				Trigger:   models.TriggerThreshold,
				FromCount: 3,
				ToCount:   4,
				Success:   true,
			},
		},
	}
	router := newActionsRouter(store)

	w := doActionsRequest(router, "/targets/web/actions/archive")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TargetID string                  `json:"target_id"`
		Actions  []*models.ScalingAction `json:"actions"`
		Count    int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "web", resp.TargetID)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "act-1", resp.Actions[0].ID)

	assert.Equal(t, "web", store.gotTarget)
	assert.Equal(t, 50, store.gotLimit)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.gotFrom, 5*time.Second)
	assert.WithinDuration(t, time.Now(), store.gotTo, 5*time.Second)
}

func TestActionsArchive_ExplicitWindow(t *testing.T) {
	store := &stubActionStore{}
	router := newActionsRouter(store)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	w := doActionsRequest(router,
		"/targets/web/actions/archive?from="+from.Format(time.RFC3339)+"&to="+to.Format(time.RFC3339)+"&limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, store.gotFrom.Equal(from))
	assert.True(t, store.gotTo.Equal(to))
	assert.Equal(t, 10, store.gotLimit)
}

func TestActionsArchive_BadParams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"bad from", "/targets/web/actions/archive?from=yesterday"},
		{"bad to", "/targets/web/actions/archive?to=12345"},
		{"inverted window", "/targets/web/actions/archive?from=2026-08-02T00:00:00Z&to=2026-08-01T00:00:00Z"},
		{"bad limit", "/targets/web/actions/archive?limit=abc"},
		{"zero limit", "/targets/web/actions/archive?limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newActionsRouter(&stubActionStore{})
			w := doActionsRequest(router, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestActionsArchive_LimitClamped(t *testing.T) {
	store := &stubActionStore{}
	router := newActionsRouter(store)

	w := doActionsRequest(router, "/targets/web/actions/archive?limit=9999")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, store.gotLimit)
}

func TestActionsArchive_StoreError(t *testing.T) {
	store := &stubActionStore{err: errors.New("connection refused")}
	router := newActionsRouter(store)

	w := doActionsRequest(router, "/targets/web/actions/archive")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestActionsStats(t *testing.T) {
	store := &stubActionStore{
		stats: &queries.ActionStats{
			TargetID:       "web",
			ScaleUpCount:   7,
			ScaleDownCount: 2,
			SuccessCount:   8,
			FailedCount:    1,
		},
	}
	router := newActionsRouter(store)

	w := doActionsRequest(router, "/targets/web/actions/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats queries.ActionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "web", stats.TargetID)
	assert.Equal(t, 7, stats.ScaleUpCount)
	assert.Equal(t, 2, stats.ScaleDownCount)
	assert.Equal(t, 8, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailedCount)
	assert.Equal(t, "web", store.gotTarget)
}

func TestActionsRecent(t *testing.T) {
	store := &stubActionStore{
		recent: []*models.ScalingAction{
			{ID: "act-2", TargetID: "api", Direction: models.DirectionDown},
			{ID: "act-1", TargetID: "web", Direction: models.DirectionUp},
		},
	}
	router := newActionsRouter(store)

	w := doActionsRequest(router, "/actions/recent?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Actions []*models.ScalingAction `json:"actions"`
		Count   int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Actions, 2)
	assert.Equal(t, "act-2", resp.Actions[0].ID)
	assert.Equal(t, 2, store.gotLimit)
}
