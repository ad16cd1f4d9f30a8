package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStats(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "stats", `[
	  {"date":"2026-10-01","webhooks":3,"approved":1,"rejected":0,"updates":2},
	  {"date":"2026-10-02","webhooks":0,"approved":0,"rejected":1,"updates":5}
	]`)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Stats.GetStats())

	require.NoError(t, s.Stats.Err())
	assert.False(t, s.Stats.Loading())
	assert.Len(t, s.Stats.Items(), 2)
	assert.Equal(t, 7, s.Stats.TotalUpdatesThisPeriod())
}

func TestGetStatsFailure(t *testing.T) {
	api := newFakeAPI().fail(http.MethodGet, "stats", http.StatusInternalServerError)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Stats.GetStats())
	require.Error(t, s.Stats.Err())
	assert.False(t, s.Stats.Loading())
	assert.Zero(t, s.Stats.TotalUpdatesThisPeriod())
}

func TestRefresh(t *testing.T) {
	api := newFakeAPI().
		reply(http.MethodGet, "resources", resourcesJSON).
		reply(http.MethodGet, "tracked", trackedJSON).
		reply(http.MethodGet, "approvals", approvalsJSON).
		reply(http.MethodGet, "stats", `[]`)
	s := New(Options{})
	s.Refresh(context.Background(), api)

	assert.Len(t, s.Resources.Items(), 2)
	assert.Len(t, s.Tracked.Items(), 2)
	assert.Len(t, s.Approvals.Items(), 3)
	assert.Empty(t, s.Stats.Items())
	assert.Len(t, api.calls, 4)
}
