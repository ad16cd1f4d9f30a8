package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackedJSON = `[
  {"image":"keelhq/push-workflow-example","trigger":"default","pollSchedule":"","provider":"kubernetes","namespace":"default","policy":"major","registry":"index.docker.io"},
  {"image":"karolisr/webhook-demo","trigger":"poll","pollSchedule":"@every 1m","provider":"kubernetes","namespace":"prod","policy":"minor","registry":"quay.io"}
]`

func TestNormalizeTrackedImages(t *testing.T) {
	out := NormalizeTrackedImages([]model.TrackedImage{
		{Image: "a", Trigger: "default"},
		{Image: "b", Trigger: "poll"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "0", out[0].Row)
	assert.Equal(t, "1", out[1].Row)
	assert.Equal(t, "webhook/GCR", out[0].Trigger)
	assert.Equal(t, "poll", out[1].Trigger)
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestNormalizeTrackedImagesStableIDs(t *testing.T) {
	a := model.TrackedImage{Image: "a", Namespace: "default", Registry: "quay.io", Provider: "kubernetes"}
	b := model.TrackedImage{Image: "b", Namespace: "default", Registry: "quay.io", Provider: "kubernetes"}

	first := NormalizeTrackedImages([]model.TrackedImage{a, b})
	reordered := NormalizeTrackedImages([]model.TrackedImage{b, a})

	assert.Equal(t, first[0].ID, reordered[1].ID)
	assert.Equal(t, first[1].ID, reordered[0].ID)
	assert.Equal(t, "0", reordered[0].Row)
}

func TestNormalizeTrackedImagesDuplicates(t *testing.T) {
	img := model.TrackedImage{Image: "a", Namespace: "default"}
	out := NormalizeTrackedImages([]model.TrackedImage{img, img})
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestNormalizeTrackedImagesIdempotent(t *testing.T) {
	raw := []model.TrackedImage{{Image: "a", Trigger: "default"}}
	assert.Equal(t, NormalizeTrackedImages(raw), NormalizeTrackedImages(raw))
	assert.Equal(t, "default", raw[0].Trigger)
}

func TestGetTrackedImages(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "tracked", trackedJSON)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Tracked.GetTrackedImages())

	require.NoError(t, s.Tracked.Err())
	items := s.Tracked.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "webhook/GCR", items[0].Trigger)
	assert.Equal(t, "@every 1m", items[1].PollSchedule)
}

func TestSetTrackingFlagsResource(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", resourcesJSON)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Resources.GetResources())

	Dispatch(context.Background(), api, s.Tracked.SetTracking(model.TrackingUpdate{
		Identifier: "deployment/prod/api",
		Trigger:    "poll",
		Schedule:   "@every 5m",
	}))

	require.NoError(t, s.Tracked.Err())
	assert.True(t, s.Resources.Items()[1].Loading)
	last := api.calls[len(api.calls)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "tracked", last.path)
	assert.Equal(t, "kubernetes", last.payload.(model.TrackingUpdate).Provider)
}

func TestSetTrackingFailure(t *testing.T) {
	api := newFakeAPI().fail(http.MethodPut, "tracked", http.StatusInternalServerError)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Tracked.SetTracking(model.TrackingUpdate{Identifier: "x", Trigger: "poll"}))
	assert.Error(t, s.Tracked.Err())
}
