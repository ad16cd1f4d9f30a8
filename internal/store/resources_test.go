package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourcesJSON = `[
  {"provider":"kubernetes","identifier":"deployment/default/wd","name":"wd","namespace":"default","kind":"deployment",
   "policy":"major","labels":{"keel.sh/policy":"major","keel.sh/trigger":"default","app":"wd"},
   "annotations":{"keel.sh/trigger":"poll","keel.sh/approvals":"2","kubectl.kubernetes.io/last-applied-configuration":"{}"},
   "status":{"replicas":3,"availableReplicas":3,"unavailableReplicas":0}},
  {"provider":"kubernetes","identifier":"deployment/prod/api","name":"api","namespace":"prod","kind":"deployment",
   "policy":"nil policy","labels":{"app":"api"},"annotations":{},
   "status":{"replicas":2,"availableReplicas":1,"unavailableReplicas":1}}
]`

func TestNormalizeResourcesMissingTriggerIsNotPoll(t *testing.T) {
	out := NormalizeResources([]model.Resource{{Identifier: "a"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].TriggerPoll)
	assert.Empty(t, out[0].RequiredApprovals)
	assert.Empty(t, out[0].KeelOpts)
	assert.NotNil(t, out[0].KeelOpts)
}

func TestNormalizeResourcesAnnotationTriggerWinsOverLabel(t *testing.T) {
	out := NormalizeResources([]model.Resource{{
		Labels:      map[string]string{model.KeelTriggerKey: "default"},
		Annotations: map[string]string{model.KeelTriggerKey: "poll"},
	}})
	assert.True(t, out[0].TriggerPoll)

	out = NormalizeResources([]model.Resource{{
		Labels:      map[string]string{model.KeelTriggerKey: "poll"},
		Annotations: map[string]string{model.KeelTriggerKey: "default"},
	}})
	assert.False(t, out[0].TriggerPoll)

	out = NormalizeResources([]model.Resource{{
		Labels: map[string]string{model.KeelTriggerKey: "poll"},
	}})
	assert.True(t, out[0].TriggerPoll)
}

func TestNormalizeResourcesKeelOpts(t *testing.T) {
	out := NormalizeResources([]model.Resource{{
		Labels: map[string]string{
			"keel.sh/policy": "minor",
			"keel.sh/match":  "true",
			"app":            "x",
		},
		Annotations: map[string]string{
			"keel.sh/policy":    "major",
			"keel.sh/approvals": "3",
			"team":              "ops",
		},
	}})
	assert.Equal(t, map[string]string{
		"keel.sh/policy":    "major",
		"keel.sh/match":     "true",
		"keel.sh/approvals": "3",
	}, out[0].KeelOpts)
	assert.Equal(t, "3", out[0].RequiredApprovals)
}

func TestNormalizeResourcesIsIdempotentAndPure(t *testing.T) {
	raw := []model.Resource{{
		Identifier:  "a",
		Labels:      map[string]string{model.KeelPolicyKey: "all"},
		Annotations: map[string]string{model.KeelTriggerKey: "poll"},
		Loading:     true,
	}}
	first := NormalizeResources(raw)
	second := NormalizeResources(raw)
	assert.Equal(t, first, second)
	assert.Equal(t, first, NormalizeResources(first))
	assert.True(t, raw[0].Loading, "input must not be mutated")
	assert.Nil(t, raw[0].KeelOpts)
}

func TestGetResources(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", resourcesJSON)
	s := New(Options{})

	Dispatch(context.Background(), api, s.Resources.GetResources())

	require.NoError(t, s.Resources.Err())
	items := s.Resources.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].TriggerPoll)
	assert.Equal(t, "2", items[0].RequiredApprovals)
	assert.True(t, items[0].Managed())
	assert.False(t, items[1].Managed())
}

func TestGetResourcesNullBodyIsEmpty(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", "null")
	s := New(Options{})
	Dispatch(context.Background(), api, s.Resources.GetResources())
	require.NoError(t, s.Resources.Err())
	assert.NotNil(t, s.Resources.Items())
	assert.Empty(t, s.Resources.Items())
}

func TestGetResourcesFailureKeepsCollection(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", resourcesJSON)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Resources.GetResources())

	api.fail(http.MethodGet, "resources", http.StatusInternalServerError)
	Dispatch(context.Background(), api, s.Resources.GetResources())

	require.Error(t, s.Resources.Err())
	assert.Len(t, s.Resources.Items(), 2)
}

func TestGetResourcesMalformedBody(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", `{"not":"a list"}`)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Resources.GetResources())
	require.Error(t, s.Resources.Err())
	assert.Contains(t, s.Resources.Err().Error(), "decode resources")
}

func TestSetResourcePolicyLeavesLoadingSet(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", resourcesJSON)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Resources.GetResources())

	Dispatch(context.Background(), api, s.Resources.SetResourcePolicy(model.PolicyUpdate{
		Identifier: "deployment/default/wd",
		Policy:     "minor",
	}))

	require.NoError(t, s.Resources.Err())
	items := s.Resources.Items()
	assert.True(t, items[0].Loading)
	assert.False(t, items[1].Loading)

	last := api.calls[len(api.calls)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "policies", last.path)
	assert.Equal(t, model.PolicyUpdate{Identifier: "deployment/default/wd", Provider: "kubernetes", Policy: "minor"}, last.payload)

	// the next fetch resets the flag
	Dispatch(context.Background(), api, s.Resources.GetResources())
	assert.False(t, s.Resources.Items()[0].Loading)
}

func TestSetResourcePolicyClearLoadingOnCompletion(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "resources", resourcesJSON)
	s := New(Options{ClearLoadingOnCompletion: true})
	Dispatch(context.Background(), api, s.Resources.GetResources())

	Dispatch(context.Background(), api, s.Resources.SetResourcePolicy(model.PolicyUpdate{
		Identifier: "deployment/default/wd",
		Policy:     "minor",
	}))
	assert.False(t, s.Resources.Items()[0].Loading)
}

func TestSetResourcePolicyFailure(t *testing.T) {
	api := newFakeAPI().
		reply(http.MethodGet, "resources", resourcesJSON).
		fail(http.MethodPut, "policies", http.StatusBadRequest)
	s := New(Options{ClearLoadingOnCompletion: true})
	Dispatch(context.Background(), api, s.Resources.GetResources())

	a := s.Resources.SetResourcePolicy(model.PolicyUpdate{Identifier: "deployment/default/wd", Policy: "bogus"})
	a.Prepare()
	assert.True(t, s.Resources.Items()[0].Loading)
	a.Request(context.Background(), api)()

	require.Error(t, s.Resources.Err())
	assert.False(t, s.Resources.Items()[0].Loading)
}
