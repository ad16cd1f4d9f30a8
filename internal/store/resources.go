package store

import (
	"context"
	"slices"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type ResourceStore struct {
	resources []model.Resource
	err       error

	opts *Options
	log  *zap.Logger
}

// Items returns a copy of the current collection.
func (s *ResourceStore) Items() []model.Resource {
	return slices.Clone(s.resources)
}

// Err is the error of the last action, nil after a success.
func (s *ResourceStore) Err() error { return s.err }

func (s *ResourceStore) setResources(resources []model.Resource) {
	s.resources = NormalizeResources(resources)
}

func (s *ResourceStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

func (s *ResourceStore) setLoading(identifier string, loading bool) {
	for i := range s.resources {
		if s.resources[i].Identifier == identifier {
			s.resources[i].Loading = loading
		}
	}
}

// GetResources replaces the collection with GET resources.
func (s *ResourceStore) GetResources() Action {
	return Action{
		Name:    "GetResources",
		Prepare: func() { s.setError(nil) },
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			resources, err := resourcesEndpoint.fetch(ctx, api, nil)
			return func() {
				if err != nil {
					s.setError(err)
					return
				}
				s.setResources(resources)
			}
		},
	}
}

// SetResourcePolicy changes the update policy of one resource.
func (s *ResourceStore) SetResourcePolicy(update model.PolicyUpdate) Action {
	if update.Provider == "" {
		update.Provider = model.ProviderKubernetes
	}
	return Action{
		Name: "SetResourcePolicy",
		Prepare: func() {
			s.setError(nil)
			s.setLoading(update.Identifier, true)
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			_, err := api.Put(ctx, policiesPath, update)
			return func() {
				s.setError(err)
				if s.opts.ClearLoadingOnCompletion {
					s.setLoading(update.Identifier, false)
				}
			}
		},
	}
}

// NormalizeResources derives the view fields of every resource. It never
// reads prior state and never mutates raw.
func NormalizeResources(raw []model.Resource) []model.Resource {
	out := make([]model.Resource, len(raw))
	for i, r := range raw {
		out[i] = normalizeResource(r)
	}
	return out
}

func normalizeResource(r model.Resource) model.Resource {
	r.Loading = false
	r.RequiredApprovals = r.Annotations[model.KeelApprovalsKey]

	if trigger := r.Annotations[model.KeelTriggerKey]; trigger != "" {
		r.TriggerPoll = trigger == model.TriggerPoll
	} else if trigger := r.Labels[model.KeelTriggerKey]; trigger != "" {
		r.TriggerPoll = trigger == model.TriggerPoll
	} else {
		r.TriggerPoll = false
	}

	// annotations are applied second so they win over labels
	opts := make(map[string]string)
	for k, v := range r.Labels {
		if model.HasKeelPrefix(k) {
			opts[k] = v
		}
	}
	for k, v := range r.Annotations {
		if model.HasKeelPrefix(k) {
			opts[k] = v
		}
	}
	r.KeelOpts = opts
	return r
}
