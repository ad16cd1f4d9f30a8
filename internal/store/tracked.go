package store

import (
	"context"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type TrackedStore struct {
	images []model.TrackedImage
	err    error

	// SetTracking targets a resource, so its loading flag lives there.
	resources *ResourceStore
	opts      *Options
	log       *zap.Logger
}

func (s *TrackedStore) Items() []model.TrackedImage {
	return slices.Clone(s.images)
}

func (s *TrackedStore) Err() error { return s.err }

func (s *TrackedStore) setImages(images []model.TrackedImage) {
	s.images = NormalizeTrackedImages(images)
}

func (s *TrackedStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

// GetTrackedImages replaces the collection with GET tracked.
func (s *TrackedStore) GetTrackedImages() Action {
	return Action{
		Name:    "GetTrackedImages",
		Prepare: func() { s.setError(nil) },
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			images, err := trackedEndpoint.fetch(ctx, api, nil)
			return func() {
				if err != nil {
					s.setError(err)
					return
				}
				s.setImages(images)
			}
		},
	}
}

// SetTracking switches the trigger of a resource, which adds it to or drops
// it from the tracked images.
func (s *TrackedStore) SetTracking(update model.TrackingUpdate) Action {
	if update.Provider == "" {
		update.Provider = model.ProviderKubernetes
	}
	return Action{
		Name: "SetTracking",
		Prepare: func() {
			s.setError(nil)
			s.resources.setLoading(update.Identifier, true)
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			_, err := api.Put(ctx, trackedPath, update)
			return func() {
				s.setError(err)
				if s.opts.ClearLoadingOnCompletion {
					s.resources.setLoading(update.Identifier, false)
				}
			}
		},
	}
}

// trackedNamespace seeds the name-based identifiers of tracked images.
var trackedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://keel.sh/tracked-images"))

// NormalizeTrackedImages assigns identifiers and display rows and rewrites the
// legacy "default" trigger.
func NormalizeTrackedImages(raw []model.TrackedImage) []model.TrackedImage {
	out := make([]model.TrackedImage, len(raw))
	seen := make(map[string]int, len(raw))
	for i, img := range raw {
		key := img.Provider + "/" + img.Namespace + "/" + img.Registry + "/" + img.Image
		seen[key]++
		if n := seen[key]; n > 1 {
			key += "#" + strconv.Itoa(n)
		}
		img.ID = uuid.NewSHA1(trackedNamespace, []byte(key)).String()
		img.Row = strconv.Itoa(i)
		if img.Trigger == model.TriggerDefault {
			img.Trigger = model.TriggerDefaultLabel
		}
		out[i] = img
	}
	return out
}
