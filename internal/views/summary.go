package views

import "github.com/keel-hq/keelctl/internal/store"

// Summary is the dashboard header: every aggregate at once.
type Summary struct {
	Resources        int   `json:"resources" yaml:"resources"`
	ManagedResources int   `json:"managedResources" yaml:"managedResources"`
	TrackedImages    int   `json:"trackedImages" yaml:"trackedImages"`
	Namespaces       int   `json:"namespaces" yaml:"namespaces"`
	Registries       int   `json:"registries" yaml:"registries"`
	PendingApprovals int   `json:"pendingApprovals" yaml:"pendingApprovals"`
	Approved         int   `json:"approved" yaml:"approved"`
	Rejected         int   `json:"rejected" yaml:"rejected"`
	Pods             int64 `json:"pods" yaml:"pods"`
	AvailablePods    int64 `json:"availablePods" yaml:"availablePods"`
	UnavailablePods  int64 `json:"unavailablePods" yaml:"unavailablePods"`
	UpdatesPeriod    int   `json:"updatesThisPeriod" yaml:"updatesThisPeriod"`
}

func Summarize(s *store.State) Summary {
	return Summary{
		Resources:        len(s.Resources.Items()),
		ManagedResources: len(ManagedResources(s)),
		TrackedImages:    len(s.Tracked.Items()),
		Namespaces:       TrackedNamespaces(s),
		Registries:       TrackedRegistries(s),
		PendingApprovals: len(PendingApprovals(s)),
		Approved:         ApprovedCount(s),
		Rejected:         RejectedCount(s),
		Pods:             TotalPods(s),
		AvailablePods:    TotalAvailablePods(s),
		UnavailablePods:  TotalUnavailablePods(s),
		UpdatesPeriod:    s.Stats.TotalUpdatesThisPeriod(),
	}
}
