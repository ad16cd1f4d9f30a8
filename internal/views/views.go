// Package views holds the read-only projections the console renders. Every
// function recomputes from the current store state; nothing is cached.
package views

import (
	"fmt"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/store"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ManagedResources drops resources without an update policy.
func ManagedResources(s *store.State) []model.Resource {
	var out []model.Resource
	for _, r := range s.Resources.Items() {
		if r.Managed() {
			out = append(out, r)
		}
	}
	return out
}

// SelectResources keeps the resources whose labels match selector. An empty
// selector matches everything.
func SelectResources(resources []model.Resource, selector string) ([]model.Resource, error) {
	sel, err := labels.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	out := make([]model.Resource, 0, len(resources))
	for _, r := range resources {
		if sel.Matches(labels.Set(r.Labels)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func PendingApprovals(s *store.State) []model.Approval {
	var out []model.Approval
	for _, a := range s.Approvals.Items() {
		if a.Pending() {
			out = append(out, a)
		}
	}
	return out
}

func ApprovedCount(s *store.State) int {
	n := 0
	for _, a := range s.Approvals.Items() {
		if a.Approved() {
			n++
		}
	}
	return n
}

func RejectedCount(s *store.State) int {
	n := 0
	for _, a := range s.Approvals.Items() {
		if a.Rejected {
			n++
		}
	}
	return n
}

func TotalPods(s *store.State) int64 {
	var n int64
	for _, r := range s.Resources.Items() {
		n += r.Status.Replicas
	}
	return n
}

func TotalAvailablePods(s *store.State) int64 {
	var n int64
	for _, r := range s.Resources.Items() {
		n += r.Status.AvailableReplicas
	}
	return n
}

// TotalUnavailablePods is replicas minus available replicas, not the
// server's unavailableReplicas counter.
func TotalUnavailablePods(s *store.State) int64 {
	return TotalPods(s) - TotalAvailablePods(s)
}

// TrackedNamespaces counts the distinct namespaces of tracked images.
func TrackedNamespaces(s *store.State) int {
	seen := sets.New[string]()
	for _, img := range s.Tracked.Items() {
		seen.Insert(img.Namespace)
	}
	return seen.Len()
}

// TrackedRegistries counts the distinct registries of tracked images.
func TrackedRegistries(s *store.State) int {
	seen := sets.New[string]()
	for _, img := range s.Tracked.Items() {
		seen.Insert(img.Registry)
	}
	return seen.Len()
}

// UpdateStats is the updates-per-day series in server order.
func UpdateStats(s *store.State) []model.ChartPoint {
	return series(s.Stats.Items(), func(p model.StatPoint) int { return p.Updates })
}

// ApprovalStats is the approvals-per-day series in server order.
func ApprovalStats(s *store.State) []model.ChartPoint {
	return series(s.Stats.Items(), func(p model.StatPoint) int { return p.Approved })
}

func series(stats []model.StatPoint, y func(model.StatPoint) int) []model.ChartPoint {
	out := make([]model.ChartPoint, 0, len(stats))
	for _, p := range stats {
		out = append(out, model.ChartPoint{X: p.Date, Y: y(p)})
	}
	return out
}
