package keeltest

import (
	"bytes"
	"io"
	"time"

	"github.com/keel-hq/keelctl/internal/model"
)

// Fixture returns a small cluster: two resources (one unmanaged), two tracked
// images and three approvals covering pending, approved and rejected.
func Fixture() ([]model.Resource, []model.TrackedImage, []model.Approval, []model.AuditLogEntry, []model.StatPoint) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	resources := []model.Resource{
		{
			Provider:   model.ProviderKubernetes,
			Identifier: "deployment/default/wd",
			Name:       "wd",
			Namespace:  "default",
			Kind:       "deployment",
			Policy:     "major",
			Images:     []string{"keelhq/push-workflow-example:0.1.0"},
			Labels:     map[string]string{"app": "wd", model.KeelPolicyKey: "major"},
			Annotations: map[string]string{
				model.KeelTriggerKey:   "poll",
				model.KeelApprovalsKey: "2",
			},
			Status: model.ResourceStatus{Replicas: 3, AvailableReplicas: 3},
		},
		{
			Provider:    model.ProviderKubernetes,
			Identifier:  "deployment/prod/api",
			Name:        "api",
			Namespace:   "prod",
			Kind:        "deployment",
			Policy:      model.NilPolicy,
			Images:      []string{"quay.io/acme/api:1.0.0"},
			Labels:      map[string]string{"app": "api", "tier": "backend"},
			Annotations: map[string]string{},
			Status:      model.ResourceStatus{Replicas: 2, AvailableReplicas: 1, UnavailableReplicas: 1},
		},
	}
	tracked := []model.TrackedImage{
		{Image: "keelhq/push-workflow-example", Trigger: model.TriggerDefault, Provider: model.ProviderKubernetes, Namespace: "default", Policy: "major", Registry: "index.docker.io"},
		{Image: "acme/api", Trigger: model.TriggerPoll, PollSchedule: "@every 1m", Provider: model.ProviderKubernetes, Namespace: "prod", Policy: "minor", Registry: "quay.io"},
	}
	approvals := []model.Approval{
		{ID: "a1", Provider: model.ProviderKubernetes, Identifier: "deployment/default/wd:0.2.0", CurrentVersion: "0.1.0", NewVersion: "0.2.0", VotesRequired: 2, VotesReceived: 1, CreatedAt: created},
		{ID: "a2", Provider: model.ProviderKubernetes, Identifier: "deployment/default/wd:0.3.0", CurrentVersion: "0.2.0", NewVersion: "0.3.0", VotesRequired: 1, VotesReceived: 0, Rejected: true, CreatedAt: created},
		{ID: "a3", Provider: model.ProviderKubernetes, Identifier: "deployment/default/wd:0.1.0", CurrentVersion: "0.0.9", NewVersion: "0.1.0", VotesRequired: 2, VotesReceived: 2, CreatedAt: created},
	}
	audit := []model.AuditLogEntry{
		{ID: "e1", CreatedAt: created, Username: "admin", Email: "admin@example.com", Action: "approved", ResourceKind: "approval", Identifier: "deployment/default/wd:0.1.0"},
		{ID: "e2", CreatedAt: created.Add(time.Hour), Username: "admin", Email: "admin@example.com", Action: "policy updated", ResourceKind: "deployment", Identifier: "deployment/default/wd"},
		{ID: "e3", CreatedAt: created.Add(2 * time.Hour), Username: "ops", Email: "ops@example.com", Action: "rejected", ResourceKind: "approval", Identifier: "deployment/default/wd:0.3.0"},
	}
	stats := []model.StatPoint{
		{Date: "2026-10-01", Webhooks: 4, Approved: 1, Rejected: 0, Updates: 2},
		{Date: "2026-10-02", Webhooks: 1, Approved: 0, Rejected: 1, Updates: 3},
	}
	return resources, tracked, approvals, audit, stats
}

func readCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}
