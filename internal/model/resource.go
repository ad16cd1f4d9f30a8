// Package model holds the records exchanged with the Keel admin API together
// with the view-only fields the stores derive from them.
package model

import "strings"

const (
	// KeelPrefix namespaces every keel.sh label and annotation.
	KeelPrefix = "keel.sh/"

	KeelPolicyKey    = KeelPrefix + "policy"
	KeelTriggerKey   = KeelPrefix + "trigger"
	KeelApprovalsKey = KeelPrefix + "approvals"
	KeelPollSchedKey = KeelPrefix + "pollSchedule"

	TriggerPoll    = "poll"
	TriggerDefault = "default"

	// NilPolicy is what the API reports for resources keel does not manage.
	NilPolicy = "nil policy"

	ProviderKubernetes = "kubernetes"
)

// KnownPolicies are the policy names the server understands. glob: and
// regexp: policies carry a pattern after the colon.
var KnownPolicies = []string{"all", "major", "minor", "patch", "force", "never", "glob:", "regexp:"}

// ResourceStatus mirrors the replica counters of a workload.
type ResourceStatus struct {
	Replicas            int64 `json:"replicas"`
	UpdatedReplicas     int64 `json:"updatedReplicas"`
	ReadyReplicas       int64 `json:"readyReplicas"`
	AvailableReplicas   int64 `json:"availableReplicas"`
	UnavailableReplicas int64 `json:"unavailableReplicas"`
}

// Resource is a workload keel can see (deployment, statefulset, daemonset,
// cronjob). The underscore-prefixed fields are derived at ingest.
type Resource struct {
	Provider    string            `json:"provider" yaml:"provider"`
	Identifier  string            `json:"identifier" yaml:"identifier"`
	Name        string            `json:"name" yaml:"name"`
	Namespace   string            `json:"namespace" yaml:"namespace"`
	Kind        string            `json:"kind" yaml:"kind"`
	Policy      string            `json:"policy" yaml:"policy"`
	Images      []string          `json:"images" yaml:"images"`
	Labels      map[string]string `json:"labels" yaml:"labels"`
	Annotations map[string]string `json:"annotations" yaml:"annotations"`
	Status      ResourceStatus    `json:"status" yaml:"status"`

	RequiredApprovals string            `json:"_required_approvals,omitempty" yaml:"_required_approvals,omitempty"`
	TriggerPoll       bool              `json:"_trigger_poll" yaml:"_trigger_poll"`
	KeelOpts          map[string]string `json:"_keel_opts" yaml:"_keel_opts"`
	Loading           bool              `json:"_loading" yaml:"_loading"`
}

// Managed reports whether keel applies an update policy to the resource.
func (r Resource) Managed() bool {
	return r.Policy != NilPolicy
}

// Ref renders namespace/name for display.
func (r Resource) Ref() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}

// HasKeelPrefix reports whether key lives in the keel.sh namespace.
func HasKeelPrefix(key string) bool {
	return strings.HasPrefix(key, KeelPrefix)
}

// PolicyUpdate is the body of PUT policies.
type PolicyUpdate struct {
	Identifier string `json:"identifier"`
	Provider   string `json:"provider"`
	Policy     string `json:"policy"`
}

// TrackingUpdate is the body of PUT tracked.
type TrackingUpdate struct {
	Identifier string `json:"identifier"`
	Provider   string `json:"provider"`
	Trigger    string `json:"trigger"`
	Schedule   string `json:"schedule,omitempty"`
}

// StatusResponse is the acknowledgement body some mutating endpoints return.
type StatusResponse struct {
	Status string `json:"status"`
}

// ValidPolicy reports whether p is one of KnownPolicies. glob: and regexp:
// need a non-empty pattern.
func ValidPolicy(p string) bool {
	for _, known := range KnownPolicies {
		if strings.HasSuffix(known, ":") {
			if strings.HasPrefix(p, known) && len(p) > len(known) {
				return true
			}
			continue
		}
		if p == known {
			return true
		}
	}
	return false
}
