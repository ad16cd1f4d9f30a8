package model

import (
	"fmt"
	"time"
)

// Approval actions accepted by POST approvals.
const (
	ApprovalActionApprove = "approve"
	ApprovalActionReject  = "reject"
	ApprovalActionArchive = "archive"
	ApprovalActionDelete  = "delete"
)

// MaxVotesRequired is the upper bound the server accepts for PUT approvals.
const MaxVotesRequired = 100

// Repository identifies the image that triggered an approval.
type Repository struct {
	Host   string `json:"host" yaml:"host"`
	Name   string `json:"name" yaml:"name"`
	Tag    string `json:"tag" yaml:"tag"`
	Digest string `json:"digest" yaml:"digest"`
}

// ApprovalEvent is the registry event that opened an approval.
type ApprovalEvent struct {
	Repository  Repository `json:"repository" yaml:"repository"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	TriggerName string     `json:"triggerName" yaml:"triggerName"`
}

type Approval struct {
	ID             string         `json:"id" yaml:"id"`
	Archived       bool           `json:"archived" yaml:"archived"`
	Provider       string         `json:"provider" yaml:"provider"`
	Identifier     string         `json:"identifier" yaml:"identifier"`
	Event          *ApprovalEvent `json:"event,omitempty" yaml:"event,omitempty"`
	Message        string         `json:"message" yaml:"message"`
	CurrentVersion string         `json:"currentVersion" yaml:"currentVersion"`
	NewVersion     string         `json:"newVersion" yaml:"newVersion"`
	Digest         string         `json:"digest" yaml:"digest"`
	VotesRequired  int            `json:"votesRequired" yaml:"votesRequired"`
	VotesReceived  int            `json:"votesReceived" yaml:"votesReceived"`
	Voters         map[string]any `json:"voters,omitempty" yaml:"voters,omitempty"`
	Rejected       bool           `json:"rejected" yaml:"rejected"`
	Deadline       time.Time      `json:"deadline" yaml:"deadline"`
	CreatedAt      time.Time      `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt" yaml:"updatedAt"`

	Loading bool `json:"_loading" yaml:"_loading"`
}

// Pending reports an approval that still collects votes.
func (a Approval) Pending() bool {
	return !a.Rejected && !a.Archived && a.VotesReceived < a.VotesRequired
}

// Approved reports an approval that reached its vote count. Archived
// approvals still count.
func (a Approval) Approved() bool {
	return !a.Rejected && a.VotesReceived >= a.VotesRequired
}

// Delta renders "current -> new".
func (a Approval) Delta() string {
	return fmt.Sprintf("%s -> %s", a.CurrentVersion, a.NewVersion)
}

// ApprovalDecision is the body of POST approvals.
type ApprovalDecision struct {
	ID         string `json:"id,omitempty"`
	Identifier string `json:"identifier"`
	Action     string `json:"action"`
	Voter      string `json:"voter,omitempty"`
}

// ApprovalRequirement is the body of PUT approvals.
type ApprovalRequirement struct {
	Identifier    string `json:"identifier"`
	Provider      string `json:"provider"`
	VotesRequired int    `json:"votesRequired"`
}
