package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type ApprovalStore struct {
	approvals []model.Approval
	err       error

	opts *Options
	log  *zap.Logger
}

func (s *ApprovalStore) Items() []model.Approval {
	return slices.Clone(s.approvals)
}

func (s *ApprovalStore) Err() error { return s.err }

func (s *ApprovalStore) setApprovals(approvals []model.Approval) {
	s.approvals = NormalizeApprovals(approvals)
}

func (s *ApprovalStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

func (s *ApprovalStore) setLoading(identifier string, loading bool) {
	for i := range s.approvals {
		if s.approvals[i].Identifier == identifier {
			s.approvals[i].Loading = loading
		}
	}
}

// GetApprovals replaces the collection with GET approvals, archived included.
func (s *ApprovalStore) GetApprovals() Action {
	return Action{
		Name:    "GetApprovals",
		Prepare: func() { s.setError(nil) },
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			approvals, err := approvalsEndpoint.fetch(ctx, api, nil)
			return func() {
				if err != nil {
					s.setError(err)
					return
				}
				s.setApprovals(approvals)
			}
		},
	}
}

// UpdateApproval approves, rejects, archives or deletes an approval.
func (s *ApprovalStore) UpdateApproval(decision model.ApprovalDecision) Action {
	if decision.Action == "" {
		decision.Action = model.ApprovalActionApprove
	}
	return s.mutate("UpdateApproval", decision.Identifier, func(ctx context.Context, api transport.Adapter) error {
		_, err := api.Post(ctx, approvalsPath, decision)
		return err
	})
}

// SetApproval changes how many votes a resource needs before it is updated.
func (s *ApprovalStore) SetApproval(req model.ApprovalRequirement) Action {
	if req.Provider == "" {
		req.Provider = model.ProviderKubernetes
	}
	return s.mutate("SetApproval", req.Identifier, func(ctx context.Context, api transport.Adapter) error {
		if req.VotesRequired < 0 || req.VotesRequired > model.MaxVotesRequired {
			return fmt.Errorf("votesRequired should be between 0 and %d", model.MaxVotesRequired)
		}
		_, err := api.Put(ctx, approvalsPath, req)
		return err
	})
}

func (s *ApprovalStore) mutate(name, identifier string, call func(context.Context, transport.Adapter) error) Action {
	return Action{
		Name: name,
		Prepare: func() {
			s.setError(nil)
			s.setLoading(identifier, true)
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			err := call(ctx, api)
			return func() {
				s.setError(err)
				if s.opts.ClearLoadingOnCompletion {
					s.setLoading(identifier, false)
				}
			}
		},
	}
}

// NormalizeApprovals resets the transient loading flag of every approval.
func NormalizeApprovals(raw []model.Approval) []model.Approval {
	out := make([]model.Approval, len(raw))
	for i, a := range raw {
		a.Loading = false
		out[i] = a
	}
	return out
}
