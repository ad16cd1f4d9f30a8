package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/duration"
)

func newApprovalsCmd(a *app) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:     "approvals",
		Aliases: []string{"approval", "ap"},
		GroupID: "keel",
		Short:   "List update approvals",
		Example: `  keelctl approvals --pending
  keelctl approvals approve deployment/default/wd:1.2.0
  keelctl approvals require deployment/default/wd 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), api, state.Approvals.GetApprovals(), state.Approvals.Err); err != nil {
				return err
			}
			items := state.Approvals.Items()
			if pending {
				items = views.PendingApprovals(state)
			}
			now := time.Now()
			rows := make([][]string, 0, len(items))
			for _, ap := range items {
				rows = append(rows, []string{
					ap.Identifier,
					ap.Delta(),
					fmt.Sprintf("%d/%d", ap.VotesReceived, ap.VotesRequired),
					approvalStatus(ap),
					age(now, ap.CreatedAt),
				})
			}
			return a.printer(cmd).Render(items, []string{"IDENTIFIER", "DELTA", "VOTES", "STATUS", "AGE"}, rows)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only show approvals that still collect votes")
	cmd.AddCommand(
		newApprovalDecisionCmd(a, model.ApprovalActionApprove, "Vote for an update", "Approved"),
		newApprovalDecisionCmd(a, model.ApprovalActionReject, "Reject an update", "Rejected"),
		newApprovalDecisionCmd(a, model.ApprovalActionArchive, "Archive an approval", "Archived"),
		newApprovalDecisionCmd(a, model.ApprovalActionDelete, "Delete an approval", "Deleted"),
		newApprovalRequireCmd(a),
	)
	return cmd
}

func newApprovalDecisionCmd(a *app, action, short, done string) *cobra.Command {
	var voter string
	cmd := &cobra.Command{
		Use:   action + " <identifier>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			decision := model.ApprovalDecision{Identifier: args[0], Action: action, Voter: a.voter(voter)}
			if err := a.run(cmd.Context(), api, state.Approvals.UpdateApproval(decision), state.Approvals.Err); err != nil {
				return fmt.Errorf("%s approval: %w", action, err)
			}
			a.printer(cmd).Success("%s %s", done, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&voter, "voter", "", "name recorded with the vote (defaults to approvals.voter, then the session user)")
	return cmd
}

func newApprovalRequireCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "require <identifier> <votes>",
		Short: "Set how many votes a resource needs before keel updates it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			votes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("votes must be a number: %q", args[1])
			}
			state, api, err := a.session()
			if err != nil {
				return err
			}
			req := model.ApprovalRequirement{Identifier: args[0], Provider: provider, VotesRequired: votes}
			if err := a.run(cmd.Context(), api, state.Approvals.SetApproval(req), state.Approvals.Err); err != nil {
				return fmt.Errorf("set approvals: %w", err)
			}
			a.printer(cmd).Success("%s now requires %d approval(s)", args[0], votes)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", model.ProviderKubernetes, "resource provider")
	return cmd
}

func (a *app) voter(flag string) string {
	if flag != "" {
		return flag
	}
	if a.cfg.Approvals.Voter != "" {
		return a.cfg.Approvals.Voter
	}
	if a.state != nil {
		return a.state.User.Credentials().Username
	}
	return ""
}

func approvalStatus(ap model.Approval) string {
	switch {
	case ap.Archived:
		return "archived"
	case ap.Rejected:
		return "rejected"
	case ap.Approved():
		return "approved"
	default:
		return "pending"
	}
}

func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return duration.HumanDuration(now.Sub(t))
}
