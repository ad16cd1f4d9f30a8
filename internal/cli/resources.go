package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/spf13/cobra"
)

func newResourcesCmd(a *app) *cobra.Command {
	var (
		managed  bool
		selector string
	)
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"res", "workloads"},
		GroupID: "keel",
		Short:   "List workloads visible to keel",
		Example: `  keelctl resources
  keelctl resources --managed -l app=api
  keelctl resources -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), api, state.Resources.GetResources(), state.Resources.Err); err != nil {
				return err
			}
			items := state.Resources.Items()
			if managed {
				items = views.ManagedResources(state)
			}
			if selector != "" {
				if items, err = views.SelectResources(items, selector); err != nil {
					return err
				}
			}
			rows := make([][]string, 0, len(items))
			for _, r := range items {
				rows = append(rows, []string{
					r.Namespace,
					r.Name,
					r.Kind,
					r.Policy,
					triggerName(r.TriggerPoll),
					dash(r.RequiredApprovals),
					fmt.Sprintf("%d/%d", r.Status.AvailableReplicas, r.Status.Replicas),
					strings.Join(r.Images, ","),
				})
			}
			return a.printer(cmd).Render(items, []string{"NAMESPACE", "NAME", "KIND", "POLICY", "TRIGGER", "APPROVALS", "PODS", "IMAGES"}, rows)
		},
	}
	cmd.Flags().BoolVar(&managed, "managed", false, "only show resources with an update policy")
	cmd.Flags().StringVarP(&selector, "selector", "l", "", "label selector, e.g. app=api,tier!=db")
	cmd.AddCommand(newResourcePolicyCmd(a), newResourceTrackCmd(a))
	return cmd
}

func newResourcePolicyCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "policy <identifier> <policy>",
		Short: "Change the update policy of a resource",
		Long:  "Policies: " + strings.Join(model.KnownPolicies, ", ") + ". glob: and regexp: take a pattern, e.g. glob:1.2.*",
		Example: `  keelctl resources policy deployment/default/wd major
  keelctl resources policy deployment/default/wd glob:1.2.*`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return model.KnownPolicies, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, policy := args[0], strings.TrimSpace(args[1])
			if !model.ValidPolicy(policy) {
				return fmt.Errorf("invalid policy %q (use one of %s)", policy, strings.Join(model.KnownPolicies, ", "))
			}
			state, api, err := a.session()
			if err != nil {
				return err
			}
			update := model.PolicyUpdate{Identifier: identifier, Provider: provider, Policy: policy}
			if err := a.run(cmd.Context(), api, state.Resources.SetResourcePolicy(update), state.Resources.Err); err != nil {
				return fmt.Errorf("set policy: %w", err)
			}
			a.printer(cmd).Success("Policy of %s set to %s", identifier, policy)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", model.ProviderKubernetes, "resource provider")
	return cmd
}

var triggers = []string{model.TriggerPoll, model.TriggerDefault}

func newResourceTrackCmd(a *app) *cobra.Command {
	var (
		provider string
		trigger  string
		schedule string
	)
	cmd := &cobra.Command{
		Use:   "track <identifier>",
		Short: "Change how keel watches the images of a resource",
		Example: `  keelctl resources track deployment/default/wd --trigger poll --schedule "@every 5m"
  keelctl resources track deployment/default/wd --trigger default`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if !slices.Contains(triggers, trigger) {
				return fmt.Errorf("invalid trigger %q (use poll or default)", trigger)
			}
			if schedule != "" && trigger != model.TriggerPoll {
				return fmt.Errorf("--schedule only applies to the poll trigger")
			}
			state, api, err := a.session()
			if err != nil {
				return err
			}
			update := model.TrackingUpdate{Identifier: args[0], Provider: provider, Trigger: trigger, Schedule: schedule}
			if err := a.run(cmd.Context(), api, state.Tracked.SetTracking(update), state.Tracked.Err); err != nil {
				return fmt.Errorf("set tracking: %w", err)
			}
			a.printer(cmd).Success("Tracking of %s set to %s", args[0], trigger)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", model.ProviderKubernetes, "resource provider")
	cmd.Flags().StringVar(&trigger, "trigger", "", "poll or default")
	cmd.Flags().StringVar(&schedule, "schedule", "", "poll schedule, e.g. @every 5m")
	_ = cmd.MarkFlagRequired("trigger")
	return cmd
}

func triggerName(poll bool) string {
	if poll {
		return model.TriggerPoll
	}
	return model.TriggerDefault
}

func dash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
