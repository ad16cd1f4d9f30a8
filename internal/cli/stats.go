package cli

import (
	"fmt"

	"github.com/keel-hq/keelctl/internal/metrics"
	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/output"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/spf13/cobra"
)

const chartWidth = 40

func newStatsCmd(a *app) *cobra.Command {
	var chart string
	cmd := &cobra.Command{
		Use:     "stats",
		GroupID: "keel",
		Short:   "Show daily update statistics",
		Example: `  keelctl stats
  keelctl stats --chart approvals
  keelctl stats export /var/lib/node_exporter/keel.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch chart {
			case "", "updates", "approvals":
			default:
				return fmt.Errorf("invalid chart %q (use updates or approvals)", chart)
			}
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), api, state.Stats.GetStats(), state.Stats.Err); err != nil {
				return err
			}
			var points []model.ChartPoint
			switch chart {
			case "updates":
				points = views.UpdateStats(state)
			case "approvals":
				points = views.ApprovalStats(state)
			}
			p := a.printer(cmd)
			if chart != "" {
				if p.Structured() {
					return p.Object(points)
				}
				p.Header(chart + " per day")
				bars := make([]output.Bar, 0, len(points))
				for _, pt := range points {
					bars = append(bars, output.Bar{Label: pt.X, Value: pt.Y})
				}
				p.Bars(bars, chartWidth)
				return nil
			}
			items := state.Stats.Items()
			rows := make([][]string, 0, len(items))
			for _, st := range items {
				rows = append(rows, []string{st.Date, itoa(st.Webhooks), itoa(st.Approved), itoa(st.Rejected), itoa(st.Updates)})
			}
			if err := p.Render(items, []string{"DATE", "WEBHOOKS", "APPROVED", "REJECTED", "UPDATES"}, rows); err != nil {
				return err
			}
			if !p.Structured() {
				p.Printf("\nUpdates this period: %d\n", state.Stats.TotalUpdatesThisPeriod())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chart, "chart", "", "draw a bar chart: updates or approvals")
	cmd.AddCommand(newStatsExportCmd(a))
	return cmd
}

func newStatsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.prom>",
		Short: "Write dashboard gauges in the Prometheus textfile format",
		Long:  "Refreshes every dashboard collection and writes the resulting gauges to a file the node_exporter textfile collector can read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			g := metrics.New()
			g.Observe(state)
			if err := g.WriteTextfile(args[0]); err != nil {
				return fmt.Errorf("export metrics: %w", err)
			}
			a.printer(cmd).Success("Metrics written to %s", args[0])
			return nil
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Aliases: []string{"dashboard"},
		GroupID: "keel",
		Short:   "Show the dashboard counters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			s := views.Summarize(state)
			p := a.printer(cmd)
			if p.Structured() {
				return p.Object(s)
			}
			p.KeyValues([][2]string{
				{"Resources", fmt.Sprintf("%d (%d managed)", s.Resources, s.ManagedResources)},
				{"Pods", fmt.Sprintf("%d (%d available, %d unavailable)", s.Pods, s.AvailablePods, s.UnavailablePods)},
				{"Tracked images", fmt.Sprintf("%d in %d namespace(s) from %d registr(ies)", s.TrackedImages, s.Namespaces, s.Registries)},
				{"Approvals", fmt.Sprintf("%d pending, %d approved, %d rejected", s.PendingApprovals, s.Approved, s.Rejected)},
				{"Updates this period", itoa(s.UpdatesPeriod)},
			})
			return nil
		},
	}
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
