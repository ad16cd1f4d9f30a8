package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/spf13/cobra"
)

func newTrackedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "tracked",
		Aliases: []string{"images"},
		GroupID: "keel",
		Short:   "List images keel watches for new tags",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), api, state.Tracked.GetTrackedImages(), state.Tracked.Err); err != nil {
				return err
			}
			items := state.Tracked.Items()
			rows := make([][]string, 0, len(items))
			for _, img := range items {
				rows = append(rows, []string{
					img.Row,
					img.Image,
					img.Namespace,
					img.Registry,
					img.Trigger,
					dash(img.PollSchedule),
					img.Policy,
				})
			}
			p := a.printer(cmd)
			if err := p.Render(items, []string{"#", "IMAGE", "NAMESPACE", "REGISTRY", "TRIGGER", "SCHEDULE", "POLICY"}, rows); err != nil {
				return err
			}
			if !p.Structured() {
				p.Printf("\n%d namespace(s), %d registr(ies)\n", views.TrackedNamespaces(state), views.TrackedRegistries(state))
			}
			return nil
		},
	}
}

func newAuditCmd(a *app) *cobra.Command {
	q := model.AuditQuery{Limit: model.DefaultPagination.Limit, Offset: model.DefaultPagination.Offset}
	cmd := &cobra.Command{
		Use:     "audit",
		GroupID: "keel",
		Short:   "Page through the server audit trail",
		Example: `  keelctl audit --filter approval,deployment --limit 20
  keelctl audit --email ops@example.com --offset 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if q.Limit <= 0 || q.Offset < 0 {
				return fmt.Errorf("--limit must be positive and --offset not negative")
			}
			state, api, err := a.session()
			if err != nil {
				return err
			}
			if err := a.run(cmd.Context(), api, state.Audit.GetAuditLogs(q), state.Audit.Err); err != nil {
				return err
			}
			items := state.Audit.Items()
			page := state.Audit.Pagination()
			p := a.printer(cmd)
			if p.Structured() {
				return p.Object(auditPage{Data: items, Pagination: page})
			}
			rows := make([][]string, 0, len(items))
			for _, e := range items {
				rows = append(rows, []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.Username,
					e.Action,
					e.ResourceKind,
					e.Identifier,
					dash(strings.TrimSpace(e.Message)),
				})
			}
			p.Table([]string{"TIME", "USER", "ACTION", "KIND", "IDENTIFIER", "MESSAGE"}, rows)
			p.Printf("\n%s\n", pageSummary(page, len(items)))
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Filter, "filter", "", "comma separated resource kinds, e.g. approval,deployment")
	cmd.Flags().StringVar(&q.Email, "email", "", "only entries of this account email")
	cmd.Flags().IntVar(&q.Limit, "limit", q.Limit, "page size")
	cmd.Flags().IntVar(&q.Offset, "offset", q.Offset, "entries to skip")
	return cmd
}

type auditPage struct {
	Data       []model.AuditLogEntry `json:"data" yaml:"data"`
	Pagination model.Pagination      `json:"pagination" yaml:"pagination"`
}

func pageSummary(p model.Pagination, n int) string {
	if n == 0 {
		return "Showing 0 of " + strconv.Itoa(p.Total)
	}
	return "Showing " + strconv.Itoa(p.Offset+1) + "-" + strconv.Itoa(p.Offset+n) + " of " + strconv.Itoa(p.Total)
}
