package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	keel "github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/output"
	"github.com/keel-hq/keelctl/internal/store"
	"github.com/keel-hq/keelctl/internal/views"
	"k8s.io/apimachinery/pkg/util/duration"
)

type row struct {
	id      string
	cells   []string
	loading bool
}

var tabHeaders = map[tab][]string{
	tabResources: {"NAMESPACE", "NAME", "KIND", "POLICY", "TRIGGER", "APPROVALS", "PODS"},
	tabApprovals: {"IDENTIFIER", "DELTA", "VOTES", "STATUS", "AGE"},
	tabTracked:   {"#", "IMAGE", "NAMESPACE", "REGISTRY", "TRIGGER", "SCHEDULE", "POLICY"},
	tabAudit:     {"TIME", "USER", "ACTION", "KIND", "IDENTIFIER"},
}

var tabHelp = map[tab]string{
	tabDashboard: "",
	tabResources: "p policy  •  t toggle poll  •  a approvals",
	tabApprovals: "a approve  •  x reject  •  z archive  •  D delete",
	tabTracked:   "",
	tabAudit:     "n next page  •  p previous page",
}

func (m model) rows() []row {
	var out []row
	switch m.tab {
	case tabResources:
		for _, r := range m.state.Resources.Items() {
			trigger := keel.TriggerDefault
			if r.TriggerPoll {
				trigger = keel.TriggerPoll
			}
			approvals := r.RequiredApprovals
			if approvals == "" {
				approvals = "-"
			}
			out = append(out, row{
				id:      r.Identifier,
				cells:   []string{r.Namespace, r.Name, r.Kind, r.Policy, trigger, approvals, fmt.Sprintf("%d/%d", r.Status.AvailableReplicas, r.Status.Replicas)},
				loading: r.Loading,
			})
		}
	case tabApprovals:
		now := time.Now()
		for _, ap := range m.state.Approvals.Items() {
			age := "-"
			if !ap.CreatedAt.IsZero() {
				age = duration.HumanDuration(now.Sub(ap.CreatedAt))
			}
			out = append(out, row{
				id:      ap.Identifier,
				cells:   []string{ap.Identifier, ap.Delta(), fmt.Sprintf("%d/%d", ap.VotesReceived, ap.VotesRequired), approvalStatus(ap), age},
				loading: ap.Loading,
			})
		}
	case tabTracked:
		for _, img := range m.state.Tracked.Items() {
			schedule := img.PollSchedule
			if schedule == "" {
				schedule = "-"
			}
			out = append(out, row{
				id:    img.ID,
				cells: []string{img.Row, img.Image, img.Namespace, img.Registry, img.Trigger, schedule, img.Policy},
			})
		}
	case tabAudit:
		for _, e := range m.state.Audit.Items() {
			out = append(out, row{
				id:    e.ID,
				cells: []string{e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Username, e.Action, e.ResourceKind, e.Identifier},
			})
		}
	}
	return out
}

func (m model) visibleRows() []row {
	all := m.rows()
	needle := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if needle == "" {
		return all
	}
	out := make([]row, 0, len(all))
	for _, r := range all {
		if strings.Contains(strings.ToLower(strings.Join(r.cells, " ")), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (m model) current() (row, bool) {
	rows := m.visibleRows()
	if m.selected < 0 || m.selected >= len(rows) {
		return row{}, false
	}
	return rows[m.selected], true
}

func approvalStatus(ap keel.Approval) string {
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

func (m model) View() string {
	st := m.styles
	var b strings.Builder

	header := st.Title.Render("keelctl")
	if m.opts.Server != "" {
		header += "  " + st.Muted.Render(m.opts.Server)
	}
	if name := m.state.User.Name(); name != "" && m.state.User.Phase() == store.PhaseAuthenticated {
		header += "  " + m.state.User.Welcome() + ", " + name
	}
	if m.busy() {
		header += "  " + m.spinner.View()
	}
	b.WriteString(header + "\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.tab {
			tabs[i] = st.TabOn.Render(label)
		} else {
			tabs[i] = st.Tab.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString("Filter: " + m.filterInput.View() + "\n\n")
	}

	if m.tab == tabDashboard {
		b.WriteString(m.dashboardView())
	} else {
		b.WriteString(m.tableView())
	}

	if m.prompting {
		b.WriteString("\n" + m.promptLabel + ": " + m.promptInput.View() + "\n")
	}
	if m.status != "" {
		if m.failed {
			b.WriteString("\n" + st.Error.Render(m.status) + "\n")
		} else {
			b.WriteString("\n" + st.Success.Render(m.status) + "\n")
		}
	}
	help := "tab/1-5 switch  •  / filter  •  r refresh  •  T theme  •  q quit"
	if extra := tabHelp[m.tab]; extra != "" {
		help = extra + "  •  " + help
	}
	b.WriteString("\n" + st.Muted.Render(help) + "\n")
	return b.String()
}

func (m model) tableView() string {
	rows := m.visibleRows()
	if len(rows) == 0 {
		return m.styles.Muted.Render("  (nothing to show)") + "\n"
	}
	var raw strings.Builder
	tw := tabwriter.NewWriter(&raw, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  "+strings.Join(tabHeaders[m.tab], "\t"))
	for _, r := range rows {
		mark := "  "
		if r.loading {
			mark = "~ "
		}
		fmt.Fprintln(tw, mark+strings.Join(r.cells, "\t"))
	}
	_ = tw.Flush()

	lines := strings.Split(strings.TrimRight(raw.String(), "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		switch {
		case i == 0:
			line = m.styles.Muted.Render(line)
		case i-1 == m.selected:
			line = m.styles.Selected.Render(">" + line[1:])
		}
		b.WriteString(line + "\n")
	}
	if m.tab == tabAudit {
		p := m.state.Audit.Pagination()
		fmt.Fprintf(&b, "\n%s\n", m.styles.Muted.Render(fmt.Sprintf("entries %d-%d of %d", p.Offset+1, p.Offset+len(m.state.Audit.Items()), p.Total)))
	}
	return b.String()
}

func (m model) dashboardView() string {
	s := views.Summarize(m.state)
	var b strings.Builder
	cards := []string{
		m.card("Resources", fmt.Sprintf("%d", s.Resources), fmt.Sprintf("%d managed", s.ManagedResources)),
		m.card("Pods", fmt.Sprintf("%d", s.Pods), fmt.Sprintf("%d available, %d unavailable", s.AvailablePods, s.UnavailablePods)),
		m.card("Tracked images", fmt.Sprintf("%d", s.TrackedImages), fmt.Sprintf("%d namespaces, %d registries", s.Namespaces, s.Registries)),
		m.card("Approvals", fmt.Sprintf("%d pending", s.PendingApprovals), fmt.Sprintf("%d approved, %d rejected", s.Approved, s.Rejected)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n")
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Updates this period: %d", s.UpdatesPeriod)) + "\n")
	b.WriteString(m.chart(views.UpdateStats(m.state)))
	b.WriteString("\n" + m.styles.Title.Render("Approvals per day") + "\n")
	b.WriteString(m.chart(views.ApprovalStats(m.state)))
	return b.String()
}

func (m model) card(title, value, detail string) string {
	body := m.styles.Muted.Render(title) + "\n" + m.styles.Title.Render(value) + "\n" + detail
	return m.styles.Box.Render(body)
}

func (m model) chart(points []keel.ChartPoint) string {
	if len(points) == 0 {
		return m.styles.Muted.Render("  (no data)") + "\n"
	}
	bars := make([]output.Bar, 0, len(points))
	for _, p := range points {
		bars = append(bars, output.Bar{Label: p.X, Value: p.Y})
	}
	width := 40
	if m.width > 40 {
		width = min(60, m.width-30)
	}
	var b strings.Builder
	output.NewPrinter(&b, output.FormatTable).Bars(bars, width)
	return m.styles.Bar.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
